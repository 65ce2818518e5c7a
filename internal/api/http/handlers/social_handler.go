package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/review-feed/internal/api/dto"
	"github.com/spec-kit/review-feed/internal/auth"
	"github.com/spec-kit/review-feed/internal/service"
	apperrors "github.com/spec-kit/review-feed/pkg/util"
)

// SocialHandler manages follow/block endpoints and user search.
type SocialHandler struct {
	social *service.SocialService
}

// NewSocialHandler constructs handler.
func NewSocialHandler(socialService *service.SocialService) *SocialHandler {
	return &SocialHandler{social: socialService}
}

// GetRelations GET /social/relations.
func (h *SocialHandler) GetRelations(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	relations, err := h.social.Relations(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RelationsResponse{
		Following: profileSummaries(relations.Following),
		Followers: profileSummaries(relations.Followers),
		Blocked:   profileSummaries(relations.Blocked),
	}})
}

// Follow POST /social/follows.
func (h *SocialHandler) Follow(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.FollowRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" {
		return apperrors.NewValidationError("username required", nil)
	}

	if err := h.social.Follow(c.Context(), principal.User, req.Username); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"status": "following"}})
}

// Unfollow DELETE /social/follows/:id.
func (h *SocialHandler) Unfollow(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.social.Unfollow(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Block POST /social/blocks/:id.
func (h *SocialHandler) Block(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.social.Block(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"status": "blocked"}})
}

// Unblock DELETE /social/blocks/:id.
func (h *SocialHandler) Unblock(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.social.Unblock(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SearchUsers GET /social/users/search?q=prefix.
func (h *SocialHandler) SearchUsers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	users, err := h.social.SearchUsers(c.Context(), principal.User, c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SearchUsersResponse{Users: userSummaries(users)}})
}
