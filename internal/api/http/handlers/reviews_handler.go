package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/review-feed/internal/api/dto"
	"github.com/spec-kit/review-feed/internal/auth"
	"github.com/spec-kit/review-feed/internal/service"
	apperrors "github.com/spec-kit/review-feed/pkg/util"
)

// ReviewsHandler manages review endpoints.
type ReviewsHandler struct {
	posts *service.PostService
}

// NewReviewsHandler constructs handler.
func NewReviewsHandler(postService *service.PostService) *ReviewsHandler {
	return &ReviewsHandler{posts: postService}
}

// CreateStandaloneReview POST /reviews creates a ticket and its review
// in one step. Multipart lets an image accompany the ticket; JSON works
// without one.
func (h *ReviewsHandler) CreateStandaloneReview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	var ticketInput service.TicketInput
	var reviewInput service.ReviewInput
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var err error
		ticketInput, err = parseTicketForm(c)
		if err != nil {
			return err
		}
		reviewInput, err = parseReviewForm(c)
		if err != nil {
			return err
		}
	} else {
		var req dto.StandaloneReviewRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		ticketInput = service.TicketInput{
			Title:       req.Ticket.Title,
			Description: req.Ticket.Description,
		}
		reviewInput = service.ReviewInput{
			Headline: req.Review.Headline,
			Rating:   req.Review.Rating,
			Body:     req.Review.Body,
		}
	}

	ticket, review, err := h.posts.CreateStandaloneReview(c.Context(), principal.User, ticketInput, reviewInput)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"ticket": ticketResponse(ticket),
			"review": reviewResponse(review),
		},
	})
}

// CreateRelatedReview POST /tickets/:id/reviews.
func (h *ReviewsHandler) CreateRelatedReview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	review, err := h.posts.CreateRelatedReview(c.Context(), principal.User, c.Params("id"), service.ReviewInput{
		Headline: req.Headline,
		Rating:   req.Rating,
		Body:     req.Body,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reviewResponse(review)})
}

// UpdateReview PUT /reviews/:id.
func (h *ReviewsHandler) UpdateReview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	review, err := h.posts.UpdateReview(c.Context(), principal.User, c.Params("id"), service.ReviewInput{
		Headline: req.Headline,
		Rating:   req.Rating,
		Body:     req.Body,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reviewResponse(review)})
}

// DeleteReview DELETE /reviews/:id.
func (h *ReviewsHandler) DeleteReview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.posts.DeleteReview(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseReviewForm(c *fiber.Ctx) (service.ReviewInput, error) {
	rating, err := strconv.Atoi(strings.TrimSpace(c.FormValue("rating")))
	if err != nil {
		return service.ReviewInput{}, apperrors.NewValidationError("rating must be an integer", nil)
	}
	return service.ReviewInput{
		Headline: strings.TrimSpace(c.FormValue("headline")),
		Rating:   rating,
		Body:     strings.TrimSpace(c.FormValue("body")),
	}, nil
}
