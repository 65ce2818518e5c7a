package handlers

import (
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/review-feed/internal/api/dto"
	"github.com/spec-kit/review-feed/internal/auth"
	"github.com/spec-kit/review-feed/internal/service"
	apperrors "github.com/spec-kit/review-feed/pkg/util"
)

// FeedHandler serves the aggregated timeline endpoints.
type FeedHandler struct {
	feed  *service.FeedService
	posts *service.PostService
}

// NewFeedHandler constructs handler.
func NewFeedHandler(feedService *service.FeedService, postService *service.PostService) *FeedHandler {
	return &FeedHandler{feed: feedService, posts: postService}
}

// GetFeed GET /feed.
func (h *FeedHandler) GetFeed(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	feed, err := h.feed.ComputeFeed(c.Context(), principal.User)
	if err != nil {
		return err
	}

	reviewed := make([]string, 0, len(feed.ReviewedTicketIDs))
	for id := range feed.ReviewedTicketIDs {
		reviewed = append(reviewed, id)
	}
	sort.Strings(reviewed)

	return c.JSON(fiber.Map{"data": dto.FeedResponse{
		Posts:             postResponses(feed.Posts),
		ReviewedTicketIDs: reviewed,
	}})
}

// GetOwnPosts GET /posts.
func (h *FeedHandler) GetOwnPosts(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	posts, err := h.posts.ListOwnPosts(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": postResponses(posts)})
}
