package handlers

import (
	"github.com/spec-kit/review-feed/internal/api/dto"
	"github.com/spec-kit/review-feed/internal/domain"
)

func ticketResponse(ticket *domain.Ticket) *dto.TicketResponse {
	return &dto.TicketResponse{
		ID:          ticket.ID,
		OwnerID:     ticket.OwnerID,
		Title:       ticket.Title,
		Description: ticket.Description,
		ImagePath:   ticket.ImagePath,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

func reviewResponse(review *domain.Review) *dto.ReviewResponse {
	return &dto.ReviewResponse{
		ID:        review.ID,
		TicketID:  review.TicketID,
		OwnerID:   review.OwnerID,
		Headline:  review.Headline,
		Rating:    review.Rating,
		Body:      review.Body,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

func postResponse(post domain.Post) dto.PostResponse {
	resp := dto.PostResponse{
		Kind:      string(post.Kind),
		Title:     post.DisplayTitle(),
		OwnerID:   post.OwnerID(),
		CreatedAt: post.CreatedAt(),
	}
	switch post.Kind {
	case domain.PostKindTicket:
		resp.Ticket = ticketResponse(post.Ticket)
	case domain.PostKindReview:
		resp.Review = reviewResponse(post.Review)
	}
	return resp
}

func postResponses(posts []domain.Post) []dto.PostResponse {
	items := make([]dto.PostResponse, 0, len(posts))
	for _, post := range posts {
		items = append(items, postResponse(post))
	}
	return items
}

func userSummaries(users []domain.User) []dto.UserSummary {
	items := make([]dto.UserSummary, 0, len(users))
	for _, user := range users {
		items = append(items, dto.UserSummary{ID: user.ID, Username: user.Username})
	}
	return items
}

func profileSummaries(profiles []domain.Profile) []dto.UserSummary {
	items := make([]dto.UserSummary, 0, len(profiles))
	for _, profile := range profiles {
		items = append(items, dto.UserSummary{ID: profile.UserID, Username: profile.Username})
	}
	return items
}
