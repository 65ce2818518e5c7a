package dto

import "time"

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImagePath   *string   `json:"image_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReviewResponse is the wire form of a review.
type ReviewResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	OwnerID   string    `json:"owner_id"`
	Headline  string    `json:"headline"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostResponse is one feed entry: a tagged ticket or review with the
// common projections flattened out.
type PostResponse struct {
	Kind      string          `json:"kind"`
	Title     string          `json:"title"`
	OwnerID   string          `json:"owner_id"`
	CreatedAt time.Time       `json:"created_at"`
	Ticket    *TicketResponse `json:"ticket,omitempty"`
	Review    *ReviewResponse `json:"review,omitempty"`
}

// FeedResponse is the computed timeline for a viewer.
type FeedResponse struct {
	Posts             []PostResponse `json:"posts"`
	ReviewedTicketIDs []string       `json:"reviewed_ticket_ids"`
}

// ReviewRequest payload for creating or editing a review.
type ReviewRequest struct {
	Headline string `json:"headline"`
	Rating   int    `json:"rating"`
	Body     string `json:"body"`
}

// StandaloneReviewRequest creates a ticket and its review in one step.
type StandaloneReviewRequest struct {
	Ticket TicketFields  `json:"ticket"`
	Review ReviewRequest `json:"review"`
}

// TicketFields are the writable ticket fields for JSON payloads.
type TicketFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
