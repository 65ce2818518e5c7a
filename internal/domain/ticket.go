package domain

import "time"

// Ticket is a user's request for a review, optionally carrying an image.
// Title is unique per owner; CreatedAt is immutable once set.
type Ticket struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	ImagePath   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RatingMin and RatingMax bound review ratings.
const (
	RatingMin = 0
	RatingMax = 5
)

// Review is a rating plus comment attached to exactly one ticket. A
// review has no title of its own; the feed projects its headline.
type Review struct {
	ID        string
	TicketID  string
	OwnerID   string
	Headline  string
	Rating    int
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time

	// TicketOwnerID is the owner of the referenced ticket. Populated by
	// list queries that join tickets; visibility checks need it.
	TicketOwnerID string
}
