package domain

import "time"

// PostKind discriminates feed entries.
type PostKind string

const (
	PostKindTicket PostKind = "TICKET"
	PostKindReview PostKind = "REVIEW"
)

// Post is the tagged union of the two content types that appear in a
// feed. Exactly one of Ticket/Review is set, matching Kind.
type Post struct {
	Kind   PostKind
	Ticket *Ticket
	Review *Review
}

// TicketPost wraps a ticket as a feed entry.
func TicketPost(t *Ticket) Post {
	return Post{Kind: PostKindTicket, Ticket: t}
}

// ReviewPost wraps a review as a feed entry.
func ReviewPost(r *Review) Post {
	return Post{Kind: PostKindReview, Review: r}
}

// DisplayTitle is the common title projection: a ticket's title, or a
// review's headline.
func (p Post) DisplayTitle() string {
	if p.Kind == PostKindTicket && p.Ticket != nil {
		return p.Ticket.Title
	}
	if p.Review != nil {
		return p.Review.Headline
	}
	return ""
}

// CreatedAt returns the creation timestamp of the underlying post.
func (p Post) CreatedAt() time.Time {
	if p.Kind == PostKindTicket && p.Ticket != nil {
		return p.Ticket.CreatedAt
	}
	if p.Review != nil {
		return p.Review.CreatedAt
	}
	return time.Time{}
}

// OwnerID returns the authoring user's id.
func (p Post) OwnerID() string {
	if p.Kind == PostKindTicket && p.Ticket != nil {
		return p.Ticket.OwnerID
	}
	if p.Review != nil {
		return p.Review.OwnerID
	}
	return ""
}

// ID returns the underlying post id.
func (p Post) ID() string {
	if p.Kind == PostKindTicket && p.Ticket != nil {
		return p.Ticket.ID
	}
	if p.Review != nil {
		return p.Review.ID
	}
	return ""
}

// Feed is the computed result for one viewer: the merged timeline plus
// the set of ticket ids already reviewed by the viewer or someone the
// viewer follows. Callers use ReviewedTicketIDs to suppress the
// "write a review" action.
type Feed struct {
	Posts             []Post
	ReviewedTicketIDs map[string]struct{}
}
