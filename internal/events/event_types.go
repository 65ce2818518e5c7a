package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserFollowed  EventType = "user_followed"
	EventUserBlocked   EventType = "user_blocked"
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventTicketDeleted EventType = "ticket_deleted"
	EventReviewCreated EventType = "review_created"
	EventReviewDeleted EventType = "review_deleted"
)

// Event represents a domain event emitted by services. ActorID is the
// user who performed the action.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// FollowPayload payload for follow/block events.
type FollowPayload struct {
	ActorUsername string `json:"actor_username"`
	TargetUserID  string `json:"target_user_id"`
}

// TicketPayload payload for ticket events.
type TicketPayload struct {
	TicketID string `json:"ticket_id"`
	Title    string `json:"title"`
}

// ReviewPayload payload for review events.
type ReviewPayload struct {
	ReviewID      string `json:"review_id"`
	TicketID      string `json:"ticket_id"`
	TicketOwnerID string `json:"ticket_owner_id"`
	Headline      string `json:"headline"`
	Rating        int    `json:"rating"`
	ActorUsername string `json:"actor_username"`
}
