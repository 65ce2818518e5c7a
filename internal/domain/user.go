package domain

import "time"

// User is the domain model for registered accounts.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the social-graph counterpart of a User. Follow and block
// edges are directed relations between profiles; a profile never carries
// an edge to itself. A profile is created in the same transaction as its
// user and exists exactly once per user.
type Profile struct {
	ID        string
	UserID    string
	Username  string
	CreatedAt time.Time
}

// Relations describes the viewer's social neighborhood as shown on the
// follows page.
type Relations struct {
	Following []Profile
	Followers []Profile
	Blocked   []Profile
}
