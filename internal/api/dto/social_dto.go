package dto

// FollowRequest names the user to follow.
type FollowRequest struct {
	Username string `json:"username"`
}

// RelationsResponse lists the viewer's social neighborhood.
type RelationsResponse struct {
	Following []UserSummary `json:"following"`
	Followers []UserSummary `json:"followers"`
	Blocked   []UserSummary `json:"blocked"`
}

// SearchUsersResponse is the result of a username prefix search.
type SearchUsersResponse struct {
	Users []UserSummary `json:"users"`
}
