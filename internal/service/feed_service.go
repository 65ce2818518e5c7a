package service

import (
	"context"
	"sort"

	"github.com/spec-kit/review-feed/internal/domain"
	"github.com/spec-kit/review-feed/internal/repository"
)

// FeedService computes the per-viewer visible timeline. It is read-only
// and has no side effects.
type FeedService struct {
	profiles repository.ProfileRepository
	tickets  repository.TicketRepository
	reviews  repository.ReviewRepository
}

// FeedDependencies bundles repositories for the feed service.
type FeedDependencies struct {
	ProfileRepo repository.ProfileRepository
	TicketRepo  repository.TicketRepository
	ReviewRepo  repository.ReviewRepository
}

// NewFeedService constructs the service.
func NewFeedService(deps FeedDependencies) *FeedService {
	return &FeedService{
		profiles: deps.ProfileRepo,
		tickets:  deps.TicketRepo,
		reviews:  deps.ReviewRepo,
	}
}

// ComputeFeed returns the posts visible to the viewer, newest first,
// plus the set of ticket ids already reviewed by the viewer or someone
// they follow.
//
// Candidates are the viewer's own posts, posts by followed users, and
// reviews attached to followed users' tickets. A post is excluded when
// its owner (or, for a review, the referenced ticket's owner) has
// blocked the viewer or is blocked by the viewer. The viewer's own
// posts are always visible. Exclusion is evaluated here over adjacency
// sets rather than pushed into SQL.
func (s *FeedService) ComputeFeed(ctx context.Context, viewer *domain.User) (*domain.Feed, error) {
	profile, err := s.profiles.GetByUserID(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	following, err := s.profiles.ListFollowing(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.profiles.ListBlocked(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	blockedBy, err := s.profiles.ListBlockedBy(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	followedIDs := userIDSet(following)
	excluded := userIDSet(blocked)
	for id := range userIDSet(blockedBy) {
		excluded[id] = struct{}{}
	}

	ownerIDs := make([]string, 0, len(followedIDs)+1)
	ownerIDs = append(ownerIDs, viewer.ID)
	for id := range followedIDs {
		ownerIDs = append(ownerIDs, id)
	}
	sort.Strings(ownerIDs)

	visible := func(ownerID string) bool {
		if ownerID == viewer.ID {
			return true
		}
		_, out := excluded[ownerID]
		return !out
	}

	tickets, err := s.tickets.ListByOwners(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	ownReviews, err := s.reviews.ListByOwners(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	followedTicketOwners := make([]string, 0, len(followedIDs))
	for id := range followedIDs {
		followedTicketOwners = append(followedTicketOwners, id)
	}
	sort.Strings(followedTicketOwners)
	attachedReviews, err := s.reviews.ListByTicketOwners(ctx, followedTicketOwners)
	if err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(tickets)+len(ownReviews)+len(attachedReviews))
	for i := range tickets {
		if visible(tickets[i].OwnerID) {
			posts = append(posts, domain.TicketPost(&tickets[i]))
		}
	}

	seen := make(map[string]struct{}, len(ownReviews)+len(attachedReviews))
	appendReview := func(review *domain.Review) {
		if _, dup := seen[review.ID]; dup {
			return
		}
		seen[review.ID] = struct{}{}
		if !visible(review.OwnerID) {
			return
		}
		if _, out := excluded[review.TicketOwnerID]; out && review.TicketOwnerID != viewer.ID {
			return
		}
		posts = append(posts, domain.ReviewPost(review))
	}
	for i := range ownReviews {
		appendReview(&ownReviews[i])
	}
	for i := range attachedReviews {
		appendReview(&attachedReviews[i])
	}

	// Newest first; the stable sort keeps insertion order on equal
	// timestamps.
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt().After(posts[j].CreatedAt())
	})

	reviewedIDs, err := s.reviews.ReviewedTicketIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	reviewed := make(map[string]struct{}, len(reviewedIDs))
	for _, id := range reviewedIDs {
		reviewed[id] = struct{}{}
	}

	return &domain.Feed{Posts: posts, ReviewedTicketIDs: reviewed}, nil
}

func userIDSet(profiles []domain.Profile) map[string]struct{} {
	set := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		set[p.UserID] = struct{}{}
	}
	return set
}
