package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/review-feed/internal/domain"
	"github.com/spec-kit/review-feed/internal/events"
	"github.com/spec-kit/review-feed/internal/repository"
	apperrors "github.com/spec-kit/review-feed/pkg/util"
)

const searchResultLimit = 5

// SocialService applies follow/unfollow/block/unblock transitions and
// answers user searches. Every action either succeeds fully or leaves
// the graph unchanged.
type SocialService struct {
	users      repository.UserRepository
	profiles   repository.ProfileRepository
	dispatcher events.Dispatcher
}

// SocialDependencies bundles repositories for the social service.
type SocialDependencies struct {
	UserRepo    repository.UserRepository
	ProfileRepo repository.ProfileRepository
	Dispatcher  events.Dispatcher
}

// NewSocialService constructs the service.
func NewSocialService(deps SocialDependencies) *SocialService {
	return &SocialService{
		users:      deps.UserRepo,
		profiles:   deps.ProfileRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Follow adds a follow edge from the viewer to the user named by
// targetUsername.
func (s *SocialService) Follow(ctx context.Context, viewer *domain.User, targetUsername string) error {
	target, err := s.users.GetByUsername(ctx, strings.TrimSpace(targetUsername))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"username": targetUsername})
		}
		return err
	}
	if target.ID == viewer.ID {
		return apperrors.NewBusinessRule("you cannot follow yourself")
	}

	viewerProfile, err := s.profiles.GetByUserID(ctx, viewer.ID)
	if err != nil {
		return err
	}
	targetProfile, err := s.profiles.GetByUserID(ctx, target.ID)
	if err != nil {
		return err
	}

	following, err := s.profiles.IsFollowing(ctx, viewerProfile.ID, targetProfile.ID)
	if err != nil {
		return err
	}
	if following {
		return apperrors.NewBusinessRule("already following this user")
	}

	if err := s.profiles.Follow(ctx, viewerProfile.ID, targetProfile.ID); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventUserFollowed,
		ActorID: viewer.ID,
		Payload: events.FollowPayload{
			ActorUsername: viewer.Username,
			TargetUserID:  target.ID,
		},
	})
	return nil
}

// Unfollow removes the follow edge to targetUserID. Removing an absent
// edge is not an error; only the target's existence is checked.
func (s *SocialService) Unfollow(ctx context.Context, viewer *domain.User, targetUserID string) error {
	if targetUserID == viewer.ID {
		return apperrors.NewBusinessRule("you cannot unfollow yourself")
	}
	viewerProfile, targetProfile, err := s.profilePair(ctx, viewer.ID, targetUserID)
	if err != nil {
		return err
	}
	return s.profiles.Unfollow(ctx, viewerProfile.ID, targetProfile.ID)
}

// Block adds a block edge and drops any follow edge from the viewer to
// the target. Blocking implies unfollowing.
func (s *SocialService) Block(ctx context.Context, viewer *domain.User, targetUserID string) error {
	if targetUserID == viewer.ID {
		return apperrors.NewBusinessRule("you cannot block yourself")
	}
	viewerProfile, targetProfile, err := s.profilePair(ctx, viewer.ID, targetUserID)
	if err != nil {
		return err
	}
	if err := s.profiles.Block(ctx, viewerProfile.ID, targetProfile.ID); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventUserBlocked,
		ActorID: viewer.ID,
		Payload: events.FollowPayload{
			ActorUsername: viewer.Username,
			TargetUserID:  targetUserID,
		},
	})
	return nil
}

// Unblock removes the block edge if present. Unblocking an already
// unblocked user succeeds.
func (s *SocialService) Unblock(ctx context.Context, viewer *domain.User, targetUserID string) error {
	viewerProfile, targetProfile, err := s.profilePair(ctx, viewer.ID, targetUserID)
	if err != nil {
		return err
	}
	return s.profiles.Unblock(ctx, viewerProfile.ID, targetProfile.ID)
}

// SearchUsers performs a case-insensitive prefix match on usernames,
// excluding the viewer, at most five results in alphabetical order. An
// empty prefix returns nothing rather than everyone.
func (s *SocialService) SearchUsers(ctx context.Context, viewer *domain.User, prefix string) ([]domain.User, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []domain.User{}, nil
	}
	found, err := s.users.SearchByUsernamePrefix(ctx, prefix, viewer.ID, searchResultLimit)
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []domain.User{}
	}
	return found, nil
}

// Relations returns the viewer's following, followers and blocked lists.
func (s *SocialService) Relations(ctx context.Context, viewer *domain.User) (*domain.Relations, error) {
	profile, err := s.profiles.GetByUserID(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	following, err := s.profiles.ListFollowing(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	followers, err := s.profiles.ListFollowers(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.profiles.ListBlocked(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	return &domain.Relations{
		Following: following,
		Followers: followers,
		Blocked:   blocked,
	}, nil
}

func (s *SocialService) profilePair(ctx context.Context, viewerID, targetUserID string) (*domain.Profile, *domain.Profile, error) {
	if _, err := s.users.GetByID(ctx, targetUserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("user", map[string]any{"id": targetUserID})
		}
		return nil, nil, err
	}
	viewerProfile, err := s.profiles.GetByUserID(ctx, viewerID)
	if err != nil {
		return nil, nil, err
	}
	targetProfile, err := s.profiles.GetByUserID(ctx, targetUserID)
	if err != nil {
		return nil, nil, err
	}
	return viewerProfile, targetProfile, nil
}

func (s *SocialService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
