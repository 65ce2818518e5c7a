package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/review-feed/internal/domain"
	"github.com/spec-kit/review-feed/internal/events"
	"github.com/spec-kit/review-feed/internal/repository"
)

// testClock hands out strictly increasing timestamps so ordering
// assertions are deterministic.
type testClock struct {
	mu   sync.Mutex
	base time.Time
	n    int
}

func newTestClock() *testClock {
	return &testClock{base: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.base.Add(time.Duration(c.n) * time.Second)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	clock *testClock
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo(clock *testClock) *fakeUserRepo {
	return &fakeUserRepo{clock: clock, users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) CreateWithProfile(_ context.Context, user *domain.User) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = r.clock.next()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return &domain.Profile{
		ID:        "profile-" + user.ID,
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = r.clock.next()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) SearchByUsernamePrefix(_ context.Context, prefix, excludeID string, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lowered := strings.ToLower(prefix)
	var found []domain.User
	for _, user := range r.users {
		if user.ID == excludeID {
			continue
		}
		if strings.HasPrefix(strings.ToLower(user.Username), lowered) {
			found = append(found, *user)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Username < found[j].Username })
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

type edgeSet map[string]map[string]struct{}

func (s edgeSet) add(from, to string) {
	if s[from] == nil {
		s[from] = map[string]struct{}{}
	}
	s[from][to] = struct{}{}
}

func (s edgeSet) remove(from, to string) {
	delete(s[from], to)
}

func (s edgeSet) has(from, to string) bool {
	_, ok := s[from][to]
	return ok
}

type fakeProfileRepo struct {
	mu      sync.Mutex
	users   *fakeUserRepo
	follows edgeSet
	blocks  edgeSet
}

func newFakeProfileRepo(users *fakeUserRepo) *fakeProfileRepo {
	return &fakeProfileRepo{users: users, follows: edgeSet{}, blocks: edgeSet{}}
}

func (r *fakeProfileRepo) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{
		ID:        "profile-" + user.ID,
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (r *fakeProfileRepo) Follow(_ context.Context, profileID, targetProfileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.follows.add(profileID, targetProfileID)
	return nil
}

func (r *fakeProfileRepo) Unfollow(_ context.Context, profileID, targetProfileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.follows.remove(profileID, targetProfileID)
	return nil
}

func (r *fakeProfileRepo) Block(_ context.Context, profileID, targetProfileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks.add(profileID, targetProfileID)
	r.follows.remove(profileID, targetProfileID)
	return nil
}

func (r *fakeProfileRepo) Unblock(_ context.Context, profileID, targetProfileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks.remove(profileID, targetProfileID)
	return nil
}

func (r *fakeProfileRepo) IsFollowing(_ context.Context, profileID, targetProfileID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.follows.has(profileID, targetProfileID), nil
}

func (r *fakeProfileRepo) ListFollowing(ctx context.Context, profileID string) ([]domain.Profile, error) {
	return r.listEdges(ctx, r.follows, profileID, false)
}

func (r *fakeProfileRepo) ListFollowers(ctx context.Context, profileID string) ([]domain.Profile, error) {
	return r.listEdges(ctx, r.follows, profileID, true)
}

func (r *fakeProfileRepo) ListBlocked(ctx context.Context, profileID string) ([]domain.Profile, error) {
	return r.listEdges(ctx, r.blocks, profileID, false)
}

func (r *fakeProfileRepo) ListBlockedBy(ctx context.Context, profileID string) ([]domain.Profile, error) {
	return r.listEdges(ctx, r.blocks, profileID, true)
}

func (r *fakeProfileRepo) listEdges(ctx context.Context, edges edgeSet, profileID string, inbound bool) ([]domain.Profile, error) {
	r.mu.Lock()
	var ids []string
	if inbound {
		for from, targets := range edges {
			if _, ok := targets[profileID]; ok {
				ids = append(ids, from)
			}
		}
	} else {
		for to := range edges[profileID] {
			ids = append(ids, to)
		}
	}
	r.mu.Unlock()

	sort.Strings(ids)
	profiles := make([]domain.Profile, 0, len(ids))
	for _, id := range ids {
		profile, err := r.GetByUserID(ctx, strings.TrimPrefix(id, "profile-"))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	clock   *testClock
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo(clock *testClock) *fakeTicketRepo {
	return &fakeTicketRepo{clock: clock, tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insert(ticket)
	return nil
}

func (r *fakeTicketRepo) insert(ticket *domain.Ticket) {
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = r.clock.next()
	ticket.UpdatedAt = ticket.CreatedAt
	cp := *ticket
	r.tickets[ticket.ID] = &cp
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.CreatedAt = stored.CreatedAt
	ticket.UpdatedAt = r.clock.next()
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *ticket
	return &cp, nil
}

func (r *fakeTicketRepo) ListByOwners(_ context.Context, ownerIDs []string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owners := map[string]struct{}{}
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if _, ok := owners[ticket.OwnerID]; ok {
			out = append(out, *ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeTicketRepo) ExistsByOwnerTitle(_ context.Context, ownerID, title, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.OwnerID == ownerID && ticket.Title == title && ticket.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	clock   *testClock
	tickets *fakeTicketRepo
	seq     int
	reviews map[string]*domain.Review

	// failCreateStandalone makes the review half of CreateStandalone
	// fail, leaving nothing behind.
	failCreateStandalone error
}

func newFakeReviewRepo(clock *testClock, tickets *fakeTicketRepo) *fakeReviewRepo {
	return &fakeReviewRepo{clock: clock, tickets: tickets, reviews: map[string]*domain.Review{}}
}

func (r *fakeReviewRepo) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	review.ID = fmt.Sprintf("review-%d", r.seq)
	review.CreatedAt = r.clock.next()
	review.UpdatedAt = review.CreatedAt
	cp := *review
	cp.TicketOwnerID = ""
	r.reviews[review.ID] = &cp
	return nil
}

func (r *fakeReviewRepo) Update(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.reviews[review.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	review.CreatedAt = stored.CreatedAt
	review.UpdatedAt = r.clock.next()
	cp := *review
	cp.TicketOwnerID = ""
	r.reviews[review.ID] = &cp
	return nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.reviews, id)
	return nil
}

func (r *fakeReviewRepo) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	review, ok := r.reviews[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *review
	return &cp, nil
}

func (r *fakeReviewRepo) ListByOwners(ctx context.Context, ownerIDs []string) ([]domain.Review, error) {
	return r.list(ctx, ownerIDs, func(review *domain.Review, _ *domain.Ticket) string {
		return review.OwnerID
	})
}

func (r *fakeReviewRepo) ListByTicketOwners(ctx context.Context, ticketOwnerIDs []string) ([]domain.Review, error) {
	return r.list(ctx, ticketOwnerIDs, func(_ *domain.Review, ticket *domain.Ticket) string {
		if ticket == nil {
			return ""
		}
		return ticket.OwnerID
	})
}

func (r *fakeReviewRepo) list(ctx context.Context, matchIDs []string, keyOf func(*domain.Review, *domain.Ticket) string) ([]domain.Review, error) {
	match := map[string]struct{}{}
	for _, id := range matchIDs {
		match[id] = struct{}{}
	}

	r.mu.Lock()
	stored := make([]*domain.Review, 0, len(r.reviews))
	for _, review := range r.reviews {
		stored = append(stored, review)
	}
	r.mu.Unlock()

	var out []domain.Review
	for _, review := range stored {
		ticket, err := r.tickets.GetByID(ctx, review.TicketID)
		if err != nil {
			continue
		}
		if _, ok := match[keyOf(review, ticket)]; !ok {
			continue
		}
		cp := *review
		cp.TicketOwnerID = ticket.OwnerID
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeReviewRepo) ReviewedTicketIDs(_ context.Context, reviewerIDs []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reviewers := map[string]struct{}{}
	for _, id := range reviewerIDs {
		reviewers[id] = struct{}{}
	}
	seen := map[string]struct{}{}
	var out []string
	for _, review := range r.reviews {
		if _, ok := reviewers[review.OwnerID]; !ok {
			continue
		}
		if _, dup := seen[review.TicketID]; dup {
			continue
		}
		seen[review.TicketID] = struct{}{}
		out = append(out, review.TicketID)
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeReviewRepo) CreateStandalone(ctx context.Context, ticket *domain.Ticket, review *domain.Review) error {
	if r.failCreateStandalone != nil {
		return r.failCreateStandalone
	}

	r.tickets.mu.Lock()
	r.tickets.insert(ticket)
	r.tickets.mu.Unlock()

	review.TicketID = ticket.ID
	return r.Create(ctx, review)
}

type fakeResetRepo struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]*repository.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]*repository.PasswordResetToken{}}
}

func (r *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	token.ID = fmt.Sprintf("reset-%d", r.seq)
	token.CreatedAt = time.Now()
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.Token == tokenStr {
			cp := *token
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	token.UsedAt = &now
	return nil
}

// expire backdates a stored token for expiry tests.
func (r *fakeResetRepo) expire(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.tokens[id]; ok {
		token.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

type fakeMediaStore struct {
	mu      sync.Mutex
	saved   []string
	removed []string
	failErr error
}

func (s *fakeMediaStore) Save(ownerID, filename string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return "", s.failErr
	}
	key := "tickets/user_" + ownerID + "/" + filename
	s.saved = append(s.saved, key)
	return key, nil
}

func (s *fakeMediaStore) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, path)
	return nil
}

// captureDispatcher records every published event.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) ofType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
