package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/review-feed/internal/domain"
)

// feedWorld wires a feed service over the in-memory fakes and registers
// a handful of users to arrange follows, blocks and posts against.
type feedWorld struct {
	users    *fakeUserRepo
	profiles *fakeProfileRepo
	tickets  *fakeTicketRepo
	reviews  *fakeReviewRepo
	feed     *FeedService
}

func newFeedWorld(t *testing.T, usernames ...string) (*feedWorld, map[string]*domain.User) {
	t.Helper()
	clock := newTestClock()
	users := newFakeUserRepo(clock)
	tickets := newFakeTicketRepo(clock)
	world := &feedWorld{
		users:    users,
		profiles: newFakeProfileRepo(users),
		tickets:  tickets,
		reviews:  newFakeReviewRepo(clock, tickets),
	}
	world.feed = NewFeedService(FeedDependencies{
		ProfileRepo: world.profiles,
		TicketRepo:  world.tickets,
		ReviewRepo:  world.reviews,
	})

	registered := make(map[string]*domain.User, len(usernames))
	for _, name := range usernames {
		user := &domain.User{Username: name}
		_, err := users.CreateWithProfile(context.Background(), user)
		require.NoError(t, err)
		registered[name] = user
	}
	return world, registered
}

func (w *feedWorld) follow(t *testing.T, from, to *domain.User) {
	t.Helper()
	require.NoError(t, w.profiles.Follow(context.Background(), "profile-"+from.ID, "profile-"+to.ID))
}

func (w *feedWorld) block(t *testing.T, from, to *domain.User) {
	t.Helper()
	require.NoError(t, w.profiles.Block(context.Background(), "profile-"+from.ID, "profile-"+to.ID))
}

func (w *feedWorld) addTicket(t *testing.T, owner *domain.User, title string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{OwnerID: owner.ID, Title: title}
	require.NoError(t, w.tickets.Create(context.Background(), ticket))
	return ticket
}

func (w *feedWorld) addReview(t *testing.T, owner *domain.User, ticket *domain.Ticket, headline string) *domain.Review {
	t.Helper()
	review := &domain.Review{TicketID: ticket.ID, OwnerID: owner.ID, Headline: headline, Rating: 4}
	require.NoError(t, w.reviews.Create(context.Background(), review))
	return review
}

func postIDs(feed *domain.Feed) []string {
	ids := make([]string, 0, len(feed.Posts))
	for _, post := range feed.Posts {
		ids = append(ids, post.ID())
	}
	return ids
}

func TestComputeFeedEmpty(t *testing.T) {
	world, users := newFeedWorld(t, "alice")

	feed, err := world.feed.ComputeFeed(context.Background(), users["alice"])
	require.NoError(t, err)
	require.Empty(t, feed.Posts)
	require.Empty(t, feed.ReviewedTicketIDs)
}

func TestComputeFeedOwnAndFollowedPosts(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob", "carol")
	alice, bob, carol := users["alice"], users["bob"], users["carol"]

	world.follow(t, alice, bob)
	own := world.addTicket(t, alice, "my book")
	followed := world.addTicket(t, bob, "bob's book")
	world.addTicket(t, carol, "carol's book")

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)

	// Carol is not followed; her ticket stays out. Newest first.
	require.Equal(t, []string{followed.ID, own.ID}, postIDs(feed))
}

func TestComputeFeedNewestFirst(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob")
	alice, bob := users["alice"], users["bob"]

	world.follow(t, alice, bob)
	first := world.addTicket(t, alice, "first")
	second := world.addTicket(t, bob, "second")
	ticket := world.addTicket(t, alice, "third")
	review := world.addReview(t, bob, ticket, "great read")

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)
	require.Equal(t, []string{review.ID, ticket.ID, second.ID, first.ID}, postIDs(feed))
}

func TestComputeFeedReviewProjectsHeadline(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob")
	alice, bob := users["alice"], users["bob"]

	world.follow(t, alice, bob)
	ticket := world.addTicket(t, bob, "bob's book")
	world.addReview(t, bob, ticket, "self reviewed")

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)
	require.Equal(t, domain.PostKindReview, feed.Posts[0].Kind)
	require.Equal(t, "self reviewed", feed.Posts[0].DisplayTitle())
	require.Equal(t, domain.PostKindTicket, feed.Posts[1].Kind)
	require.Equal(t, "bob's book", feed.Posts[1].DisplayTitle())
}

func TestComputeFeedReviewOnFollowedTicketVisible(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob", "carol")
	alice, bob, carol := users["alice"], users["bob"], users["carol"]

	// Carol is not followed, but her review lands on a followed
	// user's ticket, so alice sees the response.
	world.follow(t, alice, bob)
	ticket := world.addTicket(t, bob, "bob's book")
	review := world.addReview(t, carol, ticket, "stranger's take")

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)
	require.Equal(t, []string{review.ID, ticket.ID}, postIDs(feed))
}

func TestComputeFeedBlockedUserInvisible(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob")
	alice, bob := users["alice"], users["bob"]

	world.follow(t, alice, bob)
	ticket := world.addTicket(t, bob, "bob's book")
	world.addReview(t, bob, ticket, "bob on bob")
	world.block(t, alice, bob)

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)
	require.Empty(t, feed.Posts)
}

func TestComputeFeedBlockedByUserInvisible(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob")
	alice, bob := users["alice"], users["bob"]

	world.follow(t, alice, bob)
	world.addTicket(t, bob, "bob's book")
	world.block(t, bob, alice)

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)
	require.Empty(t, feed.Posts)
}

func TestComputeFeedBlockHidesReviewOnBlockedOwnersTicket(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob", "carol")
	alice, bob, carol := users["alice"], users["bob"], users["carol"]

	// Bob (followed) reviews carol's ticket, but alice blocked carol:
	// the review references blocked content and stays out.
	world.follow(t, alice, bob)
	ticket := world.addTicket(t, carol, "carol's book")
	world.addReview(t, bob, ticket, "bob on carol")
	world.block(t, alice, carol)

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)
	require.Empty(t, feed.Posts)
}

func TestComputeFeedReviewOnOwnTicketAlwaysVisible(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob")
	alice, bob := users["alice"], users["bob"]

	world.follow(t, alice, bob)
	ticket := world.addTicket(t, alice, "my book")
	review := world.addReview(t, bob, ticket, "bob on alice")

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)
	require.Equal(t, []string{review.ID, ticket.ID}, postIDs(feed))
}

func TestComputeFeedOwnPostsSurviveBlocks(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob")
	alice, bob := users["alice"], users["bob"]

	own := world.addTicket(t, alice, "my book")
	world.block(t, bob, alice)

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)
	require.Equal(t, []string{own.ID}, postIDs(feed))
}

func TestComputeFeedReviewedTicketIDs(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob", "carol")
	alice, bob, carol := users["alice"], users["bob"], users["carol"]

	world.follow(t, alice, bob)
	byViewer := world.addTicket(t, carol, "reviewed by viewer")
	byFollowed := world.addTicket(t, carol, "reviewed by followed")
	untouched := world.addTicket(t, bob, "not yet reviewed")
	world.addReview(t, alice, byViewer, "mine")
	world.addReview(t, bob, byFollowed, "bob's")
	world.addReview(t, carol, untouched, "carol reviews herself")

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)

	require.Contains(t, feed.ReviewedTicketIDs, byViewer.ID)
	require.Contains(t, feed.ReviewedTicketIDs, byFollowed.ID)
	// Carol is not followed; her reviews do not mark tickets as covered.
	require.NotContains(t, feed.ReviewedTicketIDs, untouched.ID)
}

func TestComputeFeedDeduplicatesReviews(t *testing.T) {
	world, users := newFeedWorld(t, "alice", "bob")
	alice, bob := users["alice"], users["bob"]

	// A review by a followed user on a followed user's ticket shows up
	// in both candidate queries; it must appear only once.
	world.follow(t, alice, bob)
	ticket := world.addTicket(t, bob, "bob's book")
	world.addReview(t, bob, ticket, "bob on bob")

	feed, err := world.feed.ComputeFeed(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)
}
