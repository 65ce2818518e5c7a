package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/review-feed/internal/domain"
	"github.com/spec-kit/review-feed/internal/events"
	"github.com/spec-kit/review-feed/internal/media"
	"github.com/spec-kit/review-feed/internal/repository"
	apperrors "github.com/spec-kit/review-feed/pkg/util"
)

const (
	titleMaxLen       = 128
	descriptionMaxLen = 2048
	headlineMaxLen    = 128
	reviewBodyMaxLen  = 8192
)

// ImageUpload carries an uploaded image blob.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// TicketInput describes ticket creation/edit payload.
type TicketInput struct {
	Title       string
	Description string
	Image       *ImageUpload
}

// ReviewInput describes review creation/edit payload.
type ReviewInput struct {
	Headline string
	Rating   int
	Body     string
}

// PostService coordinates ticket and review workflows.
type PostService struct {
	tickets    repository.TicketRepository
	reviews    repository.ReviewRepository
	store      media.Store
	dispatcher events.Dispatcher
}

// PostDependencies bundles repositories for the post service.
type PostDependencies struct {
	TicketRepo repository.TicketRepository
	ReviewRepo repository.ReviewRepository
	MediaStore media.Store
	Dispatcher events.Dispatcher
}

// NewPostService constructs the service.
func NewPostService(deps PostDependencies) *PostService {
	return &PostService{
		tickets:    deps.TicketRepo,
		reviews:    deps.ReviewRepo,
		store:      deps.MediaStore,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket persists a new ticket owned by the viewer. The creation
// timestamp is server-assigned.
func (s *PostService) CreateTicket(ctx context.Context, viewer *domain.User, input TicketInput) (*domain.Ticket, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := s.validateTicketInput(ctx, viewer.ID, input, ""); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		OwnerID:     viewer.ID,
		Title:       input.Title,
		Description: input.Description,
	}
	if input.Image != nil {
		path, err := s.saveImage(viewer.ID, input.Image)
		if err != nil {
			return nil, err
		}
		ticket.ImagePath = &path
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.removeImage(ticket.ImagePath)
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketCreated,
		ActorID: viewer.ID,
		Payload: events.TicketPayload{TicketID: ticket.ID, Title: ticket.Title},
	})
	return ticket, nil
}

// UpdateTicket applies field updates to an owned ticket. CreatedAt is
// never touched.
func (s *PostService) UpdateTicket(ctx context.Context, viewer *domain.User, ticketID string, input TicketInput) (*domain.Ticket, error) {
	ticket, err := s.ownedTicket(ctx, viewer.ID, ticketID)
	if err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := s.validateTicketInput(ctx, viewer.ID, input, ticket.ID); err != nil {
		return nil, err
	}

	oldImage := ticket.ImagePath
	if input.Image != nil {
		path, err := s.saveImage(viewer.ID, input.Image)
		if err != nil {
			return nil, err
		}
		ticket.ImagePath = &path
	}

	ticket.Title = input.Title
	ticket.Description = input.Description
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if input.Image != nil {
			s.removeImage(ticket.ImagePath)
		}
		return nil, err
	}
	if input.Image != nil && oldImage != nil {
		s.removeImage(oldImage)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketUpdated,
		ActorID: viewer.ID,
		Payload: events.TicketPayload{TicketID: ticket.ID, Title: ticket.Title},
	})
	return ticket, nil
}

// DeleteTicket removes an owned ticket; its reviews cascade away with it.
func (s *PostService) DeleteTicket(ctx context.Context, viewer *domain.User, ticketID string) error {
	ticket, err := s.ownedTicket(ctx, viewer.ID, ticketID)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return err
	}
	s.removeImage(ticket.ImagePath)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketDeleted,
		ActorID: viewer.ID,
		Payload: events.TicketPayload{TicketID: ticket.ID, Title: ticket.Title},
	})
	return nil
}

// CreateRelatedReview attaches a review to an existing ticket. Nothing
// prevents several users from reviewing the same ticket.
func (s *PostService) CreateRelatedReview(ctx context.Context, viewer *domain.User, ticketID string, input ReviewInput) (*domain.Review, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	if err := validateReviewInput(&input); err != nil {
		return nil, err
	}

	review := &domain.Review{
		TicketID: ticket.ID,
		OwnerID:  viewer.ID,
		Headline: input.Headline,
		Rating:   input.Rating,
		Body:     input.Body,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	s.publishReviewCreated(ctx, viewer, ticket, review)
	return review, nil
}

// CreateStandaloneReview creates a ticket and its review as one atomic
// action. A validation failure on either part leaves nothing persisted;
// a mid-write failure rolls the ticket back.
func (s *PostService) CreateStandaloneReview(ctx context.Context, viewer *domain.User, ticketInput TicketInput, reviewInput ReviewInput) (*domain.Ticket, *domain.Review, error) {
	ticketInput.Title = strings.TrimSpace(ticketInput.Title)
	ticketInput.Description = strings.TrimSpace(ticketInput.Description)
	if err := s.validateTicketInput(ctx, viewer.ID, ticketInput, ""); err != nil {
		return nil, nil, err
	}
	if err := validateReviewInput(&reviewInput); err != nil {
		return nil, nil, err
	}

	ticket := &domain.Ticket{
		OwnerID:     viewer.ID,
		Title:       ticketInput.Title,
		Description: ticketInput.Description,
	}
	if ticketInput.Image != nil {
		path, err := s.saveImage(viewer.ID, ticketInput.Image)
		if err != nil {
			return nil, nil, err
		}
		ticket.ImagePath = &path
	}

	review := &domain.Review{
		OwnerID:  viewer.ID,
		Headline: reviewInput.Headline,
		Rating:   reviewInput.Rating,
		Body:     reviewInput.Body,
	}
	if err := s.reviews.CreateStandalone(ctx, ticket, review); err != nil {
		s.removeImage(ticket.ImagePath)
		return nil, nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketCreated,
		ActorID: viewer.ID,
		Payload: events.TicketPayload{TicketID: ticket.ID, Title: ticket.Title},
	})
	s.publishReviewCreated(ctx, viewer, ticket, review)
	return ticket, review, nil
}

// UpdateReview applies field updates to an owned review.
func (s *PostService) UpdateReview(ctx context.Context, viewer *domain.User, reviewID string, input ReviewInput) (*domain.Review, error) {
	review, err := s.ownedReview(ctx, viewer.ID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := validateReviewInput(&input); err != nil {
		return nil, err
	}

	review.Headline = input.Headline
	review.Rating = input.Rating
	review.Body = input.Body
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes an owned review.
func (s *PostService) DeleteReview(ctx context.Context, viewer *domain.User, reviewID string) error {
	review, err := s.ownedReview(ctx, viewer.ID, reviewID)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventReviewDeleted,
		ActorID: viewer.ID,
		Payload: events.ReviewPayload{
			ReviewID:      review.ID,
			TicketID:      review.TicketID,
			Headline:      review.Headline,
			Rating:        review.Rating,
			ActorUsername: viewer.Username,
		},
	})
	return nil
}

// ListOwnPosts merges the viewer's tickets and reviews into one
// timeline, newest first.
func (s *PostService) ListOwnPosts(ctx context.Context, viewer *domain.User) ([]domain.Post, error) {
	tickets, err := s.tickets.ListByOwners(ctx, []string{viewer.ID})
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByOwners(ctx, []string{viewer.ID})
	if err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(tickets)+len(reviews))
	for i := range tickets {
		posts = append(posts, domain.TicketPost(&tickets[i]))
	}
	for i := range reviews {
		posts = append(posts, domain.ReviewPost(&reviews[i]))
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt().After(posts[j].CreatedAt())
	})
	return posts, nil
}

func (s *PostService) validateTicketInput(ctx context.Context, ownerID string, input TicketInput, excludeTicketID string) error {
	if input.Title == "" {
		return apperrors.NewValidationError("title required", nil)
	}
	if len(input.Title) > titleMaxLen {
		return apperrors.NewValidationError(fmt.Sprintf("title exceeds %d characters", titleMaxLen), nil)
	}
	if len(input.Description) > descriptionMaxLen {
		return apperrors.NewValidationError(fmt.Sprintf("description exceeds %d characters", descriptionMaxLen), nil)
	}
	if input.Image != nil {
		if err := media.ValidateExtension(input.Image.Filename); err != nil {
			return err
		}
	}

	exists, err := s.tickets.ExistsByOwnerTitle(ctx, ownerID, input.Title, excludeTicketID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.NewValidationError("you already have a ticket with this title", map[string]any{"title": input.Title})
	}
	return nil
}

func validateReviewInput(input *ReviewInput) error {
	input.Headline = strings.TrimSpace(input.Headline)
	input.Body = strings.TrimSpace(input.Body)
	if input.Headline == "" {
		return apperrors.NewValidationError("headline required", nil)
	}
	if len(input.Headline) > headlineMaxLen {
		return apperrors.NewValidationError(fmt.Sprintf("headline exceeds %d characters", headlineMaxLen), nil)
	}
	if input.Rating < domain.RatingMin || input.Rating > domain.RatingMax {
		return apperrors.NewValidationError(
			fmt.Sprintf("rating must be between %d and %d", domain.RatingMin, domain.RatingMax),
			map[string]any{"rating": input.Rating},
		)
	}
	if len(input.Body) > reviewBodyMaxLen {
		return apperrors.NewValidationError(fmt.Sprintf("comment exceeds %d characters", reviewBodyMaxLen), nil)
	}
	return nil
}

func (s *PostService) ownedTicket(ctx context.Context, viewerID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	if ticket.OwnerID != viewerID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	return ticket, nil
}

func (s *PostService) ownedReview(ctx context.Context, viewerID, reviewID string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("review", map[string]any{"id": reviewID})
		}
		return nil, err
	}
	if review.OwnerID != viewerID {
		return nil, apperrors.NewNotFound("review", map[string]any{"id": reviewID})
	}
	return review, nil
}

func (s *PostService) saveImage(ownerID string, upload *ImageUpload) (string, error) {
	if s.store == nil {
		return "", apperrors.NewValidationError("image uploads not supported", nil)
	}
	return s.store.Save(ownerID, upload.Filename, upload.Data)
}

func (s *PostService) removeImage(path *string) {
	if s.store == nil || path == nil {
		return
	}
	_ = s.store.Remove(*path)
}

func (s *PostService) publishReviewCreated(ctx context.Context, viewer *domain.User, ticket *domain.Ticket, review *domain.Review) {
	s.publishEvent(ctx, events.Event{
		Type:    events.EventReviewCreated,
		ActorID: viewer.ID,
		Payload: events.ReviewPayload{
			ReviewID:      review.ID,
			TicketID:      ticket.ID,
			TicketOwnerID: ticket.OwnerID,
			Headline:      review.Headline,
			Rating:        review.Rating,
			ActorUsername: viewer.Username,
		},
	})
}

func (s *PostService) publishEvent(ctx context.Context, event events.Event) {
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
