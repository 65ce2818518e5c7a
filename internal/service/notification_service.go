package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/review-feed/internal/events"
)

const notificationCap = 100

// Notification is a user-facing entry derived from a domain event.
type Notification struct {
	Type      events.EventType `json:"type"`
	Message   string           `json:"message"`
	ActorID   string           `json:"actor_id"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationService stores per-user notifications in a capped Redis
// list, fed by domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	client     *redis.Client
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, client *redis.Client, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		client:     client,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserFollowed, n.handleUserFollowed)
	n.dispatcher.Subscribe(events.EventReviewCreated, n.handleReviewCreated)
}

// List returns the newest notifications for a user, most recent first.
func (n *NotificationService) List(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if n.client == nil {
		return []Notification{}, nil
	}
	if limit <= 0 || limit > notificationCap {
		limit = notificationCap
	}
	raw, err := n.client.LRange(ctx, notificationKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	result := make([]Notification, 0, len(raw))
	for _, entry := range raw {
		var notif Notification
		if err := json.Unmarshal([]byte(entry), &notif); err != nil {
			n.logger.Warn("dropping malformed notification", zap.Error(err))
			continue
		}
		result = append(result, notif)
	}
	return result, nil
}

func (n *NotificationService) handleUserFollowed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FollowPayload)
	if !ok {
		return nil
	}
	return n.push(ctx, payload.TargetUserID, Notification{
		Type:      event.Type,
		Message:   fmt.Sprintf("%s now follows you", payload.ActorUsername),
		ActorID:   event.ActorID,
		CreatedAt: event.Timestamp,
	})
}

func (n *NotificationService) handleReviewCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReviewPayload)
	if !ok {
		return nil
	}
	// No point telling users about their own reviews.
	if payload.TicketOwnerID == "" || payload.TicketOwnerID == event.ActorID {
		return nil
	}
	return n.push(ctx, payload.TicketOwnerID, Notification{
		Type:      event.Type,
		Message:   fmt.Sprintf("%s reviewed your ticket (%d/5): %s", payload.ActorUsername, payload.Rating, payload.Headline),
		ActorID:   event.ActorID,
		CreatedAt: event.Timestamp,
	})
}

func (n *NotificationService) push(ctx context.Context, userID string, notif Notification) error {
	if n.client == nil {
		return nil
	}
	data, err := json.Marshal(notif)
	if err != nil {
		return err
	}
	key := notificationKey(userID)
	pipe := n.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, notificationCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		n.logger.Warn("failed to store notification", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func notificationKey(userID string) string {
	return "notifications:" + userID
}
