package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classhub/scoring-api/internal/dto"
	"github.com/classhub/scoring-api/internal/models"
	"github.com/classhub/scoring-api/internal/observability"
	"github.com/classhub/scoring-api/internal/repository"
)

// Notifier delivers grading and submission events to users. Delivery is
// fire-and-forget: failures are logged and swallowed so they never block a
// scoring result.
type Notifier interface {
	Notify(ctx context.Context, userID uint, eventType, message string)
}

// NotificationService persists notifications and fans them out to the
// message brokers.
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id uint, userID uint) (dto.NotificationResponse, error)
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationService struct {
	repo        repository.NotificationRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	nodeID      string
}

// NewNotificationService constructs a notification service. Both broker
// clients are optional; a nil client skips that transport.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) NotificationService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:        repo,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		nodeID:      uuid.NewString(),
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uint, eventType, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}

	model := models.Notification{
		UserID:  userID,
		Type:    eventType,
		Message: message,
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Str("type", eventType).Msg("failed to persist notification")
		return
	}

	response := dto.NewNotificationResponse(model)
	if err := s.publish(ctx, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notification event")
	}

	observability.NotificationsPublishedTotal().WithLabelValues(eventType).Inc()
}

func (s *notificationService) List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	if userID == 0 {
		return nil, errors.New("user id is required")
	}

	notifications, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uint, userID uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}
