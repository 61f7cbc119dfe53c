package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"consult-system/internal/events"
)

// NotificationChannel — канал Redis Pub/Sub, который слушают доставщики
// (почта, мессенджеры, websocket-шлюз). Сам сервис каналов доставки не
// знает: его ответственность заканчивается на публикации.
const NotificationChannel = "consults:notifications"

type NotificationServiceInterface interface {
	Notify(ctx context.Context, event events.ConsultTransitionEvent) error
}

// NotificationService пишет уведомление в журнал и публикует его в Redis.
// Доставка at-least-once: потребители дедуплицируют по event_id.
type NotificationService struct {
	client *redis.Client
	logger *zap.Logger
}

func NewNotificationService(client *redis.Client, logger *zap.Logger) NotificationServiceInterface {
	return &NotificationService{client: client, logger: logger}
}

func (s *NotificationService) Notify(ctx context.Context, event events.ConsultTransitionEvent) error {
	if len(event.RecipientIDs) == 0 {
		return nil
	}

	s.logger.Info("уведомление о переходе консультации",
		zap.String("event_id", event.EventID),
		zap.Uint64("consult_id", event.ConsultID),
		zap.String("kind", event.Kind),
		zap.String("new_status", event.NewStatus),
		zap.Uint64s("recipient_ids", event.RecipientIDs),
	)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка сериализации уведомления: %w", err)
	}
	if err := s.client.Publish(ctx, NotificationChannel, payload).Err(); err != nil {
		return fmt.Errorf("ошибка публикации уведомления в Redis: %w", err)
	}
	return nil
}
