package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"herald/internal/models"
	"herald/internal/observability"
	"herald/internal/repository"

	"github.com/segmentio/kafka-go"
)

// TopicUserRegistered carries registrations from the user service.
const TopicUserRegistered = "user-registered"

const consumerGroupID = "announcement-board"

// UserEventsListener consumes user-registered events and maintains the
// local user projection the publish and comment entry points read from.
type UserEventsListener struct {
	reader *kafka.Reader
	users  repository.UserRepository
}

// NewUserEventsListener creates a listener over the given brokers.
func NewUserEventsListener(brokers []string, users repository.UserRepository) *UserEventsListener {
	return &UserEventsListener{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: consumerGroupID,
			Topic:   TopicUserRegistered,
		}),
		users: users,
	}
}

// Run consumes until the context is canceled. A malformed or unsavable
// event is logged and skipped; the projection tolerates gaps better than a
// stalled consumer.
func (l *UserEventsListener) Run(ctx context.Context) {
	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			observability.Logger.ErrorContext(ctx, "user events read failed",
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := l.ProcessMessage(ctx, msg.Value); err != nil {
			observability.Logger.ErrorContext(ctx, "user event dropped",
				slog.String("error", err.Error()),
			)
		}
	}
}

// ProcessMessage stores one user-registered event in the local projection.
func (l *UserEventsListener) ProcessMessage(ctx context.Context, value []byte) error {
	var user models.User
	if err := json.Unmarshal(value, &user); err != nil {
		return fmt.Errorf("unmarshal user event: %w", err)
	}
	if err := l.users.Save(ctx, &user); err != nil {
		return fmt.Errorf("save user %s: %w", user.ID, err)
	}
	observability.Logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID.String()),
	)
	return nil
}

// Close closes the underlying reader.
func (l *UserEventsListener) Close() error {
	return l.reader.Close()
}
