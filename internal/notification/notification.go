// Package notification delivers user-facing notices about moderation outcomes.
// Delivery is fire-and-forget: callers never wait on it and failures are only logged.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type EventType string

const (
	SubmissionApproved   EventType = "submission.approved"
	SubmissionRejected   EventType = "submission.rejected"
	SubmissionNeedsInfo  EventType = "submission.needs-info"
	VerificationApproved EventType = "verification.approved"
	VerificationRejected EventType = "verification.rejected"
)

type Event struct {
	Type         EventType `json:"type"`
	RecipientID  string    `json:"recipientId"`
	SubmissionID string    `json:"submissionId,omitempty"`
	Title        string    `json:"title,omitempty"`
	Note         string    `json:"note,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// RedisNotifier publishes events as JSON on a pub/sub channel.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
}

func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error encoding notification: %w", err)
	}

	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("error publishing notification: %w", err)
	}
	return nil
}

// LogNotifier only logs, for deployments without Redis.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Info("notification",
		zap.String("type", string(event.Type)),
		zap.String("recipient", event.RecipientID),
		zap.String("submission", event.SubmissionID),
		zap.String("note", event.Note))
	return nil
}
