// Package events publishes warning lifecycle events to Kafka for downstream
// consumers (the web dashboard and statistics jobs live outside this service).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"slipalert-service/internal/models"
)

const (
	EventWarningCreated   = "warning_created"
	EventWarningUpdated   = "warning_updated"
	EventWarningCancelled = "warning_cancelled"
)

type warningEvent struct {
	Event     string    `json:"event"`
	WarningID string    `json:"warning_id"`
	Area      string    `json:"area"`
	Status    string    `json:"status"`
	OnsetAt   time.Time `json:"onset_at"`
	ExpiresAt time.Time `json:"expires_at"`
	At        time.Time `json:"at"`
}

// Publisher writes warning events to one topic, keyed by warning id so all
// events of a warning land on the same partition in order.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(broker, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish emits one lifecycle event for a warning.
func (p *Publisher) Publish(ctx context.Context, event string, w models.Warning) error {
	payload, err := json.Marshal(warningEvent{
		Event:     event,
		WarningID: w.ID,
		Area:      w.Area,
		Status:    w.Status,
		OnsetAt:   w.OnsetAt,
		ExpiresAt: w.ExpiresAt,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode warning event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(w.ID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish warning event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
