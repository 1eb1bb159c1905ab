// Package inbound classifies SMS received from subscribers and applies the
// STOP and registration commands. Every inbound message leaves exactly one
// audit row, whatever its outcome.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"slipalert-service/internal/db"
	"slipalert-service/internal/message"
	"slipalert-service/internal/models"
	"slipalert-service/internal/observability"
	"slipalert-service/internal/timeparse"
)

const stopReason = "Unsubscribed via STOP"

// DefaultArea is recorded when a registration message names no area.
const DefaultArea = "Unknown"

// registrationLangs maps the language-selecting join keywords to the language
// the subscriber gets.
var registrationLangs = map[string]string{
	"join":  "en",
	"liity": "fi",
	"delta": "sv",
}

type SubscriberStore interface {
	GetSubscriberByPhone(ctx context.Context, phone string) (models.Subscriber, error)
	CreateSubscriber(ctx context.Context, s models.Subscriber) error
	DeleteSubscriberByPhone(ctx context.Context, phone string) error
}

type JobStore interface {
	CancelJobsForSubscriber(ctx context.Context, userID int, reason string) error
}

type AuditStore interface {
	InsertInboundLog(ctx context.Context, entry models.InboundLog) error
}

type Sender interface {
	SendOne(ctx context.Context, message, phone string) error
}

// Handler processes one inbound SMS at a time.
type Handler struct {
	subscribers SubscriberStore
	jobs        JobStore
	audit       AuditStore
	sender      Sender
	logger      *logrus.Logger
	metrics     *observability.Metrics
}

func New(subscribers SubscriberStore, jobs JobStore, audit AuditStore, sender Sender, logger *logrus.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{
		subscribers: subscribers,
		jobs:        jobs,
		audit:       audit,
		sender:      sender,
		logger:      logger,
		metrics:     metrics,
	}
}

// Handle applies the command in one inbound SMS and returns the audit status.
// The audit row is written after the command's side effects so it records the
// real outcome, errors included.
func (h *Handler) Handle(ctx context.Context, phone, text string) string {
	status, err := h.process(ctx, phone, text)

	entry := models.InboundLog{Phone: phone, Message: text, Status: status}
	if err != nil {
		h.logger.Errorf("Inbound message from %s failed: %v", phone, err)
		entry.Status = models.InboundError
		msg := err.Error()
		entry.Error = &msg
	}
	if logErr := h.audit.InsertInboundLog(ctx, entry); logErr != nil {
		h.logger.Errorf("Failed to write audit row for %s: %v", phone, logErr)
	}
	h.metrics.InboundMessages.WithLabelValues(entry.Status).Inc()
	return entry.Status
}

// process dispatches on the first whitespace token, case-insensitively.
func (h *Handler) process(ctx context.Context, phone, text string) (string, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return models.InboundIgnored, nil
	}

	command := strings.ToLower(tokens[0])
	if command == "stop" {
		return h.unsubscribe(ctx, phone)
	}
	if lang, ok := registrationLangs[command]; ok {
		return h.register(ctx, phone, lang, tokens[1:])
	}
	return models.InboundIgnored, nil
}

// unsubscribe removes the subscriber and cancels everything still queued for
// them, then confirms in the language they had.
func (h *Handler) unsubscribe(ctx context.Context, phone string) (string, error) {
	sub, err := h.subscribers.GetSubscriberByPhone(ctx, phone)
	if errors.Is(err, db.ErrNotFound) {
		// Unknown phone: nothing to tear down and no reply, but the audit
		// trail still records the message like every other inbound.
		return models.InboundIgnored, nil
	}
	if err != nil {
		return "", err
	}

	if err := h.subscribers.DeleteSubscriberByPhone(ctx, phone); err != nil {
		return "", err
	}
	if err := h.jobs.CancelJobsForSubscriber(ctx, sub.ID, stopReason); err != nil {
		return "", err
	}
	if err := h.sender.SendOne(ctx, message.StopConfirmation(sub.Language), phone); err != nil {
		return "", fmt.Errorf("failed to send stop confirmation: %w", err)
	}
	h.logger.Infof("Unsubscribed %s", phone)
	return models.InboundUnsubscribed, nil
}

// register creates a subscriber from "JOIN <area> <time expression>". A known
// phone is left untouched and gets no reply.
func (h *Handler) register(ctx context.Context, phone, lang string, args []string) (string, error) {
	_, err := h.subscribers.GetSubscriberByPhone(ctx, phone)
	if err == nil {
		return models.InboundAlreadyRegistered, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return "", err
	}

	area := DefaultArea
	if len(args) > 0 {
		area = args[0]
	}

	rest := ""
	if len(args) > 1 {
		rest = strings.Join(args[1:], " ")
	}

	var slot *string
	confirmation := message.ImmediateJoinConfirmation(lang, area)
	if hour, ok := timeparse.Parse(rest); ok {
		s := fmt.Sprintf("%02d:00", hour)
		slot = &s
		confirmation = message.JoinConfirmation(lang, area, s)
	}

	sub := models.Subscriber{Phone: phone, Area: area, Hour: slot, Language: lang}
	if err := h.subscribers.CreateSubscriber(ctx, sub); err != nil {
		return "", err
	}
	if err := h.sender.SendOne(ctx, confirmation, phone); err != nil {
		return "", fmt.Errorf("failed to send join confirmation: %w", err)
	}
	if slot != nil {
		h.logger.Infof("Registered %s (%s, %s, daily at %s)", phone, area, lang, *slot)
	} else {
		h.logger.Infof("Registered %s (%s, %s, immediate)", phone, area, lang)
	}
	return models.InboundRegistered, nil
}
