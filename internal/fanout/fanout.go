// Package fanout expands a newly-active warning into per-subscriber delivery
// jobs. Fan-out runs once per warning; the queue's (user_id, warning_id)
// uniqueness makes accidental re-runs harmless.
package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"slipalert-service/internal/area"
	"slipalert-service/internal/message"
	"slipalert-service/internal/models"
	"slipalert-service/internal/observability"
)

const insertChunkSize = 1000

type SubscriberStore interface {
	ListSubscribers(ctx context.Context) ([]models.Subscriber, error)
}

type JobStore interface {
	EnqueueJobs(ctx context.Context, jobs []models.DeliveryJob) (int64, error)
}

// Enqueuer computes and persists the delivery obligations of one warning.
type Enqueuer struct {
	subscribers SubscriberStore
	jobs        JobStore
	clock       clockwork.Clock
	loc         *time.Location
	logger      *logrus.Logger
	metrics     *observability.Metrics
}

func New(subscribers SubscriberStore, jobs JobStore, clock clockwork.Clock, loc *time.Location, logger *logrus.Logger, metrics *observability.Metrics) *Enqueuer {
	return &Enqueuer{
		subscribers: subscribers,
		jobs:        jobs,
		clock:       clock,
		loc:         loc,
		logger:      logger,
		metrics:     metrics,
	}
}

// EnqueueWarning schedules one SMS per subscriber whose area intersects the
// warning's areas and whose daily slot fits inside the warning's window.
func (e *Enqueuer) EnqueueWarning(ctx context.Context, w models.Warning, details []models.WarningDetail) error {
	subs, err := e.subscribers.ListSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load subscribers: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	areas := warningAreas(details)
	now := e.clock.Now()
	stamp := message.Stamp(now, e.loc)
	bodies := map[string]string{}

	var rows []models.DeliveryJob
	for _, sub := range subs {
		if !subscriberMatches(sub, areas) {
			continue
		}

		scheduledAt := now
		if !sub.Immediate() {
			next, err := nextRunAt(*sub.Hour, now, e.loc)
			if err != nil {
				e.logger.Warnf("Subscriber %d has malformed hour %q, sending immediately", sub.ID, *sub.Hour)
			} else {
				scheduledAt = next
			}
		}
		// Clamp into the warning's validity window.
		if scheduledAt.Before(w.OnsetAt) {
			scheduledAt = w.OnsetAt
		}
		if scheduledAt.After(w.ExpiresAt) {
			continue // the slot can never fire while the warning is valid
		}

		body, rendered := bodies[sub.Language]
		if !rendered {
			body = message.WarningBody(sub.Language, stamp)
			bodies[sub.Language] = body
		}

		rows = append(rows, models.DeliveryJob{
			WarningID:   w.ID,
			UserID:      sub.ID,
			Phone:       sub.Phone,
			Language:    sub.Language,
			Message:     body,
			ScheduledAt: scheduledAt,
		})
	}

	var inserted int64
	for start := 0; start < len(rows); start += insertChunkSize {
		end := min(start+insertChunkSize, len(rows))
		n, err := e.jobs.EnqueueJobs(ctx, rows[start:end])
		if err != nil {
			return fmt.Errorf("failed to enqueue jobs for warning %s: %w", w.ID, err)
		}
		inserted += n
	}

	e.metrics.JobsEnqueued.Add(float64(inserted))
	e.logger.Infof("Enqueued %d SMS jobs for warning %s (%d matching subscribers)", inserted, w.ID, len(rows))
	return nil
}

// warningAreas collects the normalized area descriptions of every
// per-language block into one set. A subscriber is notified when any block
// covers their area; matching block-by-block would reach the same set of
// subscribers through the queue's (user_id, warning_id) dedup.
func warningAreas(details []models.WarningDetail) map[string]struct{} {
	set := map[string]struct{}{}
	for _, detail := range details {
		for _, desc := range detail.Areas {
			set[area.Normalize(desc)] = struct{}{}
		}
	}
	return set
}

// subscriberMatches tests the subscriber's self-reported area for region
// overlap with the warning.
func subscriberMatches(sub models.Subscriber, areas map[string]struct{}) bool {
	subArea := area.Normalize(sub.Area)
	for warningArea := range areas {
		if area.Match(warningArea, subArea) {
			return true
		}
	}
	return false
}

// nextRunAt finds the next wall-clock instant, strictly after now in the
// service's home timezone, at which local time equals the subscriber's slot.
func nextRunAt(hour string, now time.Time, loc *time.Location) (time.Time, error) {
	slot, err := time.Parse("15:04", hour)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour %q: %w", hour, err)
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), slot.Hour(), slot.Minute(), 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
