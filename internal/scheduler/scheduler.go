// Package scheduler drains the SMS delivery queue: it picks up due jobs,
// re-validates them against their warnings, groups identical messages into
// gateway batches and applies the retry/backoff policy on failures.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"slipalert-service/internal/gateway"
	"slipalert-service/internal/models"
	"slipalert-service/internal/observability"
)

const cancelledReason = "warning cancelled/expired"

// backoffDelays is the retry schedule per failed attempt; attempts beyond the
// table reuse the final value.
var backoffDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	60 * time.Minute,
}

type JobStore interface {
	FetchDueJobs(ctx context.Context, now time.Time, limit int) ([]models.DeliveryJob, error)
	MarkJobsSent(ctx context.Context, receipts []models.SentReceipt) error
	RecordJobFailure(ctx context.Context, id int64, attempts int, lastError string, nextAttempt *time.Time) error
	CancelJobs(ctx context.Context, ids []int64, reason string) error
}

type WarningStore interface {
	GetWarningsByIDs(ctx context.Context, ids []string) ([]models.Warning, error)
}

type Sender interface {
	SendBulk(ctx context.Context, message string, phones []string) (gateway.SendResult, error)
}

// Scheduler processes the delivery queue one tick at a time.
type Scheduler struct {
	jobs        JobStore
	warnings    WarningStore
	sender      Sender
	clock       clockwork.Clock
	logger      *logrus.Logger
	metrics     *observability.Metrics
	fetchLimit  int
	maxBatch    int
	maxAttempts int
}

func New(jobs JobStore, warnings WarningStore, sender Sender, clock clockwork.Clock, logger *logrus.Logger, metrics *observability.Metrics, fetchLimit, maxBatch, maxAttempts int) *Scheduler {
	return &Scheduler{
		jobs:        jobs,
		warnings:    warnings,
		sender:      sender,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
		fetchLimit:  fetchLimit,
		maxBatch:    maxBatch,
		maxAttempts: maxAttempts,
	}
}

type groupKey struct {
	language string
	message  string
}

// Tick runs one pass over the due jobs.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.clock.Now()

	due, err := s.jobs.FetchDueJobs(ctx, now, s.fetchLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch due jobs: %w", err)
	}
	if len(due) == 0 {
		s.logger.Debug("No due jobs")
		return nil
	}

	sendable, err := s.dropInvalidated(ctx, due, now)
	if err != nil {
		return err
	}
	if len(sendable) == 0 {
		s.logger.Info("Nothing to send after filtering cancelled/expired warnings")
		return nil
	}

	// Subscribers sharing a language share the exact rendered text, so this
	// typically collapses to one group per language.
	groups := map[groupKey][]models.DeliveryJob{}
	for _, job := range sendable {
		key := groupKey{language: job.Language, message: job.Message}
		groups[key] = append(groups[key], job)
	}

	for key, jobs := range groups {
		for start := 0; start < len(jobs); start += s.maxBatch {
			end := min(start+s.maxBatch, len(jobs))
			// Batches are independent: one failed gateway call must not block
			// the other batches of this tick.
			s.sendBatch(ctx, key, jobs[start:end], now)
		}
	}
	return nil
}

// dropInvalidated cancels due jobs whose warning is no longer active or has
// expired. This is the send-time validity check, separate from the one at
// enqueue time.
func (s *Scheduler) dropInvalidated(ctx context.Context, due []models.DeliveryJob, now time.Time) ([]models.DeliveryJob, error) {
	idSet := map[string]bool{}
	var warningIDs []string
	for _, job := range due {
		if !idSet[job.WarningID] {
			idSet[job.WarningID] = true
			warningIDs = append(warningIDs, job.WarningID)
		}
	}

	warnings, err := s.warnings.GetWarningsByIDs(ctx, warningIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load warnings for due jobs: %w", err)
	}
	valid := map[string]bool{}
	for _, w := range warnings {
		if w.Active(now) {
			valid[w.ID] = true
		}
	}

	var sendable []models.DeliveryJob
	var stale []int64
	for _, job := range due {
		if valid[job.WarningID] {
			sendable = append(sendable, job)
		} else {
			stale = append(stale, job.ID)
		}
	}
	if len(stale) > 0 {
		if err := s.jobs.CancelJobs(ctx, stale, cancelledReason); err != nil {
			return nil, err
		}
		s.metrics.JobsCancelled.Add(float64(len(stale)))
		s.logger.Infof("Cancelled %d jobs whose warning is gone", len(stale))
	}
	return sendable, nil
}

func (s *Scheduler) sendBatch(ctx context.Context, key groupKey, batch []models.DeliveryJob, now time.Time) {
	phones := make([]string, 0, len(batch))
	for _, job := range batch {
		phones = append(phones, job.Phone)
	}

	result, err := s.sender.SendBulk(ctx, key.message, phones)
	if err != nil {
		s.metrics.GatewayCalls.WithLabelValues("failure").Inc()
		s.logger.Errorf("Gateway send failed for %d recipients (%s): %v", len(batch), key.language, err)
		s.recordFailures(ctx, batch, err, now)
		return
	}
	s.metrics.GatewayCalls.WithLabelValues("success").Inc()

	receipts := make([]models.SentReceipt, 0, len(batch))
	for i, job := range batch {
		receipt := models.SentReceipt{JobID: job.ID, SentAt: now}
		if len(result.MessageIDs) == len(batch) {
			id := fmt.Sprintf("%d", result.MessageIDs[i])
			receipt.GatewayMessageID = &id
		}
		receipts = append(receipts, receipt)
	}
	if err := s.jobs.MarkJobsSent(ctx, receipts); err != nil {
		s.logger.Errorf("Failed to mark %d jobs sent: %v", len(batch), err)
		return
	}
	s.metrics.JobsSent.Add(float64(len(batch)))
	s.logger.Infof("Sent %d SMS (%s)", len(batch), key.language)
}

func (s *Scheduler) recordFailures(ctx context.Context, batch []models.DeliveryJob, sendErr error, now time.Time) {
	for _, job := range batch {
		attempts := job.Attempts + 1
		var nextAttempt *time.Time
		if attempts < s.maxAttempts {
			next := now.Add(backoffDelay(attempts))
			nextAttempt = &next
		} else {
			s.metrics.JobsFailed.Inc()
			s.logger.Errorf("Job %d exhausted %d attempts, giving up", job.ID, attempts)
		}
		if err := s.jobs.RecordJobFailure(ctx, job.ID, attempts, sendErr.Error(), nextAttempt); err != nil {
			s.logger.Errorf("Failed to record failure for job %d: %v", job.ID, err)
		}
	}
}

// backoffDelay returns the wait before retry number attempts+1.
func backoffDelay(attempts int) time.Duration {
	idx := attempts - 1
	if idx >= len(backoffDelays) {
		idx = len(backoffDelays) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return backoffDelays[idx]
}
