package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"slipalert-service/internal/models"
)

// EnqueueJobs inserts delivery jobs with insert-or-ignore semantics on
// (user_id, warning_id). Re-running fan-out for the same warning therefore
// never duplicates obligations. Returns the number of rows actually inserted.
func (d *DB) EnqueueJobs(ctx context.Context, jobs []models.DeliveryJob) (int64, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	query := `
        INSERT INTO sms_queue (warning_id, user_id, phone, language, message, scheduled_at, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (user_id, warning_id) DO NOTHING`
	for _, job := range jobs {
		batch.Queue(query, job.WarningID, job.UserID, job.Phone, job.Language, job.Message, job.ScheduledAt, models.JobStatusPending)
	}

	results := d.Pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range jobs {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to enqueue job: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// FetchDueJobs returns up to limit pending jobs whose slot has arrived.
func (d *DB) FetchDueJobs(ctx context.Context, now time.Time, limit int) ([]models.DeliveryJob, error) {
	query := `
        SELECT id, warning_id, user_id, phone, language, message, scheduled_at,
               sent_at, status, attempts, last_error, gateway_message_id
        FROM sms_queue
        WHERE status = $1 AND scheduled_at <= $2
        ORDER BY scheduled_at
        LIMIT $3`
	rows, err := d.Pool.Query(ctx, query, models.JobStatusPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.DeliveryJob
	for rows.Next() {
		var job models.DeliveryJob
		err := rows.Scan(
			&job.ID, &job.WarningID, &job.UserID, &job.Phone, &job.Language,
			&job.Message, &job.ScheduledAt, &job.SentAt, &job.Status,
			&job.Attempts, &job.LastError, &job.GatewayMessageID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkJobsSent finalizes delivered jobs, propagating per-recipient gateway
// message ids when the gateway supplied them.
func (d *DB) MarkJobsSent(ctx context.Context, receipts []models.SentReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
        UPDATE sms_queue
        SET status = $2, sent_at = $3, last_error = NULL, gateway_message_id = $4
        WHERE id = $1`
	for _, r := range receipts {
		batch.Queue(query, r.JobID, models.JobStatusSent, r.SentAt, r.GatewayMessageID)
	}
	results := d.Pool.SendBatch(ctx, batch)
	defer results.Close()
	for range receipts {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to mark job sent: %w", err)
		}
	}
	return nil
}

// RecordJobFailure bumps the attempt counter after a failed batch call.
// With a nextAttempt the job stays pending for that slot; without one it is
// terminal and needs operator attention.
func (d *DB) RecordJobFailure(ctx context.Context, id int64, attempts int, lastError string, nextAttempt *time.Time) error {
	status := models.JobStatusError
	if nextAttempt != nil {
		status = models.JobStatusPending
	}
	query := `
        UPDATE sms_queue
        SET attempts = $2, last_error = $3, status = $4,
            scheduled_at = COALESCE($5, scheduled_at)
        WHERE id = $1`
	_, err := d.Pool.Exec(ctx, query, id, attempts, lastError, status, nextAttempt)
	if err != nil {
		return fmt.Errorf("failed to record job failure: %w", err)
	}
	return nil
}

// CancelJobs cancels a specific set of jobs, recording why.
func (d *DB) CancelJobs(ctx context.Context, ids []int64, reason string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE sms_queue SET status = $2, last_error = $3 WHERE id = ANY($1)`
	_, err := d.Pool.Exec(ctx, query, ids, models.JobStatusCancelled, reason)
	if err != nil {
		return fmt.Errorf("failed to cancel jobs: %w", err)
	}
	return nil
}

// CancelJobsForSubscriber cancels every job of a subscriber that has not
// gone out yet. Used by the STOP cascade.
func (d *DB) CancelJobsForSubscriber(ctx context.Context, userID int, reason string) error {
	query := `
        UPDATE sms_queue
        SET status = $2, last_error = $3
        WHERE user_id = $1 AND (status IN ('pending', 'sending') OR sent_at IS NULL)`
	_, err := d.Pool.Exec(ctx, query, userID, models.JobStatusCancelled, reason)
	if err != nil {
		return fmt.Errorf("failed to cancel jobs for subscriber %d: %w", userID, err)
	}
	return nil
}
