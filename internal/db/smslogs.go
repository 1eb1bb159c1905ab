package db

import (
	"context"
	"fmt"

	"slipalert-service/internal/models"
)

// InsertInboundLog appends one audit row for a received SMS. Rows are never
// updated or deleted.
func (d *DB) InsertInboundLog(ctx context.Context, entry models.InboundLog) error {
	query := `
        INSERT INTO sms_logs (phone, message, status, error)
        VALUES ($1, $2, $3, $4)`
	_, err := d.Pool.Exec(ctx, query, entry.Phone, entry.Message, entry.Status, entry.Error)
	if err != nil {
		return fmt.Errorf("failed to insert inbound log: %w", err)
	}
	return nil
}

// ListInboundLogs returns recent audit rows, newest first.
func (d *DB) ListInboundLogs(ctx context.Context, limit, offset int) ([]models.InboundLog, error) {
	query := `
        SELECT id, phone, message, status, error, received_at
        FROM sms_logs
        ORDER BY received_at DESC
        LIMIT $1 OFFSET $2`
	rows, err := d.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbound logs: %w", err)
	}
	defer rows.Close()

	var logs []models.InboundLog
	for rows.Next() {
		var entry models.InboundLog
		if err := rows.Scan(&entry.ID, &entry.Phone, &entry.Message, &entry.Status, &entry.Error, &entry.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inbound log: %w", err)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
