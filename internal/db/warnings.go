package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"slipalert-service/internal/models"
)

// CreateWarning inserts a new warning record.
func (d *DB) CreateWarning(ctx context.Context, w models.Warning) error {
	query := `
        INSERT INTO warnings (id, area, status, created_at, onset_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := d.Pool.Exec(ctx, query, w.ID, w.Area, w.Status, w.CreatedAt, w.OnsetAt, w.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create warning: %w", err)
	}
	return nil
}

// GetWarning fetches one warning by its external identifier.
func (d *DB) GetWarning(ctx context.Context, id string) (models.Warning, error) {
	var w models.Warning
	query := `
        SELECT id, area, status, created_at, onset_at, expires_at
        FROM warnings
        WHERE id = $1`
	err := d.Pool.QueryRow(ctx, query, id).Scan(&w.ID, &w.Area, &w.Status, &w.CreatedAt, &w.OnsetAt, &w.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Warning{}, ErrNotFound
		}
		return models.Warning{}, fmt.Errorf("failed to get warning %s: %w", id, err)
	}
	return w, nil
}

// UpdateWarningWindow rewrites the mutable fields of a warning on an Update alert.
func (d *DB) UpdateWarningWindow(ctx context.Context, id, area string, onsetAt, expiresAt time.Time) error {
	query := `
        UPDATE warnings
        SET area = $2, onset_at = $3, expires_at = $4
        WHERE id = $1`
	result, err := d.Pool.Exec(ctx, query, id, area, onsetAt, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to update warning %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelWarning moves a warning to cancelled. The transition is one way.
func (d *DB) CancelWarning(ctx context.Context, id string) error {
	query := `UPDATE warnings SET status = $2 WHERE id = $1`
	result, err := d.Pool.Exec(ctx, query, id, models.WarningStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel warning %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasActiveWarning reports whether any warning is active and unexpired.
func (d *DB) HasActiveWarning(ctx context.Context, now time.Time) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM warnings WHERE status = $1 AND expires_at > $2`
	if err := d.Pool.QueryRow(ctx, query, models.WarningStatusActive, now).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count active warnings: %w", err)
	}
	return count > 0, nil
}

// GetWarningsByIDs fetches the warnings referenced by a set of identifiers.
func (d *DB) GetWarningsByIDs(ctx context.Context, ids []string) ([]models.Warning, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
        SELECT id, area, status, created_at, onset_at, expires_at
        FROM warnings
        WHERE id = ANY($1)`
	rows, err := d.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get warnings by ids: %w", err)
	}
	defer rows.Close()
	return scanWarnings(rows)
}

// ListWarnings returns recent warnings, newest first.
func (d *DB) ListWarnings(ctx context.Context, limit, offset int) ([]models.Warning, error) {
	query := `
        SELECT id, area, status, created_at, onset_at, expires_at
        FROM warnings
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`
	rows, err := d.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list warnings: %w", err)
	}
	defer rows.Close()
	return scanWarnings(rows)
}

// ListActiveWarnings returns warnings that can still produce sends.
func (d *DB) ListActiveWarnings(ctx context.Context, now time.Time) ([]models.Warning, error) {
	query := `
        SELECT id, area, status, created_at, onset_at, expires_at
        FROM warnings
        WHERE status = $1 AND expires_at > $2
        ORDER BY created_at DESC`
	rows, err := d.Pool.Query(ctx, query, models.WarningStatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active warnings: %w", err)
	}
	defer rows.Close()
	return scanWarnings(rows)
}

func scanWarnings(rows pgx.Rows) ([]models.Warning, error) {
	var warnings []models.Warning
	for rows.Next() {
		var w models.Warning
		if err := rows.Scan(&w.ID, &w.Area, &w.Status, &w.CreatedAt, &w.OnsetAt, &w.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		warnings = append(warnings, w)
	}
	return warnings, rows.Err()
}

// ReplaceWarningDetails swaps out all per-language detail rows for a warning.
// Details are replace-all on Update, so this runs in one transaction.
func (d *DB) ReplaceWarningDetails(ctx context.Context, warningID string, details []models.WarningDetail) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin details transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM warning_details WHERE warning_id = $1`, warningID); err != nil {
		return fmt.Errorf("failed to delete old details: %w", err)
	}
	for _, detail := range details {
		_, err := tx.Exec(ctx, `
            INSERT INTO warning_details (warning_id, lang, event, headline, description, area_desc)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			warningID, detail.Lang, detail.Event, detail.Headline, detail.Description, detail.Areas)
		if err != nil {
			return fmt.Errorf("failed to insert detail: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// GetWarningDetails returns the per-language detail rows of a warning.
func (d *DB) GetWarningDetails(ctx context.Context, warningID string) ([]models.WarningDetail, error) {
	query := `
        SELECT id, warning_id, lang, event, headline, description, area_desc
        FROM warning_details
        WHERE warning_id = $1
        ORDER BY id`
	rows, err := d.Pool.Query(ctx, query, warningID)
	if err != nil {
		return nil, fmt.Errorf("failed to get warning details: %w", err)
	}
	defer rows.Close()

	var details []models.WarningDetail
	for rows.Next() {
		var detail models.WarningDetail
		var headline *string
		if err := rows.Scan(&detail.ID, &detail.WarningID, &detail.Lang, &detail.Event, &headline, &detail.Description, &detail.Areas); err != nil {
			return nil, fmt.Errorf("failed to scan warning detail: %w", err)
		}
		if headline != nil {
			detail.Headline = *headline
		}
		details = append(details, detail)
	}
	return details, rows.Err()
}
