package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"slipalert-service/internal/models"
)

// ListSubscribers returns every subscriber. Fan-out loads the full set; the
// subscriber base is a few thousand phones at most.
func (d *DB) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	query := `SELECT id, phone, area, hour, language, join_date FROM subscribers ORDER BY id`
	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		var s models.Subscriber
		if err := rows.Scan(&s.ID, &s.Phone, &s.Area, &s.Hour, &s.Language, &s.JoinDate); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// GetSubscriberByPhone fetches one subscriber by phone number.
func (d *DB) GetSubscriberByPhone(ctx context.Context, phone string) (models.Subscriber, error) {
	var s models.Subscriber
	query := `SELECT id, phone, area, hour, language, join_date FROM subscribers WHERE phone = $1`
	err := d.Pool.QueryRow(ctx, query, phone).Scan(&s.ID, &s.Phone, &s.Area, &s.Hour, &s.Language, &s.JoinDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscriber{}, ErrNotFound
		}
		return models.Subscriber{}, fmt.Errorf("failed to get subscriber %s: %w", phone, err)
	}
	return s, nil
}

// CreateSubscriber inserts a subscriber. A concurrent duplicate registration
// for the same phone is silently ignored by the unique constraint.
func (d *DB) CreateSubscriber(ctx context.Context, s models.Subscriber) error {
	query := `
        INSERT INTO subscribers (phone, area, hour, language)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (phone) DO NOTHING`
	_, err := d.Pool.Exec(ctx, query, s.Phone, s.Area, s.Hour, s.Language)
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	return nil
}

// DeleteSubscriberByPhone removes a subscriber entirely.
func (d *DB) DeleteSubscriberByPhone(ctx context.Context, phone string) error {
	_, err := d.Pool.Exec(ctx, `DELETE FROM subscribers WHERE phone = $1`, phone)
	if err != nil {
		return fmt.Errorf("failed to delete subscriber %s: %w", phone, err)
	}
	return nil
}
