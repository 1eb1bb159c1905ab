package models

import "time"

// Delivery job statuses. A job leaves pending exactly once.
const (
	JobStatusPending   = "pending"
	JobStatusSent      = "sent"
	JobStatusError     = "error"
	JobStatusCancelled = "cancelled"
)

// DeliveryJob is one queued SMS obligation for a (subscriber, warning) pair.
// The sms_queue table enforces uniqueness on (user_id, warning_id), which is
// what makes repeated fan-out for the same warning safe.
type DeliveryJob struct {
	ID               int64      `json:"id"`
	WarningID        string     `json:"warning_id"`
	UserID           int        `json:"user_id"`
	Phone            string     `json:"phone"`
	Language         string     `json:"language"`
	Message          string     `json:"message"`
	ScheduledAt      time.Time  `json:"scheduled_at"`
	SentAt           *time.Time `json:"sent_at"`
	Status           string     `json:"status"`
	Attempts         int        `json:"attempts"`
	LastError        *string    `json:"last_error"`
	GatewayMessageID *string    `json:"gateway_message_id"`
}

// SentReceipt records one successfully delivered job.
type SentReceipt struct {
	JobID            int64
	SentAt           time.Time
	GatewayMessageID *string
}
