package models

import "time"

// Inbound audit statuses, one per webhook outcome.
const (
	InboundRegistered        = "registered"
	InboundAlreadyRegistered = "already_registered"
	InboundUnsubscribed      = "unsubscribed"
	InboundIgnored           = "ignored"
	InboundError             = "error"
)

// InboundLog is one append-only audit row per received SMS.
type InboundLog struct {
	ID         int       `json:"id"`
	Phone      string    `json:"phone"`
	Message    string    `json:"message"`
	Status     string    `json:"status"`
	Error      *string   `json:"error"`
	ReceivedAt time.Time `json:"received_at"`
}
