package models

import "time"

// Warning statuses. A warning only ever moves active -> cancelled.
const (
	WarningStatusActive    = "active"
	WarningStatusCancelled = "cancelled"
)

// Warning is one hazard notice from the alert authority, keyed by the
// authority's own identifier.
type Warning struct {
	ID        string    `json:"id"`
	Area      string    `json:"area"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	OnsetAt   time.Time `json:"onset_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the warning can still produce sends at the given time.
func (w Warning) Active(now time.Time) bool {
	return w.Status == WarningStatusActive && w.ExpiresAt.After(now)
}

// WarningDetail is the per-language content of a warning. Details are
// replaced wholesale when the authority publishes an update.
type WarningDetail struct {
	ID          int      `json:"id"`
	WarningID   string   `json:"warning_id"`
	Lang        string   `json:"lang"`
	Event       string   `json:"event"`
	Headline    string   `json:"headline"`
	Description string   `json:"description"`
	Areas       []string `json:"areas"`
}
