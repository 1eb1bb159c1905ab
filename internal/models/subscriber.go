package models

import "time"

// Subscriber is one phone number registered for warnings.
// Hour is "HH:00" in Europe/Helsinki local time; nil means send immediately.
type Subscriber struct {
	ID       int       `json:"id"`
	Phone    string    `json:"phone"`
	Area     string    `json:"area"`
	Hour     *string   `json:"hour"`
	Language string    `json:"language"`
	JoinDate time.Time `json:"join_date"`
}

// Immediate reports whether the subscriber has no preferred daily slot.
func (s Subscriber) Immediate() bool {
	return s.Hour == nil || *s.Hour == ""
}
