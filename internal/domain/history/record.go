package history

import (
	"time"
)

// Kind identifies which scorer produced a record.
type Kind string

const (
	KindMedia Kind = "media"
	KindJob   Kind = "job"
)

// Record is one completed analysis as kept in history.
type Record struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	Label      string         `json:"label"`
	Flagged    bool           `json:"flagged"`
	RiskScore  int            `json:"risk_score"`
	Confidence float64        `json:"confidence"`
	Indicators []string       `json:"indicators,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Source     string         `json:"source,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
}

func (r Record) expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// stamp fills CreatedAt and, when ttl is positive, ExpiresAt.
func (r Record) stamp(now time.Time, ttl time.Duration) Record {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.CreatedAt = r.CreatedAt.UTC()
	if r.ExpiresAt == nil && ttl > 0 {
		exp := r.CreatedAt.Add(ttl)
		r.ExpiresAt = &exp
	}
	return r
}
