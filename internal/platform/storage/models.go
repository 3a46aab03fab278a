package storage

import (
	"time"

	"gorm.io/datatypes"
)

// AnalysisRecord persists one completed analysis. Payload holds the JSON encoded
// result so the schema does not track scorer fields.
type AnalysisRecord struct {
	ID        string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Kind      string         `gorm:"index;not null" json:"kind"`
	Subject   string         `gorm:"type:varchar(512)" json:"subject"`
	RiskScore int            `gorm:"not null" json:"risk_score"`
	Flagged   bool           `gorm:"not null" json:"flagged"`
	Payload   datatypes.JSON `gorm:"not null" json:"payload"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	ExpiresAt *time.Time     `gorm:"index" json:"expires_at,omitempty"`
}

func (AnalysisRecord) TableName() string {
	return "analysis_records"
}
