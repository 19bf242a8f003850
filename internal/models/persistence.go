package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProfileRow is the storage shape for an AnalyticsProfile. The profile
// itself is an aggregate document, so it is stored as a JSON column rather
// than normalized tables; the aggregator owns its structure.
type ProfileRow struct {
	UserID    string         `json:"user_id" gorm:"primaryKey;size:64"`
	Data      datatypes.JSON `json:"data" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (ProfileRow) TableName() string {
	return "analytics_profiles"
}

// SessionSummaryRow is the durable record of one finished practice
// session, written on submit, queue completion and stop.
type SessionSummaryRow struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      string         `json:"user_id" gorm:"size:64;index;not null"`
	Exam        string         `json:"exam" gorm:"size:32;not null"`
	Subject     string         `json:"subject" gorm:"size:64;not null"`
	Mode        PracticeMode   `json:"mode" gorm:"size:16;not null"`
	Scope       string         `json:"scope" gorm:"size:64"`
	Total       int            `json:"total" gorm:"not null"`
	Correct     int            `json:"correct" gorm:"not null"`
	Accuracy    float64        `json:"accuracy" gorm:"not null"`
	Partial     bool           `json:"partial" gorm:"default:false"`
	Answers     datatypes.JSON `json:"answers"`
	CompletedAt time.Time      `json:"completed_at" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (SessionSummaryRow) TableName() string {
	return "session_summaries"
}
