package models

import (
	"time"
)

// Trend classifies the direction of a user's recent performance.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// KeyStats holds the incremental counters for one aggregation key
// (subject, subject|topic or subject|year).
type KeyStats struct {
	Attempts int `json:"attempts"`
	Correct  int `json:"correct"`
}

// Accuracy returns correct/attempts, or 0 for a key with no attempts.
// Callers must exclude zero-attempt keys from any ranking.
func (s KeyStats) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts)
}

// SessionRecord summarizes one completed (or stopped) practice session.
// The capped history of these records feeds trend classification.
type SessionRecord struct {
	Exam        string       `json:"exam"`
	Subject     string       `json:"subject"`
	Mode        PracticeMode `json:"mode"`
	Scope       string       `json:"scope,omitempty"`
	Total       int          `json:"total"`
	Correct     int          `json:"correct"`
	Accuracy    float64      `json:"accuracy"`
	DurationSec int64        `json:"duration_sec"`
	CompletedAt time.Time    `json:"completed_at"`
	Partial     bool         `json:"partial"`
}

// AnalyticsProfile is the durable, cross-session performance record for one
// user. Counters are updated incrementally as AnswerEvents arrive; the
// profile is never rebuilt from raw history on read.
type AnalyticsProfile struct {
	UserID         string               `json:"user_id"`
	FirstSeen      time.Time            `json:"first_seen"`
	LastActive     time.Time            `json:"last_active"`
	TotalSessions  int                  `json:"total_sessions"`
	TotalQuestions int                  `json:"total_questions"`
	TotalCorrect   int                  `json:"total_correct"`
	Subjects       map[string]*KeyStats `json:"subjects"`
	Topics         map[string]*KeyStats `json:"topics"`
	Years          map[string]*KeyStats `json:"years"`
	Sessions       []SessionRecord      `json:"sessions"`
}

// NewAnalyticsProfile returns an empty profile for a first-seen user.
func NewAnalyticsProfile(userID string, now time.Time) *AnalyticsProfile {
	return &AnalyticsProfile{
		UserID:     userID,
		FirstSeen:  now,
		LastActive: now,
		Subjects:   make(map[string]*KeyStats),
		Topics:     make(map[string]*KeyStats),
		Years:      make(map[string]*KeyStats),
	}
}

// TopicKey builds the composite key for (subject, topic) counters.
func TopicKey(subject, topic string) string { return subject + "|" + topic }

// YearKey builds the composite key for (subject, year) counters.
func YearKey(subject, year string) string { return subject + "|" + year }

// Apply folds a single answer event into the profile counters. O(1).
func (p *AnalyticsProfile) Apply(ev AnswerEvent) {
	p.LastActive = ev.AnsweredAt
	p.TotalQuestions++
	if ev.Correct {
		p.TotalCorrect++
	}
	bump(p.Subjects, ev.Subject, ev.Correct)
	if ev.Topic != "" {
		bump(p.Topics, TopicKey(ev.Subject, ev.Topic), ev.Correct)
	}
	if ev.Year != "" {
		bump(p.Years, YearKey(ev.Subject, ev.Year), ev.Correct)
	}
}

func bump(m map[string]*KeyStats, key string, correct bool) {
	stats, ok := m[key]
	if !ok {
		stats = &KeyStats{}
		m[key] = stats
	}
	stats.Attempts++
	if correct {
		stats.Correct++
	}
}
