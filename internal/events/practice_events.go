package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents different types of practice events
type EventType string

const (
	// Session events
	EventSessionCompleted EventType = "session.completed"
	EventSessionStopped   EventType = "session.stopped"
	EventSessionExpired   EventType = "session.expired"
)

// PracticeEvent is the base event structure for all practice events
type PracticeEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

// Session event payloads

type SessionCompletedEvent struct {
	UserID      string    `json:"user_id"`
	Exam        string    `json:"exam"`
	Subject     string    `json:"subject"`
	Mode        string    `json:"mode"`
	Scope       string    `json:"scope,omitempty"`
	Total       int       `json:"total"`
	Correct     int       `json:"correct"`
	Accuracy    float64   `json:"accuracy"`
	DurationSec int       `json:"duration_sec"`
	CompletedAt time.Time `json:"completed_at"`
}

type SessionStoppedEvent struct {
	UserID     string    `json:"user_id"`
	Exam       string    `json:"exam"`
	Subject    string    `json:"subject"`
	Mode       string    `json:"mode"`
	Answered   int       `json:"answered"`
	Correct    int       `json:"correct"`
	QueueTotal int       `json:"queue_total"`
	StoppedAt  time.Time `json:"stopped_at"`
}

type SessionExpiredEvent struct {
	UserID    string    `json:"user_id"`
	Stage     string    `json:"stage"`
	ExpiredAt time.Time `json:"expired_at"`
}

// Event factory functions

func NewSessionCompletedEvent(data SessionCompletedEvent) *PracticeEvent {
	return &PracticeEvent{
		ID:        watermill.NewUUID(),
		Type:      EventSessionCompleted,
		Timestamp: time.Now(),
		Source:    "practice-service",
		Version:   "1.0",
		Data:      data,
	}
}

func NewSessionStoppedEvent(data SessionStoppedEvent) *PracticeEvent {
	return &PracticeEvent{
		ID:        watermill.NewUUID(),
		Type:      EventSessionStopped,
		Timestamp: time.Now(),
		Source:    "practice-service",
		Version:   "1.0",
		Data:      data,
	}
}

func NewSessionExpiredEvent(data SessionExpiredEvent) *PracticeEvent {
	return &PracticeEvent{
		ID:        watermill.NewUUID(),
		Type:      EventSessionExpired,
		Timestamp: time.Now(),
		Source:    "practice-service",
		Version:   "1.0",
		Data:      data,
	}
}
