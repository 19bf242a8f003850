package models

import (
	"sort"
	"time"
)

// PracticeMode determines how a practice queue is sourced.
type PracticeMode string

const (
	ModeTopic     PracticeMode = "topic"
	ModeYear      PracticeMode = "year"
	ModeMixed     PracticeMode = "mixed"
	ModeWeakAreas PracticeMode = "weak_areas"
)

func (m PracticeMode) Valid() bool {
	switch m {
	case ModeTopic, ModeYear, ModeMixed, ModeWeakAreas:
		return true
	}
	return false
}

// NeedsScope reports whether the mode requires a topic or year selection
// before questions can be fetched.
func (m PracticeMode) NeedsScope() bool {
	return m == ModeTopic || m == ModeYear
}

// QuestionRecord is an immutable past-exam question as delivered by a
// question provider. Options maps answer labels ("A".."D") to option text.
type QuestionRecord struct {
	ID           string            `json:"id"`
	Exam         string            `json:"exam"`
	Subject      string            `json:"subject"`
	Topic        string            `json:"topic,omitempty"`
	Year         string            `json:"year,omitempty"`
	Prompt       string            `json:"prompt"`
	Options      map[string]string `json:"options"`
	CorrectLabel string            `json:"correct_label"`
	Explanation  string            `json:"explanation,omitempty"`
}

// HasOption reports whether label identifies one of the question's options.
// Labels are matched case-insensitively by the caller; stored labels are
// upper-case.
func (q *QuestionRecord) HasOption(label string) bool {
	_, ok := q.Options[label]
	return ok
}

// OptionLabels returns the option labels in stable alphabetical order.
func (q *QuestionRecord) OptionLabels() []string {
	labels := make([]string, 0, len(q.Options))
	for label := range q.Options {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// AnswerEvent records a single graded answer. Append-only; it is the sole
// write path into the analytics profile.
type AnswerEvent struct {
	QuestionID    string    `json:"question_id"`
	Exam          string    `json:"exam"`
	Subject       string    `json:"subject"`
	Topic         string    `json:"topic,omitempty"`
	Year          string    `json:"year,omitempty"`
	SelectedLabel string    `json:"selected_label"`
	Correct       bool      `json:"correct"`
	AnsweredAt    time.Time `json:"answered_at"`
	TimeTakenMs   int64     `json:"time_taken_ms"`
}

// NewAnswerEvent grades the selected label against the question and returns
// the resulting event.
func NewAnswerEvent(q *QuestionRecord, selected string, answeredAt time.Time, timeTaken time.Duration) AnswerEvent {
	return AnswerEvent{
		QuestionID:    q.ID,
		Exam:          q.Exam,
		Subject:       q.Subject,
		Topic:         q.Topic,
		Year:          q.Year,
		SelectedLabel: selected,
		Correct:       selected == q.CorrectLabel,
		AnsweredAt:    answeredAt,
		TimeTakenMs:   timeTaken.Milliseconds(),
	}
}
