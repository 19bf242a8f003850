// Package session owns the per-user conversational state machine, the
// keyed session store and the message-handling engine that drives a
// practice run from exam selection through completion.
package session

import (
	"fmt"
	"time"

	"github.com/prepmate/practice-service/internal/models"
)

// Stage is the user's position in the conversational flow.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageSelectingExam    Stage = "selecting_exam"
	StageSelectingSubject Stage = "selecting_subject"
	StageSelectingMode    Stage = "selecting_mode"
	StageSelectingScope   Stage = "selecting_scope"
	StageTakingExam       Stage = "taking_exam"
	StageCompleted        Stage = "completed"
)

// Session is the live conversational state for one user. It is mutated
// only by the engine while holding the user's store lock.
type Session struct {
	UserID  string
	Stage   Stage
	Exam    string // internal exam name, e.g. "jamb"
	Subject string
	Mode    models.PracticeMode
	Scope   string // selected topic or year, empty for mixed/weak_areas

	// Queue is fixed once taking_exam is entered; only a full restart
	// replaces it. Cursor indexes the next unanswered question.
	Queue   []models.QuestionRecord
	Cursor  int
	Answers []models.AnswerEvent

	// History holds prior stages for "back" navigation. Rejected inputs
	// never push.
	History []Stage

	// Options is the option list presented at the current stage;
	// ordinal selections are validated against exactly this list.
	Options []string

	Paused bool

	StartedAt      time.Time
	LastActivity   time.Time
	QuestionAsked  time.Time // when the current question was surfaced
	DegradedNotice bool      // weak_areas request fell back to mixed
}

// NewSession returns a fresh session at exam selection.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:       userID,
		Stage:        StageSelectingExam,
		StartedAt:    now,
		LastActivity: now,
	}
}

// CurrentQuestion returns the next unanswered question, or nil when the
// queue is exhausted or not yet populated.
func (s *Session) CurrentQuestion() *models.QuestionRecord {
	if s.Cursor < 0 || s.Cursor >= len(s.Queue) {
		return nil
	}
	return &s.Queue[s.Cursor]
}

// CorrectCount counts the correct answers recorded so far.
func (s *Session) CorrectCount() int {
	n := 0
	for _, a := range s.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}

// Accuracy over the answered portion of the queue.
func (s *Session) Accuracy() float64 {
	if len(s.Answers) == 0 {
		return 0
	}
	return float64(s.CorrectCount()) / float64(len(s.Answers))
}

// PushHistory records the stage being left by a successful transition.
func (s *Session) PushHistory(stage Stage) {
	s.History = append(s.History, stage)
}

// PopHistory removes and returns the most recent prior stage.
func (s *Session) PopHistory() (Stage, bool) {
	if len(s.History) == 0 {
		return "", false
	}
	stage := s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]
	return stage, true
}

// Expired reports whether the session has been idle past timeout.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastActivity) > timeout
}

// Validate checks the structural invariants that every processed message
// must preserve. A violation marks the session corrupt; the engine
// discards it rather than risk compounding the damage.
func (s *Session) Validate() error {
	if s.Cursor < 0 || s.Cursor > len(s.Queue) {
		return fmt.Errorf("%w: cursor %d outside queue of %d", ErrCorruptSession, s.Cursor, len(s.Queue))
	}
	if len(s.Answers) != s.Cursor {
		return fmt.Errorf("%w: %d answers recorded for cursor %d", ErrCorruptSession, len(s.Answers), s.Cursor)
	}
	return nil
}
