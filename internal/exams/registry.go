package exams

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/prepmate/practice-service/internal/models"
)

// SubjectConfig describes one subject of an exam: the standard full-exam
// question count, the time limit and the scope values a user may pick.
type SubjectConfig struct {
	Name             string   `json:"name" validate:"required"`
	QuestionsPerExam int      `json:"questions_per_exam" validate:"required,min=1,max=200"`
	TimeLimitMinutes int      `json:"time_limit_minutes" validate:"required,min=5,max=300"`
	Years            []string `json:"years_available"`
	Topics           []string `json:"topics"`
}

// ExamConfig describes one supported exam. Subjects keep their declared
// order so ordinal selections stay stable across prompts.
type ExamConfig struct {
	Name        string              `json:"name" validate:"required"`
	DisplayName string              `json:"display_name"`
	DefaultMode models.PracticeMode `json:"default_mode"`
	Subjects    []SubjectConfig     `json:"subjects" validate:"required,min=1,dive"`
}

// Registry is the static exam configuration consulted by the state machine
// and the selector to validate scope choices and compute default counts.
type Registry struct {
	exams  []ExamConfig
	byName map[string]*ExamConfig
	logger *slog.Logger
}

func NewRegistry(configs []ExamConfig, logger *slog.Logger) *Registry {
	r := &Registry{
		exams:  configs,
		byName: make(map[string]*ExamConfig, len(configs)),
		logger: logger,
	}
	for i := range r.exams {
		r.byName[r.exams[i].Name] = &r.exams[i]
	}
	return r
}

// NewDefaultRegistry builds a registry from the built-in exam structure,
// overridden by the JSON file at path when it exists.
func NewDefaultRegistry(path string, logger *slog.Logger) *Registry {
	configs := defaultExams()
	if path != "" {
		loaded, err := loadExamFile(path)
		switch {
		case err != nil:
			logger.Warn("Failed to load exam structure file, using defaults",
				"path", path, "error", err)
		case len(loaded) > 0:
			logger.Info("Loaded exam structure", "path", path, "exams", len(loaded))
			configs = loaded
		}
	}
	return NewRegistry(configs, logger)
}

func loadExamFile(path string) ([]ExamConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var configs []ExamConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parse exam structure: %w", err)
	}
	return configs, nil
}

// ExamNames returns the display names of all registered exams, in
// registration order.
func (r *Registry) ExamNames() []string {
	names := make([]string, len(r.exams))
	for i, e := range r.exams {
		if e.DisplayName != "" {
			names[i] = e.DisplayName
		} else {
			names[i] = e.Name
		}
	}
	return names
}

// ExamByOrdinal resolves a 1-based selection against the exam list.
func (r *Registry) ExamByOrdinal(n int) (*ExamConfig, bool) {
	if n < 1 || n > len(r.exams) {
		return nil, false
	}
	return &r.exams[n-1], true
}

// Exam looks an exam up by its internal name.
func (r *Registry) Exam(name string) (*ExamConfig, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Subject looks a subject up within an exam.
func (r *Registry) Subject(exam, subject string) (*SubjectConfig, bool) {
	e, ok := r.byName[exam]
	if !ok {
		return nil, false
	}
	for i := range e.Subjects {
		if e.Subjects[i].Name == subject {
			return &e.Subjects[i], true
		}
	}
	return nil, false
}

// SubjectNames returns the subject names of an exam in declared order.
func (r *Registry) SubjectNames(exam string) []string {
	e, ok := r.byName[exam]
	if !ok {
		return nil
	}
	names := make([]string, len(e.Subjects))
	for i, s := range e.Subjects {
		names[i] = s.Name
	}
	return names
}

// Topics returns the practice topics configured for an exam subject.
func (r *Registry) Topics(exam, subject string) []string {
	s, ok := r.Subject(exam, subject)
	if !ok {
		return nil
	}
	return s.Topics
}

// Years returns the years with available past questions for a subject.
func (r *Registry) Years(exam, subject string) []string {
	s, ok := r.Subject(exam, subject)
	if !ok {
		return nil
	}
	return s.Years
}

// DefaultMode returns the exam's configured default practice mode; falls
// back to mixed when unset. Default modes varied across revisions of the
// source material, so they are configuration, not code.
func (r *Registry) DefaultMode(exam string) models.PracticeMode {
	e, ok := r.byName[exam]
	if !ok || !e.DefaultMode.Valid() {
		return models.ModeMixed
	}
	return e.DefaultMode
}
