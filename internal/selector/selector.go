// Package selector turns a practice request and the user's weakness
// profile into an ordered question queue, sourcing raw questions through
// the provider boundary.
package selector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prepmate/practice-service/internal/exams"
	"github.com/prepmate/practice-service/internal/models"
	"github.com/prepmate/practice-service/internal/provider"
)

// Request describes one practice queue to build. Count overrides the
// configured default when positive.
type Request struct {
	Exam    string              `validate:"required"`
	Subject string              `validate:"required"`
	Mode    models.PracticeMode `validate:"required"`
	Scope   string
	Count   int
}

// Result is the built queue. Degraded is set when a weak-areas request had
// no qualifying history and fell back to mixed selection.
type Result struct {
	Questions []models.QuestionRecord
	Degraded  bool
}

// WeaknessSource is the slice of the analytics aggregator the selector
// needs: ranked weak topics for one subject.
type WeaknessSource interface {
	WeakTopics(ctx context.Context, userID, subject string) []string
}

type Selector struct {
	provider   provider.QuestionProvider
	registry   *exams.Registry
	topicCount int     // reduced default for topic practice
	weakRatio  float64 // minimum share of the queue drawn from weak topics
	logger     *slog.Logger
}

func New(p provider.QuestionProvider, registry *exams.Registry, topicCount int, weakRatio float64, logger *slog.Logger) *Selector {
	if topicCount <= 0 {
		topicCount = 20
	}
	if weakRatio <= 0 || weakRatio > 1 {
		weakRatio = 0.6
	}
	return &Selector{
		provider:   p,
		registry:   registry,
		topicCount: topicCount,
		weakRatio:  weakRatio,
		logger:     logger,
	}
}

// Select builds the question queue for one practice request. The returned
// sequence contains unique question IDs in provider-delivered order (the
// mixed-mode topic cap is the only reordering applied); a short result is
// accepted as-is and never retried in a loop.
func (s *Selector) Select(ctx context.Context, userID string, req Request, weak WeaknessSource) (*Result, error) {
	subject, ok := s.registry.Subject(req.Exam, req.Subject)
	if !ok {
		return nil, fmt.Errorf("unknown subject %q for exam %q", req.Subject, req.Exam)
	}

	count := req.Count
	if count <= 0 {
		if req.Mode == models.ModeTopic {
			count = s.topicCount
		} else {
			count = subject.QuestionsPerExam
		}
	}

	s.logger.Info("Selecting questions",
		"user_id", userID,
		"exam", req.Exam,
		"subject", req.Subject,
		"mode", req.Mode,
		"scope", req.Scope,
		"count", count)

	switch req.Mode {
	case models.ModeTopic:
		questions, err := s.provider.FetchByTopic(ctx, req.Exam, req.Subject, req.Scope, count)
		if err != nil {
			return nil, err
		}
		return s.finish(questions, count, false)

	case models.ModeYear:
		questions, err := s.provider.FetchByYear(ctx, req.Exam, req.Subject, req.Scope, count)
		if err != nil {
			return nil, err
		}
		return s.finish(questions, count, false)

	case models.ModeMixed:
		questions, err := s.selectMixed(ctx, req.Exam, req.Subject, count, len(subject.Topics))
		if err != nil {
			return nil, err
		}
		return s.finish(questions, count, false)

	case models.ModeWeakAreas:
		return s.selectWeakAreas(ctx, userID, req, subject, count, weak)

	default:
		return nil, fmt.Errorf("unsupported practice mode %q", req.Mode)
	}
}

// selectMixed fetches a full mixed set and applies the proportional
// per-topic cap, falling back to unconstrained fill when the provider
// cannot satisfy the cap.
func (s *Selector) selectMixed(ctx context.Context, exam, subject string, count, topicCount int) ([]models.QuestionRecord, error) {
	questions, err := s.provider.FetchMixed(ctx, exam, subject, count)
	if err != nil {
		return nil, err
	}
	if topicCount <= 1 {
		return questions, nil
	}

	topicCap := (count + topicCount - 1) / topicCount
	perTopic := make(map[string]int)
	capped := make([]models.QuestionRecord, 0, len(questions))
	var overflow []models.QuestionRecord
	for _, q := range questions {
		topic := q.Topic
		if topic == "" {
			topic = "general"
		}
		if perTopic[topic] >= topicCap {
			overflow = append(overflow, q)
			continue
		}
		perTopic[topic]++
		capped = append(capped, q)
	}

	// Provider could not spread across topics; fill back up from the
	// skipped questions rather than returning a short queue.
	for _, q := range overflow {
		if len(capped) >= count {
			break
		}
		capped = append(capped, q)
	}
	return capped, nil
}

func (s *Selector) selectWeakAreas(ctx context.Context, userID string, req Request, subject *exams.SubjectConfig, count int, weak WeaknessSource) (*Result, error) {
	var weakTopics []string
	if weak != nil {
		weakTopics = weak.WeakTopics(ctx, userID, req.Subject)
	}

	if len(weakTopics) == 0 {
		s.logger.Info("No qualifying weak topics, degrading to mixed selection",
			"user_id", userID, "subject", req.Subject)
		questions, err := s.selectMixed(ctx, req.Exam, req.Subject, count, len(subject.Topics))
		if err != nil {
			return nil, err
		}
		return s.finish(questions, count, true)
	}

	weakTarget := int(float64(count)*s.weakRatio + 0.5)
	if weakTarget < 1 {
		weakTarget = 1
	}
	share := (weakTarget + len(weakTopics) - 1) / len(weakTopics)

	var questions []models.QuestionRecord
	for _, topic := range weakTopics {
		if len(questions) >= weakTarget {
			break
		}
		fetched, err := s.provider.FetchByTopic(ctx, req.Exam, req.Subject, topic, share)
		if err != nil {
			// A weak topic the provider cannot serve is skipped;
			// the mixed remainder keeps the queue usable.
			s.logger.Warn("Weak-topic fetch failed, skipping topic",
				"topic", topic, "error", err)
			continue
		}
		questions = append(questions, fetched...)
	}

	if remainder := count - len(questions); remainder > 0 {
		mixed, err := s.provider.FetchMixed(ctx, req.Exam, req.Subject, remainder)
		if err == nil {
			questions = append(questions, mixed...)
		} else {
			s.logger.Warn("Mixed remainder fetch failed", "error", err)
		}
	}

	if len(questions) == 0 {
		return nil, provider.ErrEmpty
	}
	return s.finish(questions, count, false)
}

// finish deduplicates by question ID, truncates to count and wraps the
// result.
func (s *Selector) finish(questions []models.QuestionRecord, count int, degraded bool) (*Result, error) {
	if len(questions) == 0 {
		return nil, provider.ErrEmpty
	}

	seen := make(map[string]struct{}, len(questions))
	unique := make([]models.QuestionRecord, 0, len(questions))
	for _, q := range questions {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		unique = append(unique, q)
		if len(unique) == count {
			break
		}
	}
	return &Result{Questions: unique, Degraded: degraded}, nil
}
