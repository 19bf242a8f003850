// Package provider defines the external question-sourcing boundary. The
// selector talks to a QuestionProvider and stays agnostic of whether the
// questions come from a remote retrieval pipeline, a local bank or a cache.
package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prepmate/practice-service/internal/models"
)

var (
	// ErrEmpty means the provider answered but had zero questions for
	// the request. Retryable from the user's point of view.
	ErrEmpty = errors.New("provider returned no questions")

	// ErrTimeout means the provider did not answer within the bounded
	// fetch window. Retryable.
	ErrTimeout = errors.New("question fetch timed out")
)

// IsRetryable reports whether the error should surface to the user as a
// "try again or pick a different scope" failure rather than a hard error.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrEmpty) || errors.Is(err, ErrTimeout)
}

// QuestionProvider fetches past-exam questions. Implementations may return
// fewer questions than requested; callers must tolerate short results.
type QuestionProvider interface {
	FetchByTopic(ctx context.Context, exam, subject, topic string, count int) ([]models.QuestionRecord, error)
	FetchByYear(ctx context.Context, exam, subject, year string, count int) ([]models.QuestionRecord, error)
	FetchMixed(ctx context.Context, exam, subject string, count int) ([]models.QuestionRecord, error)
}

// Bounded wraps a provider with a per-call timeout so a slow backend
// surfaces as ErrTimeout instead of stalling the session transition.
type Bounded struct {
	inner   QuestionProvider
	timeout time.Duration
}

func NewBounded(inner QuestionProvider, timeout time.Duration) *Bounded {
	return &Bounded{inner: inner, timeout: timeout}
}

func (b *Bounded) FetchByTopic(ctx context.Context, exam, subject, topic string, count int) ([]models.QuestionRecord, error) {
	return b.call(ctx, func(ctx context.Context) ([]models.QuestionRecord, error) {
		return b.inner.FetchByTopic(ctx, exam, subject, topic, count)
	})
}

func (b *Bounded) FetchByYear(ctx context.Context, exam, subject, year string, count int) ([]models.QuestionRecord, error) {
	return b.call(ctx, func(ctx context.Context) ([]models.QuestionRecord, error) {
		return b.inner.FetchByYear(ctx, exam, subject, year, count)
	})
}

func (b *Bounded) FetchMixed(ctx context.Context, exam, subject string, count int) ([]models.QuestionRecord, error) {
	return b.call(ctx, func(ctx context.Context) ([]models.QuestionRecord, error) {
		return b.inner.FetchMixed(ctx, exam, subject, count)
	})
}

func (b *Bounded) call(ctx context.Context, fetch func(context.Context) ([]models.QuestionRecord, error)) ([]models.QuestionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	questions, err := fetch(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return questions, nil
}

// Failover tries the primary provider and falls back to the secondary when
// the primary fails or comes back empty. Both backends present as one
// capability to the selector.
type Failover struct {
	primary   QuestionProvider
	secondary QuestionProvider
	logger    *slog.Logger
}

func NewFailover(primary, secondary QuestionProvider, logger *slog.Logger) *Failover {
	return &Failover{primary: primary, secondary: secondary, logger: logger}
}

func (f *Failover) FetchByTopic(ctx context.Context, exam, subject, topic string, count int) ([]models.QuestionRecord, error) {
	return f.fetch(ctx, "topic",
		func(p QuestionProvider) ([]models.QuestionRecord, error) {
			return p.FetchByTopic(ctx, exam, subject, topic, count)
		})
}

func (f *Failover) FetchByYear(ctx context.Context, exam, subject, year string, count int) ([]models.QuestionRecord, error) {
	return f.fetch(ctx, "year",
		func(p QuestionProvider) ([]models.QuestionRecord, error) {
			return p.FetchByYear(ctx, exam, subject, year, count)
		})
}

func (f *Failover) FetchMixed(ctx context.Context, exam, subject string, count int) ([]models.QuestionRecord, error) {
	return f.fetch(ctx, "mixed",
		func(p QuestionProvider) ([]models.QuestionRecord, error) {
			return p.FetchMixed(ctx, exam, subject, count)
		})
}

func (f *Failover) fetch(ctx context.Context, kind string, call func(QuestionProvider) ([]models.QuestionRecord, error)) ([]models.QuestionRecord, error) {
	questions, err := call(f.primary)
	if err == nil && len(questions) > 0 {
		return questions, nil
	}
	if err != nil {
		f.logger.Warn("Primary question provider failed, using fallback",
			"fetch", kind, "error", err)
	} else {
		f.logger.Warn("Primary question provider empty, using fallback", "fetch", kind)
	}

	questions, err = call(f.secondary)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrEmpty
	}
	return questions, nil
}
