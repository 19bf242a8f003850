package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prepmate/practice-service/internal/cache"
	"github.com/prepmate/practice-service/internal/models"
)

// Cached decorates a provider with a read-through cache so repeated topic
// and year requests do not hit the retrieval backend again. Cache failures
// are logged and ignored; the cache is an optimization, not a dependency.
type Cached struct {
	inner  QuestionProvider
	cache  cache.CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(inner QuestionProvider, c cache.CacheService, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, cache: c, ttl: ttl, logger: logger}
}

func (c *Cached) FetchByTopic(ctx context.Context, exam, subject, topic string, count int) ([]models.QuestionRecord, error) {
	key := fmt.Sprintf("questions:topic:%s:%s:%s:%d", exam, subject, topic, count)
	return c.fetch(ctx, key, func() ([]models.QuestionRecord, error) {
		return c.inner.FetchByTopic(ctx, exam, subject, topic, count)
	})
}

func (c *Cached) FetchByYear(ctx context.Context, exam, subject, year string, count int) ([]models.QuestionRecord, error) {
	key := fmt.Sprintf("questions:year:%s:%s:%s:%d", exam, subject, year, count)
	return c.fetch(ctx, key, func() ([]models.QuestionRecord, error) {
		return c.inner.FetchByYear(ctx, exam, subject, year, count)
	})
}

// FetchMixed is never cached: mixed requests should vary between sessions.
func (c *Cached) FetchMixed(ctx context.Context, exam, subject string, count int) ([]models.QuestionRecord, error) {
	return c.inner.FetchMixed(ctx, exam, subject, count)
}

func (c *Cached) fetch(ctx context.Context, key string, load func() ([]models.QuestionRecord, error)) ([]models.QuestionRecord, error) {
	var cached []models.QuestionRecord
	err := c.cache.Get(ctx, key, &cached)
	if err == nil && len(cached) > 0 {
		return cached, nil
	}
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn("Question cache read failed", "key", key, "error", err)
	}

	questions, err := load()
	if err != nil {
		return nil, err
	}
	if len(questions) > 0 {
		if err := c.cache.Set(ctx, key, questions, c.ttl); err != nil {
			c.logger.Warn("Question cache write failed", "key", key, "error", err)
		}
	}
	return questions, nil
}
