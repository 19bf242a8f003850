package provider

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepmate/practice-service/internal/cache"
	"github.com/prepmate/practice-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// funcProvider backs one test case with closures.
type funcProvider struct {
	byTopic func(ctx context.Context) ([]models.QuestionRecord, error)
}

func (f funcProvider) FetchByTopic(ctx context.Context, exam, subject, topic string, count int) ([]models.QuestionRecord, error) {
	return f.byTopic(ctx)
}

func (f funcProvider) FetchByYear(ctx context.Context, exam, subject, year string, count int) ([]models.QuestionRecord, error) {
	return f.byTopic(ctx)
}

func (f funcProvider) FetchMixed(ctx context.Context, exam, subject string, count int) ([]models.QuestionRecord, error) {
	return f.byTopic(ctx)
}

func sampleQuestions(ids ...string) []models.QuestionRecord {
	questions := make([]models.QuestionRecord, len(ids))
	for i, id := range ids {
		questions[i] = models.QuestionRecord{
			ID:           id,
			Exam:         "jamb",
			Subject:      "Biology",
			Topic:        "Genetics",
			Prompt:       "prompt",
			Options:      map[string]string{"A": "a", "B": "b"},
			CorrectLabel: "A",
		}
	}
	return questions
}

func TestBoundedMapsDeadlineToTimeout(t *testing.T) {
	slow := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	b := NewBounded(slow, 10*time.Millisecond)
	_, err := b.FetchByTopic(context.Background(), "jamb", "Biology", "Genetics", 5)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsRetryable(err))
}

func TestBoundedPassesThroughSuccess(t *testing.T) {
	fast := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		return sampleQuestions("q1", "q2"), nil
	}}

	b := NewBounded(fast, time.Second)
	questions, err := b.FetchByTopic(context.Background(), "jamb", "Biology", "Genetics", 5)

	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestBoundedPassesThroughOtherErrors(t *testing.T) {
	failing := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		return nil, ErrEmpty
	}}

	b := NewBounded(failing, time.Second)
	_, err := b.FetchByTopic(context.Background(), "jamb", "Biology", "Genetics", 5)

	assert.ErrorIs(t, err, ErrEmpty)
}

func TestFailoverUsesSecondaryOnError(t *testing.T) {
	primary := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		return nil, ErrTimeout
	}}
	secondary := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		return sampleQuestions("fallback"), nil
	}}

	f := NewFailover(primary, secondary, testLogger())
	questions, err := f.FetchByTopic(context.Background(), "jamb", "Biology", "Genetics", 5)

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "fallback", questions[0].ID)
}

func TestFailoverUsesSecondaryOnEmpty(t *testing.T) {
	primary := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		return nil, nil
	}}
	secondary := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		return sampleQuestions("fallback"), nil
	}}

	f := NewFailover(primary, secondary, testLogger())
	questions, err := f.FetchMixed(context.Background(), "jamb", "Biology", 5)

	require.NoError(t, err)
	require.Len(t, questions, 1)
}

func TestFailoverBothEmpty(t *testing.T) {
	empty := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		return nil, nil
	}}

	f := NewFailover(empty, empty, testLogger())
	_, err := f.FetchByYear(context.Background(), "jamb", "Biology", "2023", 5)

	assert.ErrorIs(t, err, ErrEmpty)
}

func TestFailoverPrefersPrimary(t *testing.T) {
	primary := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		return sampleQuestions("primary"), nil
	}}
	secondary := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		t.Fatal("secondary should not be called")
		return nil, nil
	}}

	f := NewFailover(primary, secondary, testLogger())
	questions, err := f.FetchByTopic(context.Background(), "jamb", "Biology", "Genetics", 5)

	require.NoError(t, err)
	assert.Equal(t, "primary", questions[0].ID)
}

// mapCache is an in-memory CacheService for decorator tests.
type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (m *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mapCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mapCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mapCache) DeletePattern(ctx context.Context, pattern string) error {
	return errors.New("not supported")
}

func TestCachedServesSecondReadFromCache(t *testing.T) {
	calls := 0
	inner := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		calls++
		return sampleQuestions("q1", "q2"), nil
	}}

	c := NewCached(inner, newMapCache(), time.Minute, testLogger())

	first, err := c.FetchByTopic(context.Background(), "jamb", "Biology", "Genetics", 5)
	require.NoError(t, err)
	second, err := c.FetchByTopic(context.Background(), "jamb", "Biology", "Genetics", 5)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestCachedMixedNeverCached(t *testing.T) {
	calls := 0
	inner := funcProvider{byTopic: func(ctx context.Context) ([]models.QuestionRecord, error) {
		calls++
		return sampleQuestions("q1"), nil
	}}

	c := NewCached(inner, newMapCache(), time.Minute, testLogger())

	_, err := c.FetchMixed(context.Background(), "jamb", "Biology", 5)
	require.NoError(t, err)
	_, err = c.FetchMixed(context.Background(), "jamb", "Biology", 5)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}
