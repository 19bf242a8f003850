package analytics

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prepmate/practice-service/internal/models"
)

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Load(ctx context.Context, userID string) (*models.AnalyticsProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalyticsProfile), args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, profile *models.AnalyticsProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestAggregator(t *testing.T) (*Aggregator, *MockProfileRepository) {
	t.Helper()
	repo := new(MockProfileRepository)
	repo.On("Load", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	return NewAggregator(repo, Config{}, testLogger()), repo
}

func answerEvent(subject, topic string, correct bool) models.AnswerEvent {
	return models.AnswerEvent{
		QuestionID: "q",
		Exam:       "jamb",
		Subject:    subject,
		Topic:      topic,
		Year:       "2020",
		Correct:    correct,
		AnsweredAt: time.Now(),
	}
}

func recordTopic(agg *Aggregator, user, subject, topic string, correct, wrong int) {
	ctx := context.Background()
	for i := 0; i < correct; i++ {
		agg.Record(ctx, user, answerEvent(subject, topic, true))
	}
	for i := 0; i < wrong; i++ {
		agg.Record(ctx, user, answerEvent(subject, topic, false))
	}
}

func TestWeaknessRanking(t *testing.T) {
	agg, _ := newTestAggregator(t)

	// Topic A: 40% over 20 attempts, topic B: 55% over 3 attempts (below
	// the sample floor), topic C: 80% over 15 attempts.
	recordTopic(agg, "u1", "Biology", "Genetics", 8, 12)
	recordTopic(agg, "u1", "Biology", "Ecology", 2, 1)
	recordTopic(agg, "u1", "Biology", "Cell Biology", 12, 3)

	weak := agg.Weaknesses(context.Background(), "u1", "Biology")
	require.Len(t, weak, 1)
	assert.Equal(t, "Genetics", weak[0].Topic)
	assert.InDelta(t, 0.40, weak[0].Accuracy, 0.001)
	assert.Equal(t, 20, weak[0].Attempts)
}

func TestWeaknessTieBreakPrefersMoreAttempts(t *testing.T) {
	agg, _ := newTestAggregator(t)

	// Both topics sit at 50%; the better-sampled one ranks first.
	recordTopic(agg, "u1", "Biology", "Genetics", 5, 5)
	recordTopic(agg, "u1", "Biology", "Ecology", 10, 10)

	weak := agg.Weaknesses(context.Background(), "u1", "Biology")
	require.Len(t, weak, 2)
	assert.Equal(t, "Ecology", weak[0].Topic)
	assert.Equal(t, "Genetics", weak[1].Topic)
}

func TestWeaknessesScopedToSubject(t *testing.T) {
	agg, _ := newTestAggregator(t)

	recordTopic(agg, "u1", "Biology", "Genetics", 1, 9)
	recordTopic(agg, "u1", "Physics", "Optics", 1, 9)

	weak := agg.Weaknesses(context.Background(), "u1", "Biology")
	require.Len(t, weak, 1)
	assert.Equal(t, "Biology", weak[0].Subject)
	assert.Equal(t, "Genetics", weak[0].Topic)
}

func TestRecordUpdatesCounters(t *testing.T) {
	agg, _ := newTestAggregator(t)
	ctx := context.Background()

	recordTopic(agg, "u1", "Biology", "Genetics", 3, 1)

	summary := agg.Summary(ctx, "u1")
	assert.Equal(t, 4, summary.TotalQuestions)
	assert.InDelta(t, 0.75, summary.OverallAccuracy, 0.001)

	require.Len(t, summary.Subjects, 1)
	assert.Equal(t, "Biology", summary.Subjects[0].Key)
	assert.Equal(t, 4, summary.Subjects[0].Attempts)
	assert.Equal(t, 3, summary.Subjects[0].Correct)
}

func TestRecordSessionPersistsProfile(t *testing.T) {
	agg, repo := newTestAggregator(t)
	ctx := context.Background()

	err := agg.RecordSession(ctx, "u1", models.SessionRecord{
		Exam:        "jamb",
		Subject:     "Biology",
		Mode:        models.ModeTopic,
		Total:       10,
		Correct:     7,
		Accuracy:    0.7,
		CompletedAt: time.Now(),
	})
	require.NoError(t, err)

	repo.AssertCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Equal(t, 1, agg.Summary(ctx, "u1").TotalSessions)
}

func TestSessionHistoryCapped(t *testing.T) {
	repo := new(MockProfileRepository)
	repo.On("Load", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	agg := NewAggregator(repo, Config{HistoryCap: 3}, testLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, agg.RecordSession(ctx, "u1", models.SessionRecord{
			Accuracy:    float64(i) / 10,
			CompletedAt: time.Now(),
		}))
	}

	p, release := agg.acquire(ctx, "u1")
	sessions := p.Sessions
	release()
	require.Len(t, sessions, 3)
	assert.InDelta(t, 0.2, sessions[0].Accuracy, 0.001)
}

// blockingProfileRepository parks Save until released, so tests can hold one
// user's persistence open while another user keeps working.
type blockingProfileRepository struct {
	saveStarted chan struct{}
	release     chan struct{}
	once        sync.Once
}

func (r *blockingProfileRepository) Load(ctx context.Context, userID string) (*models.AnalyticsProfile, error) {
	return nil, nil
}

func (r *blockingProfileRepository) Save(ctx context.Context, profile *models.AnalyticsProfile) error {
	r.once.Do(func() { close(r.saveStarted) })
	<-r.release
	return nil
}

func TestUsersDoNotShareLocks(t *testing.T) {
	repo := &blockingProfileRepository{
		saveStarted: make(chan struct{}),
		release:     make(chan struct{}),
	}
	agg := NewAggregator(repo, Config{}, testLogger())
	ctx := context.Background()

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		require.NoError(t, agg.RecordSession(ctx, "slow", models.SessionRecord{
			Accuracy:    0.5,
			CompletedAt: time.Now(),
		}))
	}()
	<-repo.saveStarted

	// While "slow" sits inside Save, other users must still be served.
	fastDone := make(chan struct{})
	go func() {
		defer close(fastDone)
		agg.Record(ctx, "fast", answerEvent("Biology", "Genetics", true))
		agg.Summary(ctx, "fast")
	}()

	select {
	case <-fastDone:
	case <-time.After(2 * time.Second):
		t.Fatal("another user's persistence blocked this user's record")
	}

	close(repo.release)
	<-slowDone
}

func TestFlushAllPersistsLoadedProfiles(t *testing.T) {
	agg, repo := newTestAggregator(t)
	ctx := context.Background()

	recordTopic(agg, "u1", "Biology", "Genetics", 2, 1)
	recordTopic(agg, "u2", "Physics", "Optics", 1, 2)

	require.NoError(t, agg.FlushAll(ctx))
	repo.AssertNumberOfCalls(t, "Save", 2)
}

func TestTrendClassification(t *testing.T) {
	ctx := context.Background()

	record := func(agg *Aggregator, accuracies []float64) {
		for _, acc := range accuracies {
			require.NoError(t, agg.RecordSession(ctx, "u1", models.SessionRecord{
				Accuracy:    acc,
				CompletedAt: time.Now(),
			}))
		}
	}

	tests := []struct {
		name       string
		accuracies []float64
		expected   models.Trend
	}{
		{
			name:       "improving",
			accuracies: []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.7, 0.7, 0.7, 0.7, 0.7},
			expected:   models.TrendImproving,
		},
		{
			name:       "declining",
			accuracies: []float64{0.8, 0.8, 0.8, 0.8, 0.8, 0.6, 0.6, 0.6, 0.6, 0.6},
			expected:   models.TrendDeclining,
		},
		{
			name:       "within margin is stable",
			accuracies: []float64{0.70, 0.70, 0.70, 0.70, 0.70, 0.72, 0.72, 0.72, 0.72, 0.72},
			expected:   models.TrendStable,
		},
		{
			name:       "too few sessions is stable",
			accuracies: []float64{0.2, 0.9, 0.9},
			expected:   models.TrendStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, _ := newTestAggregator(t)
			record(agg, tt.accuracies)
			assert.Equal(t, tt.expected, agg.Summary(ctx, "u1").Trend)
		})
	}
}

func TestSummaryEmptyProfile(t *testing.T) {
	agg, _ := newTestAggregator(t)

	summary := agg.Summary(context.Background(), "fresh-user")
	assert.Zero(t, summary.TotalQuestions)
	assert.Equal(t, models.TrendStable, summary.Trend)
	assert.Empty(t, summary.Weaknesses)
	assert.NotEmpty(t, summary.Recommendations)
}
