// Package analytics folds answer events into per-subject, per-topic and
// per-year accuracy counters and derives weakness sets, strengths and
// performance trends from them.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prepmate/practice-service/internal/models"
	"github.com/prepmate/practice-service/internal/repositories"
)

// Config carries the tunable thresholds. Zero values are replaced by the
// defaults below.
type Config struct {
	MinSampleSize      int     // attempts required before a key can be ranked
	WeakTopicThreshold float64 // topic accuracy below this is weak
	WeakSubjectLimit   float64 // subject accuracy below this is weak
	StrongThreshold    float64 // accuracy at or above this is a strength
	TrendWindow        int     // K: sessions per trend window
	TrendMargin        float64 // accuracy-point margin for improving/declining
	HistoryCap         int     // session records kept per profile
}

func (c Config) withDefaults() Config {
	if c.MinSampleSize == 0 {
		c.MinSampleSize = 5
	}
	if c.WeakTopicThreshold == 0 {
		c.WeakTopicThreshold = 0.60
	}
	if c.WeakSubjectLimit == 0 {
		c.WeakSubjectLimit = 0.70
	}
	if c.StrongThreshold == 0 {
		c.StrongThreshold = 0.80
	}
	if c.TrendWindow == 0 {
		c.TrendWindow = 5
	}
	if c.TrendMargin == 0 {
		c.TrendMargin = 0.05
	}
	if c.HistoryCap == 0 {
		c.HistoryCap = 50
	}
	return c
}

// Weakness is one ranked weak area.
type Weakness struct {
	Subject  string  `json:"subject"`
	Topic    string  `json:"topic,omitempty"`
	Accuracy float64 `json:"accuracy"`
	Attempts int     `json:"attempts"`
}

// KeyBreakdown is one row of a per-key summary table.
type KeyBreakdown struct {
	Key      string  `json:"key"`
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Summary is the read-only progress report returned for "how am I doing"
// queries and appended to session completions.
type Summary struct {
	TotalSessions   int            `json:"total_sessions"`
	TotalQuestions  int            `json:"total_questions"`
	OverallAccuracy float64        `json:"overall_accuracy"`
	Trend           models.Trend   `json:"trend"`
	Weaknesses      []Weakness     `json:"weaknesses"`
	Strengths       []Weakness     `json:"strengths"`
	Subjects        []KeyBreakdown `json:"subjects"`
	Topics          []KeyBreakdown `json:"topics"`
	Years           []KeyBreakdown `json:"years"`
	Recommendations []string       `json:"recommendations"`
}

// Aggregator keeps live profiles in memory and writes them through the
// profile repository. All updates are O(1) counter increments; summaries
// read the counters, never the raw event history. Each profile carries its
// own lock, so one user's repository round trip never blocks another user.
type Aggregator struct {
	mu      sync.Mutex // guards entries only, never held across repository calls
	entries map[string]*profileEntry
	repo    repositories.ProfileRepository
	cfg     Config
	logger  *slog.Logger
}

type profileEntry struct {
	mu      sync.Mutex
	profile *models.AnalyticsProfile
}

func NewAggregator(repo repositories.ProfileRepository, cfg Config, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		entries: make(map[string]*profileEntry),
		repo:    repo,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// acquire locks the user's entry and returns their profile, loading it from
// the repository on first touch. The caller must invoke the returned release
// when done with the profile.
func (a *Aggregator) acquire(ctx context.Context, user string) (*models.AnalyticsProfile, func()) {
	a.mu.Lock()
	e, ok := a.entries[user]
	if !ok {
		e = &profileEntry{}
		a.entries[user] = e
	}
	a.mu.Unlock()

	e.mu.Lock()
	if e.profile == nil {
		p, err := a.repo.Load(ctx, user)
		if err != nil {
			a.logger.Warn("Failed to load analytics profile, starting fresh",
				"user_id", user, "error", err)
			p = nil
		}
		if p == nil {
			p = models.NewAnalyticsProfile(user, time.Now())
		}
		e.profile = p
	}
	return e.profile, e.mu.Unlock
}

// Record folds one answer event into the user's counters.
func (a *Aggregator) Record(ctx context.Context, user string, ev models.AnswerEvent) {
	p, release := a.acquire(ctx, user)
	defer release()
	p.Apply(ev)
}

// RecordSession appends a completed (or stopped) session to the profile
// history and persists the profile. The persisted profile is the commit
// point the next message for this user may depend on.
func (a *Aggregator) RecordSession(ctx context.Context, user string, rec models.SessionRecord) error {
	p, release := a.acquire(ctx, user)
	defer release()

	p.TotalSessions++
	p.LastActive = rec.CompletedAt
	p.Sessions = append(p.Sessions, rec)
	if len(p.Sessions) > a.cfg.HistoryCap {
		p.Sessions = p.Sessions[len(p.Sessions)-a.cfg.HistoryCap:]
	}

	if err := a.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("save analytics profile: %w", err)
	}
	return nil
}

// FlushAll persists every loaded profile; used on shutdown.
func (a *Aggregator) FlushAll(ctx context.Context) error {
	a.mu.Lock()
	entries := make(map[string]*profileEntry, len(a.entries))
	for user, e := range a.entries {
		entries[user] = e
	}
	a.mu.Unlock()

	var firstErr error
	for user, e := range entries {
		e.mu.Lock()
		p := e.profile
		var err error
		if p != nil {
			err = a.repo.Save(ctx, p)
		}
		e.mu.Unlock()
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("save analytics profile for %s: %w", user, err)
		}
	}
	return firstErr
}

// Weaknesses returns the user's weak topics for a subject, ascending by
// accuracy; ties prefer the better-sampled topic. Topics under the minimum
// sample size are excluded: insufficient data is not weakness.
func (a *Aggregator) Weaknesses(ctx context.Context, user, subject string) []Weakness {
	p, release := a.acquire(ctx, user)
	defer release()

	prefix := subject + "|"

	var weak []Weakness
	for key, stats := range p.Topics {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if stats.Attempts < a.cfg.MinSampleSize {
			continue
		}
		if acc := stats.Accuracy(); acc < a.cfg.WeakTopicThreshold {
			weak = append(weak, Weakness{
				Subject:  subject,
				Topic:    strings.TrimPrefix(key, prefix),
				Accuracy: acc,
				Attempts: stats.Attempts,
			})
		}
	}
	sortWeaknesses(weak)
	return weak
}

func sortWeaknesses(w []Weakness) {
	sort.Slice(w, func(i, j int) bool {
		if w[i].Accuracy != w[j].Accuracy {
			return w[i].Accuracy < w[j].Accuracy
		}
		if w[i].Attempts != w[j].Attempts {
			return w[i].Attempts > w[j].Attempts
		}
		return w[i].Topic < w[j].Topic
	})
}

// Summary builds the full progress report for a user.
func (a *Aggregator) Summary(ctx context.Context, user string) *Summary {
	p, release := a.acquire(ctx, user)
	defer release()

	s := &Summary{
		TotalSessions:  p.TotalSessions,
		TotalQuestions: p.TotalQuestions,
		Trend:          a.trend(p),
		Subjects:       breakdown(p.Subjects),
		Topics:         breakdown(p.Topics),
		Years:          breakdown(p.Years),
	}
	if p.TotalQuestions > 0 {
		s.OverallAccuracy = float64(p.TotalCorrect) / float64(p.TotalQuestions)
	}

	s.Weaknesses = a.weakAreas(p)
	s.Strengths = a.strongAreas(p)
	s.Recommendations = a.recommend(p, s)
	return s
}

// weakAreas ranks weak subjects and topics together across the profile.
func (a *Aggregator) weakAreas(p *models.AnalyticsProfile) []Weakness {
	var weak []Weakness
	for subject, stats := range p.Subjects {
		if stats.Attempts < a.cfg.MinSampleSize {
			continue
		}
		if acc := stats.Accuracy(); acc < a.cfg.WeakSubjectLimit {
			weak = append(weak, Weakness{Subject: subject, Accuracy: acc, Attempts: stats.Attempts})
		}
	}
	for key, stats := range p.Topics {
		if stats.Attempts < a.cfg.MinSampleSize {
			continue
		}
		if acc := stats.Accuracy(); acc < a.cfg.WeakTopicThreshold {
			subject, topic := splitKey(key)
			weak = append(weak, Weakness{Subject: subject, Topic: topic, Accuracy: acc, Attempts: stats.Attempts})
		}
	}
	sortWeaknesses(weak)
	return weak
}

func (a *Aggregator) strongAreas(p *models.AnalyticsProfile) []Weakness {
	var strong []Weakness
	for key, stats := range p.Topics {
		if stats.Attempts < a.cfg.MinSampleSize {
			continue
		}
		if acc := stats.Accuracy(); acc >= a.cfg.StrongThreshold {
			subject, topic := splitKey(key)
			strong = append(strong, Weakness{Subject: subject, Topic: topic, Accuracy: acc, Attempts: stats.Attempts})
		}
	}
	sort.Slice(strong, func(i, j int) bool {
		if strong[i].Accuracy != strong[j].Accuracy {
			return strong[i].Accuracy > strong[j].Accuracy
		}
		return strong[i].Attempts > strong[j].Attempts
	})
	return strong
}

// trend compares mean accuracy over the most recent K sessions against the
// preceding K. Anything short of 2K sessions classifies as stable.
func (a *Aggregator) trend(p *models.AnalyticsProfile) models.Trend {
	k := a.cfg.TrendWindow
	if len(p.Sessions) < 2*k {
		return models.TrendStable
	}
	recent := meanAccuracy(p.Sessions[len(p.Sessions)-k:])
	previous := meanAccuracy(p.Sessions[len(p.Sessions)-2*k : len(p.Sessions)-k])

	switch {
	case recent-previous > a.cfg.TrendMargin:
		return models.TrendImproving
	case previous-recent > a.cfg.TrendMargin:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func (a *Aggregator) recommend(p *models.AnalyticsProfile, s *Summary) []string {
	var recs []string
	for i, w := range s.Weaknesses {
		if i == 3 {
			break
		}
		if w.Topic != "" {
			recs = append(recs, fmt.Sprintf("Review %s (%s) - current accuracy %.0f%%", w.Topic, w.Subject, w.Accuracy*100))
		} else {
			recs = append(recs, fmt.Sprintf("Focus more practice on %s - current accuracy %.0f%%", w.Subject, w.Accuracy*100))
		}
	}
	switch {
	case p.TotalQuestions == 0:
		recs = append(recs, "Start a practice session to build your performance profile")
	case s.OverallAccuracy >= 0.85:
		recs = append(recs, "Great progress! Try full-year papers to test exam pacing")
	case s.Trend == models.TrendDeclining:
		recs = append(recs, "Recent sessions dipped - shorter, focused topic practice can help")
	}
	return recs
}

func breakdown(m map[string]*models.KeyStats) []KeyBreakdown {
	rows := make([]KeyBreakdown, 0, len(m))
	for key, stats := range m {
		if stats.Attempts == 0 {
			continue
		}
		rows = append(rows, KeyBreakdown{
			Key:      key,
			Attempts: stats.Attempts,
			Correct:  stats.Correct,
			Accuracy: stats.Accuracy(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

func meanAccuracy(sessions []models.SessionRecord) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sessions {
		sum += s.Accuracy
	}
	return sum / float64(len(sessions))
}

func splitKey(key string) (subject, rest string) {
	if i := strings.Index(key, "|"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}
