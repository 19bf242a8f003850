// Package bank holds the local question bank: an in-memory store of past
// questions loaded at startup from workbook or JSON files. It backs the
// provider interface as the fallback behind the remote retrieval service.
package bank

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/prepmate/practice-service/internal/models"
	"github.com/prepmate/practice-service/internal/provider"
)

type Bank struct {
	mu        sync.RWMutex
	questions map[string][]models.QuestionRecord // keyed by exam|subject
	logger    *slog.Logger
}

func New(logger *slog.Logger) *Bank {
	return &Bank{
		questions: make(map[string][]models.QuestionRecord),
		logger:    logger,
	}
}

func bankKey(exam, subject string) string {
	return strings.ToLower(exam) + "|" + subject
}

// Add appends questions to the bank, skipping records with duplicate IDs.
// Returns the number actually added.
func (b *Bank) Add(questions []models.QuestionRecord) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[string]struct{})
	for _, existing := range b.questions {
		for _, q := range existing {
			seen[q.ID] = struct{}{}
		}
	}

	added := 0
	for _, q := range questions {
		if q.ID == "" {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		key := bankKey(q.Exam, q.Subject)
		b.questions[key] = append(b.questions[key], q)
		added++
	}
	return added
}

// Size returns the total number of questions currently banked.
func (b *Bank) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, qs := range b.questions {
		total += len(qs)
	}
	return total
}

func (b *Bank) FetchByTopic(ctx context.Context, exam, subject, topic string, count int) ([]models.QuestionRecord, error) {
	return b.fetch(exam, subject, count, func(q models.QuestionRecord) bool {
		return strings.EqualFold(q.Topic, topic)
	})
}

func (b *Bank) FetchByYear(ctx context.Context, exam, subject, year string, count int) ([]models.QuestionRecord, error) {
	return b.fetch(exam, subject, count, func(q models.QuestionRecord) bool {
		return q.Year == year
	})
}

func (b *Bank) FetchMixed(ctx context.Context, exam, subject string, count int) ([]models.QuestionRecord, error) {
	return b.fetch(exam, subject, count, func(models.QuestionRecord) bool { return true })
}

func (b *Bank) fetch(exam, subject string, count int, match func(models.QuestionRecord) bool) ([]models.QuestionRecord, error) {
	b.mu.RLock()
	pool := b.questions[bankKey(exam, subject)]
	matched := make([]models.QuestionRecord, 0, count)
	for _, q := range pool {
		if match(q) {
			matched = append(matched, q)
		}
	}
	b.mu.RUnlock()

	if len(matched) == 0 {
		return nil, provider.ErrEmpty
	}

	// Shuffle so repeated sessions over the same bank slice differ.
	rand.Shuffle(len(matched), func(i, j int) {
		matched[i], matched[j] = matched[j], matched[i]
	})
	if len(matched) > count {
		matched = matched[:count]
	}
	return matched, nil
}
