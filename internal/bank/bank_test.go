package bank

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepmate/practice-service/internal/models"
	"github.com/prepmate/practice-service/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func makeQuestion(id, topic, year string) models.QuestionRecord {
	return models.QuestionRecord{
		ID:      id,
		Exam:    "jamb",
		Subject: "Biology",
		Topic:   topic,
		Year:    year,
		Prompt:  "prompt " + id,
		Options: map[string]string{
			"A": "first",
			"B": "second",
			"C": "third",
			"D": "fourth",
		},
		CorrectLabel: "A",
	}
}

func TestBankAddDeduplicates(t *testing.T) {
	b := New(testLogger())

	added := b.Add([]models.QuestionRecord{
		makeQuestion("q1", "Genetics", "2020"),
		makeQuestion("q2", "Genetics", "2021"),
		makeQuestion("q1", "Genetics", "2020"),
		{ID: "", Exam: "jamb", Subject: "Biology"},
	})

	assert.Equal(t, 2, added)
	assert.Equal(t, 2, b.Size())

	// A later batch cannot re-add an existing ID either.
	assert.Equal(t, 0, b.Add([]models.QuestionRecord{makeQuestion("q2", "Genetics", "2021")}))
}

func TestBankFetchByTopic(t *testing.T) {
	b := New(testLogger())
	b.Add([]models.QuestionRecord{
		makeQuestion("q1", "Genetics", "2020"),
		makeQuestion("q2", "Cell Biology", "2020"),
		makeQuestion("q3", "genetics", "2021"),
	})

	questions, err := b.FetchByTopic(context.Background(), "jamb", "Biology", "Genetics", 10)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
	for _, q := range questions {
		assert.NotEqual(t, "q2", q.ID)
	}
}

func TestBankFetchByYear(t *testing.T) {
	b := New(testLogger())
	b.Add([]models.QuestionRecord{
		makeQuestion("q1", "Genetics", "2020"),
		makeQuestion("q2", "Ecology", "2020"),
		makeQuestion("q3", "Genetics", "2021"),
	})

	questions, err := b.FetchByYear(context.Background(), "jamb", "Biology", "2020", 10)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestBankFetchTruncatesToCount(t *testing.T) {
	b := New(testLogger())
	var batch []models.QuestionRecord
	for i := 0; i < 30; i++ {
		batch = append(batch, makeQuestion(fmt.Sprintf("q%d", i), "Genetics", "2020"))
	}
	b.Add(batch)

	questions, err := b.FetchMixed(context.Background(), "jamb", "Biology", 10)
	require.NoError(t, err)
	assert.Len(t, questions, 10)
}

func TestBankFetchEmpty(t *testing.T) {
	b := New(testLogger())

	_, err := b.FetchMixed(context.Background(), "jamb", "Biology", 10)
	assert.ErrorIs(t, err, provider.ErrEmpty)

	b.Add([]models.QuestionRecord{makeQuestion("q1", "Genetics", "2020")})
	_, err = b.FetchByTopic(context.Background(), "jamb", "Biology", "Optics", 10)
	assert.ErrorIs(t, err, provider.ErrEmpty)
}

func TestBankExamCaseInsensitive(t *testing.T) {
	b := New(testLogger())
	b.Add([]models.QuestionRecord{makeQuestion("q1", "Genetics", "2020")})

	questions, err := b.FetchMixed(context.Background(), "JAMB", "Biology", 5)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}
