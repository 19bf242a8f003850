package exams

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepmate/practice-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry("", testLogger())

	names := r.ExamNames()
	require.Equal(t, []string{"JAMB", "SAT", "NEET"}, names)

	exam, ok := r.ExamByOrdinal(1)
	require.True(t, ok)
	assert.Equal(t, "jamb", exam.Name)

	_, ok = r.ExamByOrdinal(0)
	assert.False(t, ok)
	_, ok = r.ExamByOrdinal(4)
	assert.False(t, ok)
}

func TestSubjectLookup(t *testing.T) {
	r := NewDefaultRegistry("", testLogger())

	subject, ok := r.Subject("jamb", "Biology")
	require.True(t, ok)
	assert.Equal(t, 50, subject.QuestionsPerExam)
	assert.Contains(t, subject.Topics, "Cell Biology")

	_, ok = r.Subject("jamb", "History")
	assert.False(t, ok)
	_, ok = r.Subject("waec", "Biology")
	assert.False(t, ok)
}

func TestSubjectNamesKeepDeclaredOrder(t *testing.T) {
	r := NewDefaultRegistry("", testLogger())

	names := r.SubjectNames("jamb")
	require.Len(t, names, 5)
	assert.Equal(t, "English Language", names[0])
	assert.Equal(t, "Biology", names[2])
}

func TestDefaultModeFallsBackToMixed(t *testing.T) {
	r := NewRegistry([]ExamConfig{
		{Name: "custom", Subjects: []SubjectConfig{{Name: "S", QuestionsPerExam: 10, TimeLimitMinutes: 30}}},
	}, testLogger())

	assert.Equal(t, models.ModeMixed, r.DefaultMode("custom"))
	assert.Equal(t, models.ModeMixed, r.DefaultMode("missing"))

	jamb := NewDefaultRegistry("", testLogger())
	assert.Equal(t, models.ModeTopic, jamb.DefaultMode("jamb"))
}

func TestRegistryFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exams.json")
	payload := `[
		{
			"name": "waec",
			"display_name": "WAEC",
			"default_mode": "year",
			"subjects": [
				{
					"name": "Government",
					"questions_per_exam": 40,
					"time_limit_minutes": 45,
					"years_available": ["2022", "2023"],
					"topics": ["Constitution", "Federalism"]
				}
			]
		}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	r := NewDefaultRegistry(path, testLogger())

	require.Equal(t, []string{"WAEC"}, r.ExamNames())
	assert.Equal(t, models.ModeYear, r.DefaultMode("waec"))
	assert.Equal(t, []string{"Constitution", "Federalism"}, r.Topics("waec", "Government"))
	assert.Equal(t, []string{"2022", "2023"}, r.Years("waec", "Government"))
}

func TestRegistryBadFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exams.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	r := NewDefaultRegistry(path, testLogger())
	assert.Equal(t, []string{"JAMB", "SAT", "NEET"}, r.ExamNames())
}
