package bank

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"id", "exam", "subject", "topic", "year", "prompt",
		"option a", "option b", "option c", "option d", "correct", "explanation",
	}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, header))
	}
	for rowIdx, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}
	return f
}

func TestImportExcel(t *testing.T) {
	f := buildWorkbook(t, [][]interface{}{
		{"q1", "JAMB", "Biology", "Genetics", "2020", "What is a gene?", "a1", "b1", "c1", "d1", "a", "Genes carry traits."},
		{"q2", "jamb", "Biology", "Ecology", "2021", "Which biome?", "a2", "b2", "", "", "B", ""},
		{"", "jamb", "Biology", "", "", "no id", "a", "b", "", "", "A", ""},
		{"q3", "jamb", "Biology", "", "", "one option", "only", "", "", "", "A", ""},
		{"q4", "jamb", "Biology", "", "", "bad label", "a", "b", "", "", "E", ""},
	})

	b := New(testLogger())
	importer := NewImporter(b, testLogger())

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	result, err := importer.ImportExcel(buf)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 3, result.ErrorCount)
	assert.Len(t, result.Errors, 3)
	assert.Equal(t, 2, b.Size())

	questions, err := b.FetchByTopic(context.Background(), "jamb", "Biology", "Genetics", 10)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	q := questions[0]
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, "jamb", q.Exam, "exam names normalize to lower case")
	assert.Equal(t, "A", q.CorrectLabel, "labels normalize to upper case")
	assert.Equal(t, "Genes carry traits.", q.Explanation)
	assert.Len(t, q.Options, 4)
}

func TestImportExcelRejectsEmptyWorkbook(t *testing.T) {
	f := excelize.NewFile()

	b := New(testLogger())
	importer := NewImporter(b, testLogger())

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = importer.ImportExcel(buf)
	assert.Error(t, err)
}

func TestLoadDirMissingDirectory(t *testing.T) {
	b := New(testLogger())
	importer := NewImporter(b, testLogger())

	err := importer.LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, err)
	assert.Equal(t, 0, b.Size())
}

func TestLoadDirImportsJSON(t *testing.T) {
	dir := t.TempDir()
	payload := `[
		{
			"id": "j1",
			"exam": "jamb",
			"subject": "Biology",
			"topic": "Genetics",
			"year": "2020",
			"prompt": "prompt",
			"options": {"A": "a", "B": "b"},
			"correct_label": "A"
		}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.json"), []byte(payload), 0o644))

	b := New(testLogger())
	importer := NewImporter(b, testLogger())

	require.NoError(t, importer.LoadDir(dir))
	assert.Equal(t, 1, b.Size())
}
