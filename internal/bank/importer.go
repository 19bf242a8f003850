package bank

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/prepmate/practice-service/internal/models"
)

// ImportResult reports the outcome of one import run.
type ImportResult struct {
	TotalRows    int      `json:"total_rows"`
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`
}

// Importer loads question records into the bank from Excel workbooks and
// JSON files. Workbooks carry one question per row with a header row:
// id, exam, subject, topic, year, prompt, option a..d, correct, explanation.
type Importer struct {
	bank   *Bank
	logger *slog.Logger
}

func NewImporter(b *Bank, logger *slog.Logger) *Importer {
	return &Importer{bank: b, logger: logger}
}

// LoadDir imports every .xlsx and .json file under dir. Missing dir is not
// an error; the bank simply starts empty.
func (i *Importer) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		i.logger.Info("Question bank directory not found, starting empty", "dir", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read question bank dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".xlsx":
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			result, err := i.ImportExcel(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			i.logger.Info("Imported workbook",
				"file", entry.Name(),
				"imported", result.SuccessCount,
				"rejected", result.ErrorCount)
		case ".json":
			count, err := i.importJSONFile(path)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			i.logger.Info("Imported JSON bank", "file", entry.Name(), "imported", count)
		}
	}

	i.logger.Info("Question bank loaded", "questions", i.bank.Size())
	return nil
}

// ImportExcel parses a workbook from r and banks every valid row.
func (i *Importer) ImportExcel(r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read workbook rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook needs a header row and at least one data row")
	}

	headerIndex := make(map[string]int)
	for col, header := range rows[0] {
		headerIndex[strings.ToLower(strings.TrimSpace(header))] = col
	}

	result := &ImportResult{TotalRows: len(rows) - 1}
	var questions []models.QuestionRecord
	for rowNum, row := range rows[1:] {
		q, err := parseRow(row, headerIndex)
		if err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum+2, err))
			continue
		}
		questions = append(questions, q)
	}

	result.SuccessCount = i.bank.Add(questions)
	return result, nil
}

func (i *Importer) importJSONFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var questions []models.QuestionRecord
	if err := json.Unmarshal(data, &questions); err != nil {
		return 0, fmt.Errorf("parse question JSON: %w", err)
	}
	return i.bank.Add(questions), nil
}

func parseRow(row []string, header map[string]int) (models.QuestionRecord, error) {
	cell := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	q := models.QuestionRecord{
		ID:           cell("id"),
		Exam:         strings.ToLower(cell("exam")),
		Subject:      cell("subject"),
		Topic:        cell("topic"),
		Year:         cell("year"),
		Prompt:       cell("prompt"),
		CorrectLabel: strings.ToUpper(cell("correct")),
		Explanation:  cell("explanation"),
		Options:      make(map[string]string),
	}

	for _, label := range []string{"A", "B", "C", "D"} {
		if text := cell("option " + strings.ToLower(label)); text != "" {
			q.Options[label] = text
		}
	}

	switch {
	case q.ID == "":
		return q, fmt.Errorf("missing id")
	case q.Exam == "" || q.Subject == "":
		return q, fmt.Errorf("missing exam or subject")
	case q.Prompt == "":
		return q, fmt.Errorf("missing prompt")
	case len(q.Options) < 2:
		return q, fmt.Errorf("needs at least two options")
	case !q.HasOption(q.CorrectLabel):
		return q, fmt.Errorf("correct label %q not among options", q.CorrectLabel)
	}
	return q, nil
}
