package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/learnspark/assessment-engine/internal/loader"
	"github.com/learnspark/assessment-engine/internal/models"
	"github.com/learnspark/assessment-engine/internal/utils"
)

// RowError describes one rejected spreadsheet row.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Message)
}

// ImportResult summarizes one spreadsheet import. Valid rows become
// questions; rejected rows are reported without failing the import.
type ImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	SuccessCount int                  `json:"success_count"`
	ErrorCount   int                  `json:"error_count"`
	Errors       []RowError           `json:"errors,omitempty"`
	Questions    []loader.RawQuestion `json:"questions,omitempty"`
}

// Importer converts question spreadsheets into loader input and writes
// result exports. Authors maintain question banks in CSV or Excel; the
// column contract is:
//
//	question_type, question_text, option_a..option_d, correct_answer,
//	points, difficulty, topic, explanation, time_limit
//
// Multi-value answers (multiple select, several blanks) separate entries
// with ";". Choice answers may be letters ("A"), 1-based positions or
// option text.
type Importer struct {
	logger utils.Logger
}

func New(logger utils.Logger) *Importer {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Importer{logger: logger}
}

var requiredColumns = []string{"question_type", "question_text", "correct_answer"}

// ImportQuestionsFromFile dispatches on the filename extension.
func (im *Importer) ImportQuestionsFromFile(reader io.Reader, filename string) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".csv":
		return im.ImportQuestionsFromCSV(reader)
	case ".xlsx", ".xls":
		return im.ImportQuestionsFromExcel(reader)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func (im *Importer) ImportQuestionsFromCSV(reader io.Reader) (*ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV must have a header row and at least one data row")
	}

	result, err := im.parseRows(records)
	if err != nil {
		return nil, err
	}

	im.logger.Info("CSV import completed",
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)

	return result, nil
}

func (im *Importer) ImportQuestionsFromExcel(reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel must have a header row and at least one data row")
	}

	result, err := im.parseRows(rows)
	if err != nil {
		return nil, err
	}

	im.logger.Info("Excel import completed",
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)

	return result, nil
}

func (im *Importer) parseRows(rows [][]string) (*ImportResult, error) {
	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range requiredColumns {
		if _, exists := headerMap[col]; !exists {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}

	for rowIndex, row := range rows[1:] {
		question, rowErrors := parseQuestionRow(row, headerMap, rowIndex+2)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
			continue
		}
		result.Questions = append(result.Questions, *question)
		result.SuccessCount++
	}

	return result, nil
}

func parseQuestionRow(row []string, headerMap map[string]int, rowNum int) (*loader.RawQuestion, []RowError) {
	cell := func(column string) string {
		idx, ok := headerMap[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var errs []RowError

	questionType := strings.ToLower(cell("question_type"))
	if questionType == "" {
		errs = append(errs, RowError{Row: rowNum, Column: "question_type", Message: "required"})
	}
	text := cell("question_text")
	if text == "" {
		errs = append(errs, RowError{Row: rowNum, Column: "question_text", Message: "required"})
	}

	var options []string
	for _, col := range []string{"option_a", "option_b", "option_c", "option_d"} {
		if v := cell(col); v != "" {
			options = append(options, v)
		}
	}

	rawAnswer := cell("correct_answer")
	if rawAnswer == "" {
		errs = append(errs, RowError{Row: rowNum, Column: "correct_answer", Message: "required"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	answer, err := parseAnswer(questionType, rawAnswer, options)
	if err != nil {
		return nil, []RowError{{Row: rowNum, Column: "correct_answer", Message: err.Error()}}
	}

	question := &loader.RawQuestion{
		Type:          questionType,
		Question:      text,
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   cell("explanation"),
		Topic:         cell("topic"),
	}

	if v := cell("difficulty"); v != "" {
		question.Difficulty = strings.ToLower(v)
	}
	if v := cell("points"); v != "" {
		points, err := strconv.Atoi(v)
		if err != nil || points < 1 {
			return nil, []RowError{{Row: rowNum, Column: "points", Message: "must be a positive integer"}}
		}
		question.Points = points
	}
	if v := cell("time_limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return nil, []RowError{{Row: rowNum, Column: "time_limit", Message: "must be a non-negative integer"}}
		}
		question.TimeLimit = limit
	}

	return question, nil
}

// parseAnswer converts the spreadsheet answer cell into the loader's
// answer representation for the question type.
func parseAnswer(questionType, raw string, options []string) (any, error) {
	switch models.QuestionType(strings.ReplaceAll(questionType, "-", "_")) {
	case models.SingleChoice:
		idx, err := resolveOption(raw, options)
		if err != nil {
			return nil, err
		}
		return idx, nil

	case models.MultipleSelect:
		parts := strings.Split(raw, ";")
		indices := make([]any, 0, len(parts))
		for _, part := range parts {
			idx, err := resolveOption(strings.TrimSpace(part), options)
			if err != nil {
				return nil, err
			}
			indices = append(indices, idx)
		}
		return indices, nil

	case models.TrueFalse:
		value, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", raw)
		}
		return value, nil

	case models.FillBlank:
		blanks := strings.Split(raw, ";")
		out := make([]any, len(blanks))
		for i, b := range blanks {
			out[i] = strings.TrimSpace(b)
		}
		return out, nil

	default:
		return raw, nil
	}
}

// resolveOption accepts a letter ("A"), a 1-based position ("1") or the
// option text itself, and returns the 0-based index.
func resolveOption(raw string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("choice answer requires options")
	}

	if len(raw) == 1 {
		upper := raw[0]
		if upper >= 'a' && upper <= 'z' {
			upper -= 'a' - 'A'
		}
		if upper >= 'A' && upper < 'A'+byte(len(options)) {
			return int(upper - 'A'), nil
		}
	}

	if pos, err := strconv.Atoi(raw); err == nil {
		if pos >= 1 && pos <= len(options) {
			return pos - 1, nil
		}
		return 0, fmt.Errorf("position %d out of range", pos)
	}

	for i, opt := range options {
		if strings.EqualFold(opt, raw) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("answer %q does not match any option", raw)
}
