package importer

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/learnspark/assessment-engine/internal/history"
	"github.com/learnspark/assessment-engine/internal/models"
)

var questionExportHeaders = []string{
	"Question Type", "Question Text", "Option A", "Option B", "Option C", "Option D",
	"Correct Answer", "Points", "Difficulty", "Topic", "Explanation",
}

var resultExportHeaders = []string{
	"Attempt ID", "Assessment", "Completed At", "Score", "Max Score",
	"Percentage", "Result", "Time Spent (minutes)",
}

// ExportQuestionsToCSV renders an assessment's questions in the same
// column contract the importer reads.
func (im *Importer) ExportQuestionsToCSV(assessment *models.Assessment) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(questionExportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range assessment.Questions {
		if err := writer.Write(questionToRow(&assessment.Questions[i])); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return []byte(buf.String()), nil
}

// ExportResultsToExcel renders archived attempts as a workbook.
func (im *Importer) ExportResultsToExcel(records []history.AttemptRecord) ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range resultExportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, record := range records {
		row := resultToRow(&record)
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportResultsToCSV renders archived attempts as CSV.
func (im *Importer) ExportResultsToCSV(records []history.AttemptRecord) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(resultExportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range records {
		row := resultToRow(&records[i])
		cells := make([]string, len(row))
		for j, value := range row {
			cells[j] = fmt.Sprint(value)
		}
		if err := writer.Write(cells); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return []byte(buf.String()), nil
}

func questionToRow(q *models.Question) []string {
	row := []string{string(q.Type), q.Prompt}
	for i := 0; i < 4; i++ {
		if i < len(q.Options) {
			row = append(row, q.Options[i])
		} else {
			row = append(row, "")
		}
	}
	row = append(row,
		formatAnswer(q),
		fmt.Sprint(q.Points),
		string(q.Difficulty),
		q.Topic,
		q.Explanation,
	)
	return row
}

func resultToRow(record *history.AttemptRecord) []any {
	verdict := "Fail"
	if record.Passed {
		verdict = "Pass"
	}
	return []any{
		record.AttemptID,
		record.Title,
		record.CompletedAt.Format("2006-01-02 15:04:05"),
		record.Score,
		record.MaxScore,
		record.Percentage,
		verdict,
		float64(record.TimeElapsedMS) / float64(time.Minute.Milliseconds()),
	}
}

// formatAnswer renders the authored answer in the importer's cell
// syntax: letters for choices, ";"-separated entries for multi-value
// answers.
func formatAnswer(q *models.Question) string {
	switch q.Type {
	case models.SingleChoice:
		if idx, ok := q.CorrectAnswer.(int); ok && idx >= 0 && idx < 26 {
			return string(rune('A' + idx))
		}
	case models.MultipleSelect:
		if indices, ok := q.CorrectAnswer.([]int); ok {
			letters := make([]string, 0, len(indices))
			for _, idx := range indices {
				if idx >= 0 && idx < 26 {
					letters = append(letters, string(rune('A'+idx)))
				}
			}
			return strings.Join(letters, ";")
		}
	case models.FillBlank:
		if blanks, ok := q.CorrectAnswer.([]string); ok {
			return strings.Join(blanks, ";")
		}
	}
	return fmt.Sprint(q.CorrectAnswer)
}
