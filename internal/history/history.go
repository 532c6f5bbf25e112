package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/learnspark/assessment-engine/internal/models"
	"github.com/learnspark/assessment-engine/internal/utils"
)

// ErrNoAttempts is returned by Best and Stats when nothing has been
// recorded for the assessment.
var ErrNoAttempts = errors.New("no attempts recorded")

// AttemptRecord is the persisted row for one finished attempt. The
// response map and per-question breakdown are stored as JSON columns.
type AttemptRecord struct {
	ID            uint           `gorm:"primaryKey" json:"-"`
	AttemptID     string         `gorm:"uniqueIndex;size:64" json:"attempt_id"`
	AssessmentID  string         `gorm:"index;size:128" json:"assessment_id"`
	Title         string         `gorm:"size:256" json:"title"`
	Score         int            `json:"score"`
	MaxScore      int            `json:"max_score"`
	Percentage    int            `json:"percentage"`
	Passed        bool           `json:"passed"`
	TimeElapsedMS int64          `json:"time_elapsed_ms"`
	Responses     datatypes.JSON `json:"responses"`
	Breakdown     datatypes.JSON `json:"breakdown"`
	CompletedAt   time.Time      `gorm:"index" json:"completed_at"`
	CreatedAt     time.Time      `json:"-"`
}

func (AttemptRecord) TableName() string {
	return "attempt_history"
}

// Stats summarizes all recorded attempts for one assessment.
type Stats struct {
	AssessmentID   string  `json:"assessment_id"`
	Attempts       int     `json:"attempts"`
	BestPercentage int     `json:"best_percentage"`
	AvgPercentage  float64 `json:"avg_percentage"`
	Passes         int     `json:"passes"`
}

// History archives finished attempts in a local database.
type History struct {
	db     *gorm.DB
	logger utils.Logger
}

// New migrates the schema and returns the archive.
func New(db *gorm.DB, logger utils.Logger) (*History, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	if err := db.AutoMigrate(&AttemptRecord{}); err != nil {
		return nil, fmt.Errorf("migrate attempt history: %w", err)
	}
	return &History{db: db, logger: logger}, nil
}

// Record archives one result. Recording the same attempt twice is an
// error; attempt IDs are unique.
func (h *History) Record(ctx context.Context, result *models.Result) (*AttemptRecord, error) {
	if result == nil {
		return nil, fmt.Errorf("record attempt: nil result")
	}

	responses, err := json.Marshal(result.Responses)
	if err != nil {
		return nil, fmt.Errorf("marshal responses: %w", err)
	}
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("marshal breakdown: %w", err)
	}

	record := &AttemptRecord{
		AttemptID:     result.AttemptID,
		AssessmentID:  result.AssessmentID,
		Title:         result.Title,
		Score:         result.Score,
		MaxScore:      result.MaxScore,
		Percentage:    result.Percentage,
		Passed:        result.Passed,
		TimeElapsedMS: result.TimeElapsed.Milliseconds(),
		Responses:     datatypes.JSON(responses),
		Breakdown:     datatypes.JSON(breakdown),
		CompletedAt:   result.CompletedAt,
	}

	if err := h.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	h.logger.Info("Attempt archived",
		"attempt_id", record.AttemptID,
		"assessment_id", record.AssessmentID,
		"percentage", record.Percentage)

	return record, nil
}

// List returns attempts for an assessment, newest first. A limit of 0
// means no limit. An empty assessmentID lists attempts across all
// assessments.
func (h *History) List(ctx context.Context, assessmentID string, limit int) ([]AttemptRecord, error) {
	query := h.db.WithContext(ctx).Order("completed_at DESC")
	if assessmentID != "" {
		query = query.Where("assessment_id = ?", assessmentID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []AttemptRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return records, nil
}

// Best returns the highest-scoring attempt for an assessment. Ties go to
// the earlier attempt.
func (h *History) Best(ctx context.Context, assessmentID string) (*AttemptRecord, error) {
	var record AttemptRecord
	err := h.db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("percentage DESC, completed_at ASC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAttempts
		}
		return nil, fmt.Errorf("best attempt: %w", err)
	}
	return &record, nil
}

// Stats aggregates attempt counts and score statistics for an assessment.
func (h *History) Stats(ctx context.Context, assessmentID string) (*Stats, error) {
	var row struct {
		Attempts int
		Best     int
		Avg      float64
		Passes   int
	}
	err := h.db.WithContext(ctx).
		Model(&AttemptRecord{}).
		Select("COUNT(*) AS attempts, MAX(percentage) AS best, AVG(percentage) AS avg, SUM(CASE WHEN passed THEN 1 ELSE 0 END) AS passes").
		Where("assessment_id = ?", assessmentID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("attempt stats: %w", err)
	}
	if row.Attempts == 0 {
		return nil, ErrNoAttempts
	}

	return &Stats{
		AssessmentID:   assessmentID,
		Attempts:       row.Attempts,
		BestPercentage: row.Best,
		AvgPercentage:  row.Avg,
		Passes:         row.Passes,
	}, nil
}
