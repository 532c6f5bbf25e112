package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/learnspark/assessment-engine/internal/models"
	"github.com/learnspark/assessment-engine/internal/store"
	"github.com/learnspark/assessment-engine/internal/utils"
)

// UserDataKey is the store key the learner profile is persisted under.
const UserDataKey = "gamification_user_data"

// Point awards per scoring action.
const (
	PointsCorrectAnswer = 10
	PointsPerfectQuiz   = 50
)

// pointsPerLevel: the level is totalPoints/100 + 1.
const pointsPerLevel = 100

// UserData is the persisted learner profile: points, level, streak and
// earned badges. One profile per store.
type UserData struct {
	TotalPoints      int      `json:"total_points"`
	Level            int      `json:"level"`
	AssessmentsTaken int      `json:"assessments_taken"`
	CorrectAnswers   int      `json:"correct_answers"`
	PerfectQuizzes   int      `json:"perfect_quizzes"`
	Streak           int      `json:"streak"`
	LastActivityDate string   `json:"last_activity_date"` // "2006-01-02"
	Badges           []string `json:"badges"`
}

// Badge identifiers.
const (
	BadgeFirstAssessment = "first_assessment"
	BadgePerfectScore    = "perfect_score"
	BadgeWeekStreak      = "week_streak"
	BadgeCentury         = "century" // 100 correct answers
)

// Tracker accumulates gamification state across assessment attempts.
type Tracker struct {
	store  store.Store
	logger utils.Logger
	now    func() time.Time
}

func NewTracker(st store.Store, logger utils.Logger) *Tracker {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Tracker{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Apply folds a finished attempt into the profile: 10 points per correct
// answer, a 50-point bonus for a perfect score, streak and badge
// bookkeeping. Returns the updated profile.
func (t *Tracker) Apply(ctx context.Context, result *models.Result) (*UserData, error) {
	if result == nil {
		return nil, fmt.Errorf("apply progress: nil result")
	}

	data, err := t.Current(ctx)
	if err != nil {
		return nil, err
	}

	correct := result.CorrectCount()
	perfect := result.TotalQuestions > 0 && correct == result.TotalQuestions

	data.AssessmentsTaken++
	data.CorrectAnswers += correct
	data.TotalPoints += correct * PointsCorrectAnswer
	if perfect {
		data.PerfectQuizzes++
		data.TotalPoints += PointsPerfectQuiz
	}
	data.Level = data.TotalPoints/pointsPerLevel + 1

	t.updateStreak(data)
	t.awardBadges(data, perfect)

	if err := t.persist(ctx, data); err != nil {
		return nil, err
	}

	t.logger.Info("Progress updated",
		"assessment_id", result.AssessmentID,
		"points_total", data.TotalPoints,
		"level", data.Level,
		"streak", data.Streak)

	return data, nil
}

// Current loads the profile, returning a zero-valued one when none has
// been saved yet. A profile that fails to decode is treated as absent.
func (t *Tracker) Current(ctx context.Context) (*UserData, error) {
	fresh := &UserData{Level: 1, Badges: []string{}}
	if t.store == nil {
		return fresh, nil
	}

	raw, err := t.store.Get(ctx, UserDataKey)
	if err != nil {
		if store.IsNotFound(err) {
			return fresh, nil
		}
		return nil, fmt.Errorf("load user data: %w", err)
	}

	var data UserData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.logger.Warn("Discarding undecodable user data", "error", err)
		return fresh, nil
	}
	if data.Level == 0 {
		data.Level = 1
	}
	if data.Badges == nil {
		data.Badges = []string{}
	}
	return &data, nil
}

// Reset deletes the stored profile.
func (t *Tracker) Reset(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	if err := t.store.Remove(ctx, UserDataKey); err != nil && !store.IsNotFound(err) {
		return fmt.Errorf("reset user data: %w", err)
	}
	return nil
}

// updateStreak maintains the consecutive-day counter: same day keeps it,
// the next calendar day extends it, any gap resets it to 1.
func (t *Tracker) updateStreak(data *UserData) {
	today := t.now().Format("2006-01-02")
	switch data.LastActivityDate {
	case today:
		// second attempt today, streak unchanged
	case t.now().AddDate(0, 0, -1).Format("2006-01-02"):
		data.Streak++
	default:
		data.Streak = 1
	}
	data.LastActivityDate = today
}

func (t *Tracker) awardBadges(data *UserData, perfect bool) {
	award := func(badge string) {
		if !slices.Contains(data.Badges, badge) {
			data.Badges = append(data.Badges, badge)
			t.logger.Info("Badge earned", "badge", badge)
		}
	}

	if data.AssessmentsTaken >= 1 {
		award(BadgeFirstAssessment)
	}
	if perfect {
		award(BadgePerfectScore)
	}
	if data.Streak >= 7 {
		award(BadgeWeekStreak)
	}
	if data.CorrectAnswers >= 100 {
		award(BadgeCentury)
	}
}

func (t *Tracker) persist(ctx context.Context, data *UserData) error {
	if t.store == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal user data: %w", err)
	}
	if err := t.store.Set(ctx, UserDataKey, string(payload)); err != nil {
		return fmt.Errorf("persist user data: %w", err)
	}
	return nil
}
