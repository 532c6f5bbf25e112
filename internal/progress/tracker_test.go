package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnspark/assessment-engine/internal/models"
	"github.com/learnspark/assessment-engine/internal/store"
	"github.com/learnspark/assessment-engine/internal/utils"
)

func newTestTracker() (*Tracker, *store.MemoryStore) {
	st := store.NewMemoryStore()
	tr := NewTracker(st, utils.NewDevelopmentLogger())
	tr.now = func() time.Time { return time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC) }
	return tr, st
}

func resultWith(total, correct int) *models.Result {
	r := &models.Result{
		AssessmentID:   "quiz-1",
		TotalQuestions: total,
		Breakdown:      make([]models.QuestionResult, total),
	}
	for i := 0; i < correct; i++ {
		r.Breakdown[i].Correct = true
	}
	return r
}

func TestTracker_PointAwards(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	t.Run("Per_Correct_Answer", func(t *testing.T) {
		data, err := tr.Apply(ctx, resultWith(5, 3))
		require.NoError(t, err)
		assert.Equal(t, 30, data.TotalPoints)
		assert.Equal(t, 3, data.CorrectAnswers)
		assert.Equal(t, 0, data.PerfectQuizzes)
	})

	t.Run("Perfect_Quiz_Bonus", func(t *testing.T) {
		data, err := tr.Apply(ctx, resultWith(5, 5))
		require.NoError(t, err)
		// previous 30 + 5*10 + 50 bonus
		assert.Equal(t, 130, data.TotalPoints)
		assert.Equal(t, 1, data.PerfectQuizzes)
		assert.Equal(t, 2, data.Level, "130 points is level 2")
	})
}

func TestTracker_ProfilePersists(t *testing.T) {
	tr, st := newTestTracker()
	ctx := context.Background()

	_, err := tr.Apply(ctx, resultWith(4, 2))
	require.NoError(t, err)

	// A fresh tracker on the same store sees the profile.
	other := NewTracker(st, utils.NewDevelopmentLogger())
	data, err := other.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, data.TotalPoints)
	assert.Equal(t, 1, data.AssessmentsTaken)
}

func TestTracker_Streak(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return day }

	data, err := tr.Apply(ctx, resultWith(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, data.Streak)

	t.Run("Same_Day_Keeps_Streak", func(t *testing.T) {
		data, err := tr.Apply(ctx, resultWith(1, 1))
		require.NoError(t, err)
		assert.Equal(t, 1, data.Streak)
	})

	t.Run("Next_Day_Extends", func(t *testing.T) {
		day = day.AddDate(0, 0, 1)
		data, err := tr.Apply(ctx, resultWith(1, 1))
		require.NoError(t, err)
		assert.Equal(t, 2, data.Streak)
	})

	t.Run("Gap_Resets", func(t *testing.T) {
		day = day.AddDate(0, 0, 3)
		data, err := tr.Apply(ctx, resultWith(1, 1))
		require.NoError(t, err)
		assert.Equal(t, 1, data.Streak)
	})
}

func TestTracker_Badges(t *testing.T) {
	tr, _ := newTestTracker()
	ctx := context.Background()

	data, err := tr.Apply(ctx, resultWith(2, 2))
	require.NoError(t, err)
	assert.Contains(t, data.Badges, BadgeFirstAssessment)
	assert.Contains(t, data.Badges, BadgePerfectScore)

	// Badges are not duplicated on repeat awards.
	data, err = tr.Apply(ctx, resultWith(2, 2))
	require.NoError(t, err)
	count := 0
	for _, b := range data.Badges {
		if b == BadgePerfectScore {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestTracker_CorruptProfileStartsFresh(t *testing.T) {
	tr, st := newTestTracker()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, UserDataKey, "{broken"))

	data, err := tr.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, data.TotalPoints)
	assert.Equal(t, 1, data.Level)
}

func TestTracker_Reset(t *testing.T) {
	tr, st := newTestTracker()
	ctx := context.Background()

	_, err := tr.Apply(ctx, resultWith(1, 1))
	require.NoError(t, err)
	require.Equal(t, 1, st.Len())

	require.NoError(t, tr.Reset(ctx))
	assert.Equal(t, 0, st.Len())

	data, err := tr.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, data.TotalPoints)
}
