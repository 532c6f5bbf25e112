package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnspark/assessment-engine/internal/models"
)

func TestLooseEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"Int_Vs_Float", 0, float64(0), true},
		{"Int_Vs_String", 2, "2", true},
		{"Bool_Vs_String", true, "true", true},
		{"String_Vs_Bool", "false", false, true},
		{"Different_Values", 1, 2, false},
		{"Float_Fraction", 0.5, "0.5", true},
		{"Nil_Never_Matches", nil, 0, false},
		{"Unsupported_Type", []int{1}, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, looseEqual(tc.a, tc.b))
		})
	}
}

func TestSelectionSetsEqual(t *testing.T) {
	t.Run("Order_Insensitive", func(t *testing.T) {
		assert.True(t, selectionSetsEqual([]any{float64(2), float64(0)}, []int{0, 2}))
	})
	t.Run("Mixed_Representations", func(t *testing.T) {
		assert.True(t, selectionSetsEqual([]any{"0", float64(2)}, []int{0, 2}))
	})
	t.Run("Missing_Element", func(t *testing.T) {
		assert.False(t, selectionSetsEqual([]int{0}, []int{0, 2}))
	})
	t.Run("Extra_Element", func(t *testing.T) {
		assert.False(t, selectionSetsEqual([]int{0, 1, 2}, []int{0, 2}))
	})
	t.Run("Not_A_Slice", func(t *testing.T) {
		assert.False(t, selectionSetsEqual(0, []int{0}))
	})
}

func TestEvaluateFillBlanks(t *testing.T) {
	expected := []string{"red|crimson", "water"}

	t.Run("Alternative_Match_Case_Insensitive", func(t *testing.T) {
		assert.True(t, evaluateFillBlanks([]string{"Crimson", " WATER "}, expected))
	})
	t.Run("First_Alternative", func(t *testing.T) {
		assert.True(t, evaluateFillBlanks([]string{"red", "water"}, expected))
	})
	t.Run("One_Blank_Wrong", func(t *testing.T) {
		assert.False(t, evaluateFillBlanks([]string{"red", "fire"}, expected))
	})
	t.Run("Length_Mismatch", func(t *testing.T) {
		assert.False(t, evaluateFillBlanks([]string{"red"}, expected))
	})
	t.Run("Single_String_For_Single_Blank", func(t *testing.T) {
		assert.True(t, evaluateFillBlanks("crimson", "red|crimson"))
	})
}

func TestEvaluateShortAnswer(t *testing.T) {
	expected := "Plants convert sunlight into energy"

	t.Run("Enough_Keywords", func(t *testing.T) {
		assert.True(t, evaluateShortAnswer("plants use sunlight to make energy and convert it", expected))
	})
	t.Run("Containment_Counts", func(t *testing.T) {
		// "sunlight," still contains the keyword "sunlight"
		assert.True(t, evaluateShortAnswer("plants convert sunlight, producing energy", expected))
	})
	t.Run("Too_Few_Keywords", func(t *testing.T) {
		assert.False(t, evaluateShortAnswer("they grow", expected))
	})
	t.Run("No_Significant_Words_In_Model", func(t *testing.T) {
		assert.False(t, evaluateShortAnswer("anything", "a an it"))
	})
	t.Run("Non_String_Response", func(t *testing.T) {
		assert.False(t, evaluateShortAnswer(42, expected))
	})
}

func TestFinish_Scoring(t *testing.T) {
	ctx := context.Background()

	t.Run("All_Correct", func(t *testing.T) {
		e, _, _ := newTestEngine(t, DefaultOptions())
		require.NoError(t, e.Load(ctx, fixtureAssessment()))

		require.NoError(t, e.RecordResponse(ctx, "q_0", 1))
		require.NoError(t, e.RecordResponse(ctx, "q_1", "true"))
		require.NoError(t, e.RecordResponse(ctx, "q_2", []any{float64(2), float64(0)}))

		result, err := e.Finish(ctx)
		require.NoError(t, err)

		assert.Equal(t, 4, result.Score)
		assert.Equal(t, 4, result.MaxScore)
		assert.Equal(t, 100, result.Percentage)
		assert.True(t, result.Passed)
		assert.Equal(t, 3, result.CorrectCount())
	})

	t.Run("Partial_And_Unanswered", func(t *testing.T) {
		e, _, _ := newTestEngine(t, DefaultOptions())
		require.NoError(t, e.Load(ctx, fixtureAssessment()))

		require.NoError(t, e.RecordResponse(ctx, "q_0", 1))   // correct, 1 pt
		require.NoError(t, e.RecordResponse(ctx, "q_1", false)) // wrong
		// q_2 unanswered

		result, err := e.Finish(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Score)
		assert.Equal(t, 4, result.MaxScore)
		assert.Equal(t, 25, result.Percentage)
		assert.False(t, result.Passed)

		require.Len(t, result.Breakdown, 3)
		assert.True(t, result.Breakdown[0].Correct)
		assert.False(t, result.Breakdown[1].Correct)
		assert.True(t, result.Breakdown[1].Answered)
		assert.False(t, result.Breakdown[2].Answered)
	})

	t.Run("Percentage_Rounds_Half_Up", func(t *testing.T) {
		// 1 of 3 single-point questions answered correctly: 33.33% -> 33.
		// 2 of 3: 66.67% -> 67, which clears a passing score of 67.
		a := &models.Assessment{
			ID:           "quiz-rounding",
			Title:        "Rounding",
			PassingScore: 67,
			Questions: []models.Question{
				{ID: "r_0", Type: models.TrueFalse, Prompt: "p", CorrectAnswer: true, Points: 1},
				{ID: "r_1", Type: models.TrueFalse, Prompt: "p", CorrectAnswer: true, Points: 1},
				{ID: "r_2", Type: models.TrueFalse, Prompt: "p", CorrectAnswer: true, Points: 1},
			},
		}

		e, _, _ := newTestEngine(t, DefaultOptions())
		require.NoError(t, e.Load(ctx, a))
		require.NoError(t, e.RecordResponse(ctx, "r_0", true))
		require.NoError(t, e.RecordResponse(ctx, "r_1", true))
		require.NoError(t, e.RecordResponse(ctx, "r_2", false))

		result, err := e.Finish(ctx)
		require.NoError(t, err)
		assert.Equal(t, 67, result.Percentage)
		assert.True(t, result.Passed)
	})

	t.Run("Exact_Passing_Score_Passes", func(t *testing.T) {
		a := &models.Assessment{
			ID:           "quiz-boundary",
			Title:        "Boundary",
			PassingScore: 50,
			Questions: []models.Question{
				{ID: "b_0", Type: models.TrueFalse, Prompt: "p", CorrectAnswer: true, Points: 1},
				{ID: "b_1", Type: models.TrueFalse, Prompt: "p", CorrectAnswer: true, Points: 1},
			},
		}

		e, _, _ := newTestEngine(t, DefaultOptions())
		require.NoError(t, e.Load(ctx, a))
		require.NoError(t, e.RecordResponse(ctx, "b_0", true))

		result, err := e.Finish(ctx)
		require.NoError(t, err)
		assert.Equal(t, 50, result.Percentage)
		assert.True(t, result.Passed, "percentage equal to the passing score passes")
	})

	t.Run("Unscorable_Types_Are_Incorrect", func(t *testing.T) {
		a := &models.Assessment{
			ID:           "quiz-matching",
			Title:        "Matching",
			PassingScore: 70,
			Questions: []models.Question{
				{ID: "m_0", Type: models.Matching, Prompt: "p", CorrectAnswer: []any{"a"}, Points: 1},
			},
		}

		e, _, _ := newTestEngine(t, DefaultOptions())
		require.NoError(t, e.Load(ctx, a))
		require.NoError(t, e.RecordResponse(ctx, "m_0", []any{"a"}))

		result, err := e.Finish(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Score)
		assert.False(t, result.Breakdown[0].Correct)
	})
}

func TestFinish_PartialCreditHook(t *testing.T) {
	ctx := context.Background()
	a := &models.Assessment{
		ID:           "quiz-partial",
		Title:        "Partial",
		PassingScore: 50,
		Questions: []models.Question{
			{
				ID:            "p_0",
				Type:          models.MultipleSelect,
				Prompt:        "Pick both primary colors",
				Options:       []string{"red", "green", "blue"},
				CorrectAnswer: []int{0, 2},
				Points:        4,
				PartialCredit: true,
			},
			{
				ID:            "p_1",
				Type:          models.TrueFalse,
				Prompt:        "p",
				CorrectAnswer: true,
				Points:        2,
				// no PartialCredit: the hook must not run for it
			},
		},
	}

	t.Run("Default_Hook_Awards_Zero", func(t *testing.T) {
		e, _, _ := newTestEngine(t, DefaultOptions())
		require.NoError(t, e.Load(ctx, a))
		require.NoError(t, e.RecordResponse(ctx, "p_0", []int{0}))

		result, err := e.Finish(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Score)
	})

	t.Run("Custom_Hook_Is_Clamped", func(t *testing.T) {
		e, _, _ := newTestEngine(t, DefaultOptions())
		e.SetPartialCredit(func(q *models.Question, response any) int {
			return 100 // deliberately above MaxPoints
		})
		require.NoError(t, e.Load(ctx, a))
		require.NoError(t, e.RecordResponse(ctx, "p_0", []int{0}))
		require.NoError(t, e.RecordResponse(ctx, "p_1", false))

		result, err := e.Finish(ctx)
		require.NoError(t, err)

		assert.Equal(t, 4, result.Breakdown[0].PointsEarned, "partial credit is capped at the question's points")
		assert.Equal(t, 0, result.Breakdown[1].PointsEarned, "hook only runs for opted-in questions")
		assert.False(t, result.Breakdown[0].Correct, "partial credit never flips correctness")
	})
}
