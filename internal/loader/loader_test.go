package loader

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/learnspark/assessment-engine/internal/errors"
	"github.com/learnspark/assessment-engine/internal/models"
	"github.com/learnspark/assessment-engine/internal/utils"
	"github.com/learnspark/assessment-engine/internal/validator"
)

func newTestLoader(opts Options) *Loader {
	return New(validator.New(), utils.NewDevelopmentLogger(), opts)
}

func rawFixture() *RawAssessment {
	passing := 70
	return &RawAssessment{
		ID:           "quiz-fractions",
		Title:        "Fractions Basics",
		Subject:      "mathematics",
		PassingScore: &passing,
		Questions: []RawQuestion{
			{
				ID:            "q1",
				Type:          "multiple-choice",
				Question:      "What is 1/2 + 1/4?",
				Options:       []string{"3/4", "2/6", "1/8"},
				CorrectAnswer: float64(0),
				Points:        2,
			},
			{
				Type:          "true-false",
				Question:      "1/2 is greater than 1/3.",
				CorrectAnswer: true,
			},
		},
	}
}

func TestLoader_Defaults(t *testing.T) {
	l := newTestLoader(Options{})

	assessment, err := l.Load(rawFixture())
	require.NoError(t, err)

	assert.Equal(t, "quiz-fractions", assessment.ID)
	assert.Equal(t, 70, assessment.PassingScore)
	assert.Equal(t, models.DifficultyMedium, assessment.Difficulty)
	assert.Equal(t, "mathematics", assessment.Subject)
	require.Len(t, assessment.Questions, 2)

	// Hyphenated authored types normalize to the model constants
	assert.Equal(t, models.SingleChoice, assessment.Questions[0].Type)
	assert.Equal(t, models.TrueFalse, assessment.Questions[1].Type)

	// Missing optional fields get defaults
	q2 := assessment.Questions[1]
	assert.Equal(t, "q_1", q2.ID)
	assert.Equal(t, 1, q2.Points)
	assert.NotNil(t, q2.Hints)
	assert.Empty(t, q2.Hints)

	assert.Equal(t, 3, assessment.TotalPoints())
}

func TestLoader_GeneratedAssessmentDefaults(t *testing.T) {
	l := newTestLoader(Options{})

	assessment, err := l.Load(&RawAssessment{
		Questions: []RawQuestion{{Question: "Pick one.", Options: []string{"a", "b"}}},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, assessment.ID)
	assert.Equal(t, "Assessment", assessment.Title)
	assert.Equal(t, "general", assessment.Subject)
	assert.Equal(t, 15, assessment.EstimatedTime)
	assert.Equal(t, 70, assessment.PassingScore)
}

func TestLoader_ValidationFailures(t *testing.T) {
	l := newTestLoader(Options{})

	t.Run("No_Questions", func(t *testing.T) {
		_, err := l.Load(&RawAssessment{Title: "Empty"})
		require.Error(t, err)

		var verrs apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "questions", verrs[0].Field)
	})

	t.Run("Missing_Prompt", func(t *testing.T) {
		_, err := l.Load(&RawAssessment{
			Questions: []RawQuestion{{Type: "short-answer", CorrectAnswer: "water"}},
		})
		require.Error(t, err)

		var verrs apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "questions[0].question", verrs[0].Field)
	})

	t.Run("Choice_Without_Options", func(t *testing.T) {
		_, err := l.Load(&RawAssessment{
			Questions: []RawQuestion{{Type: "multiple-choice", Question: "Pick one.", CorrectAnswer: 0}},
		})
		require.Error(t, err)

		var verrs apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "questions[0].options", verrs[0].Field)
	})

	t.Run("Nothing_Partial_On_Failure", func(t *testing.T) {
		raw := rawFixture()
		raw.Questions = append(raw.Questions, RawQuestion{Type: "short-answer"})
		assessment, err := l.Load(raw)
		assert.Error(t, err)
		assert.Nil(t, assessment)
	})
}

func TestLoader_LoadJSON(t *testing.T) {
	l := newTestLoader(Options{})

	t.Run("Valid_Document", func(t *testing.T) {
		doc := `{
			"id": "quiz-1",
			"title": "Colors",
			"passingScore": 50,
			"questions": [
				{"type": "fill-blank", "question": "A ripe tomato is ____.", "correctAnswer": ["red|crimson"]}
			]
		}`
		assessment, err := l.LoadJSON([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, 50, assessment.PassingScore)
		assert.Equal(t, models.FillBlank, assessment.Questions[0].Type)
	})

	t.Run("Malformed_Document", func(t *testing.T) {
		_, err := l.LoadJSON([]byte(`{"questions": [`))
		var verrs apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
	})
}

func TestLoader_RandomizeQuestions(t *testing.T) {
	raw := &RawAssessment{
		Questions: make([]RawQuestion, 10),
	}
	for i := range raw.Questions {
		raw.Questions[i] = RawQuestion{
			ID:       string(rune('a' + i)),
			Type:     "short-answer",
			Question: "placeholder prompt",
		}
	}

	l := newTestLoader(Options{
		RandomizeQuestions: true,
		Rand:               rand.New(rand.NewSource(42)),
	})
	assessment, err := l.Load(raw)
	require.NoError(t, err)

	ids := make(map[string]bool)
	order := make([]string, 0, 10)
	for _, q := range assessment.Questions {
		ids[q.ID] = true
		order = append(order, q.ID)
	}
	assert.Len(t, ids, 10, "shuffle must be a permutation")

	original := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	assert.NotEqual(t, original, order, "seed 42 should produce a different order")
}

func TestLoader_RandomizeOptionsRemapsAnswers(t *testing.T) {
	l := newTestLoader(Options{
		RandomizeOptions: true,
		Rand:             rand.New(rand.NewSource(7)),
	})

	raw := &RawAssessment{
		Questions: []RawQuestion{
			{
				Type:          "multiple-choice",
				Question:      "Which planet is closest to the sun?",
				Options:       []string{"Mercury", "Venus", "Earth", "Mars"},
				CorrectAnswer: float64(0),
			},
			{
				Type:          "multiple-select",
				Question:      "Which of these are primary colors?",
				Options:       []string{"red", "green", "blue", "yellow"},
				CorrectAnswer: []any{float64(0), float64(2), float64(3)},
			},
		},
	}

	assessment, err := l.Load(raw)
	require.NoError(t, err)

	single := assessment.Questions[0]
	idx, ok := single.CorrectAnswer.(int)
	require.True(t, ok, "remapped answer should be an int index")
	assert.Equal(t, "Mercury", single.Options[idx])

	multi := assessment.Questions[1]
	indices, ok := multi.CorrectAnswer.([]int)
	require.True(t, ok, "remapped answer should be an int index set")
	selected := make(map[string]bool)
	for _, i := range indices {
		selected[multi.Options[i]] = true
	}
	assert.True(t, selected["red"] && selected["blue"] && selected["yellow"])
	assert.False(t, selected["green"])
}

func TestLoader_UnknownTypeIsCarried(t *testing.T) {
	l := newTestLoader(Options{})

	assessment, err := l.Load(&RawAssessment{
		Questions: []RawQuestion{{Type: "word-cloud", Question: "Describe the water cycle."}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.QuestionType("word_cloud"), assessment.Questions[0].Type)
	assert.False(t, assessment.Questions[0].Type.Valid())
}
