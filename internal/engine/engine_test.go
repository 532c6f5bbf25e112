package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnspark/assessment-engine/internal/events"
	"github.com/learnspark/assessment-engine/internal/models"
	"github.com/learnspark/assessment-engine/internal/store"
	"github.com/learnspark/assessment-engine/internal/utils"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.current }

func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func fixtureAssessment() *models.Assessment {
	return &models.Assessment{
		ID:           "quiz-planets",
		Title:        "Planets",
		Subject:      "science",
		Difficulty:   models.DifficultyMedium,
		PassingScore: 70,
		Questions: []models.Question{
			{
				ID:            "q_0",
				Type:          models.SingleChoice,
				Prompt:        "Which planet is closest to the sun?",
				Options:       []string{"Venus", "Mercury", "Mars"},
				CorrectAnswer: 1,
				Points:        1,
			},
			{
				ID:            "q_1",
				Type:          models.TrueFalse,
				Prompt:        "Jupiter is a gas giant.",
				CorrectAnswer: true,
				Points:        1,
			},
			{
				ID:            "q_2",
				Type:          models.MultipleSelect,
				Prompt:        "Which of these are rocky planets?",
				Options:       []string{"Mercury", "Saturn", "Venus", "Neptune"},
				CorrectAnswer: []int{0, 2},
				Points:        2,
			},
		},
	}
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *events.MockEventPublisher, *fakeClock) {
	t.Helper()
	publisher := events.NewMockEventPublisher(nil)
	e := New(store.NewMemoryStore(), publisher, utils.NewDevelopmentLogger(), opts)
	clock := newFakeClock()
	e.now = clock.Now
	return e, publisher, clock
}

func TestEngine_LoadStartsFreshSession(t *testing.T) {
	e, publisher, _ := newTestEngine(t, DefaultOptions())
	ctx := context.Background()

	require.NoError(t, e.Load(ctx, fixtureAssessment()))

	assert.Equal(t, models.SessionInProgress, e.Status())
	assert.Equal(t, 0, e.CurrentIndex())

	q, err := e.CurrentQuestion()
	require.NoError(t, err)
	assert.Equal(t, "q_0", q.ID)

	loaded := publisher.EventsOfType(events.EventAssessmentLoaded)
	require.Len(t, loaded, 1)
}

func TestEngine_LoadRejectsEmptyAssessment(t *testing.T) {
	e, _, _ := newTestEngine(t, DefaultOptions())

	assert.ErrorIs(t, e.Load(context.Background(), nil), ErrNoAssessment)
	assert.ErrorIs(t, e.Load(context.Background(), &models.Assessment{ID: "empty"}), ErrNoAssessment)
}

func TestEngine_NavigationBounds(t *testing.T) {
	e, publisher, _ := newTestEngine(t, DefaultOptions())
	ctx := context.Background()
	require.NoError(t, e.Load(ctx, fixtureAssessment()))

	t.Run("Previous_At_Start_Is_NoOp", func(t *testing.T) {
		e.Previous(ctx)
		assert.Equal(t, 0, e.CurrentIndex())
	})

	t.Run("Next_Advances", func(t *testing.T) {
		e.Next(ctx)
		assert.Equal(t, 1, e.CurrentIndex())
	})

	t.Run("Next_At_End_Is_NoOp", func(t *testing.T) {
		e.Next(ctx)
		require.Equal(t, 2, e.CurrentIndex())
		e.Next(ctx)
		assert.Equal(t, 2, e.CurrentIndex(), "navigation must not wrap")
		assert.Equal(t, models.SessionInProgress, e.Status(), "Next at the end must not finish")
	})

	t.Run("GoTo_Out_Of_Range", func(t *testing.T) {
		assert.ErrorIs(t, e.GoTo(ctx, -1), ErrIndexOutOfRange)
		assert.ErrorIs(t, e.GoTo(ctx, 3), ErrIndexOutOfRange)
		assert.Equal(t, 2, e.CurrentIndex(), "failed jump must not move the session")
	})

	t.Run("GoTo_Valid", func(t *testing.T) {
		require.NoError(t, e.GoTo(ctx, 0))
		assert.Equal(t, 0, e.CurrentIndex())
	})

	changed := publisher.EventsOfType(events.EventQuestionChanged)
	assert.Len(t, changed, 3, "only real moves emit question.changed")
}

func TestEngine_TimeCommitOnNavigation(t *testing.T) {
	e, _, clock := newTestEngine(t, DefaultOptions())
	ctx := context.Background()
	require.NoError(t, e.Load(ctx, fixtureAssessment()))

	clock.Advance(20 * time.Second)
	e.Next(ctx) // commits 20s to q_0

	clock.Advance(5 * time.Second)
	e.Previous(ctx) // commits 5s to q_1

	clock.Advance(10 * time.Second)
	e.Next(ctx) // commits another 10s to q_0

	result, err := e.Finish(ctx)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, result.QuestionTimes["q_0"], "revisits accumulate into the same bucket")
	assert.Equal(t, 5*time.Second, result.QuestionTimes["q_1"])
	assert.Equal(t, 35*time.Second, result.TimeElapsed)
}

func TestEngine_RecordResponse(t *testing.T) {
	e, publisher, _ := newTestEngine(t, DefaultOptions())
	ctx := context.Background()
	require.NoError(t, e.Load(ctx, fixtureAssessment()))

	t.Run("Roundtrip", func(t *testing.T) {
		require.NoError(t, e.RecordResponse(ctx, "q_0", 1))
		got, ok := e.Response("q_0")
		require.True(t, ok)
		assert.Equal(t, 1, got)
	})

	t.Run("Overwrite_Keeps_Latest", func(t *testing.T) {
		require.NoError(t, e.RecordResponse(ctx, "q_0", 2))
		got, _ := e.Response("q_0")
		assert.Equal(t, 2, got)
	})

	t.Run("Survives_Navigation", func(t *testing.T) {
		e.Next(ctx)
		e.Previous(ctx)
		got, ok := e.Response("q_0")
		require.True(t, ok)
		assert.Equal(t, 2, got)
	})

	t.Run("Unknown_Question", func(t *testing.T) {
		err := e.RecordResponse(ctx, "q_99", 0)
		assert.ErrorIs(t, err, ErrQuestionNotFound)
	})

	t.Run("Shape_Mismatch_Is_Stored", func(t *testing.T) {
		require.NoError(t, e.RecordResponse(ctx, "q_2", "not a selection"))
		got, ok := e.Response("q_2")
		require.True(t, ok)
		assert.Equal(t, "not a selection", got)
	})

	changed := publisher.EventsOfType(events.EventResponseChanged)
	assert.Len(t, changed, 3)
}

func TestEngine_FinishIsIdempotent(t *testing.T) {
	e, publisher, _ := newTestEngine(t, DefaultOptions())
	ctx := context.Background()
	require.NoError(t, e.Load(ctx, fixtureAssessment()))

	require.NoError(t, e.RecordResponse(ctx, "q_0", 1))

	first, err := e.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, e.Status())

	second, err := e.Finish(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second, "second finish returns the cached result")

	completed := publisher.EventsOfType(events.EventAssessmentCompleted)
	assert.Len(t, completed, 1, "completion event fires exactly once")
}

func TestEngine_CompletedSessionRejectsMutation(t *testing.T) {
	e, _, _ := newTestEngine(t, DefaultOptions())
	ctx := context.Background()
	require.NoError(t, e.Load(ctx, fixtureAssessment()))

	_, err := e.Finish(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, e.RecordResponse(ctx, "q_0", 1), ErrAlreadyCompleted)
	assert.ErrorIs(t, e.GoTo(ctx, 1), ErrAlreadyCompleted)

	idx := e.CurrentIndex()
	e.Next(ctx)
	assert.Equal(t, idx, e.CurrentIndex(), "navigation after completion is inert")
}

func TestEngine_Snapshot(t *testing.T) {
	e, _, _ := newTestEngine(t, DefaultOptions())
	ctx := context.Background()
	require.NoError(t, e.Load(ctx, fixtureAssessment()))

	require.NoError(t, e.RecordResponse(ctx, "q_0", 1))

	snap, err := e.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "quiz-planets", snap.AssessmentID)
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.Equal(t, 3, snap.TotalQuestions)
	assert.Equal(t, "q_0", snap.Question.ID)
	assert.Equal(t, 1, snap.Response)
	assert.Equal(t, 1, snap.Answered)
	assert.InDelta(t, 1.0/3.0, snap.Progress, 1e-9)

	e.Next(ctx)
	snap, err = e.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, snap.Response, "no stored response for the new question")
	assert.InDelta(t, 2.0/3.0, snap.Progress, 1e-9)
}

func TestEngine_ErrorHandlerPanicIsContained(t *testing.T) {
	failing := &failingStore{}
	publisher := events.NewMockEventPublisher(nil)
	e := New(failing, publisher, utils.NewDevelopmentLogger(), DefaultOptions())
	e.SetErrorHandler(func(error) { panic("handler bug") })

	ctx := context.Background()
	require.NoError(t, e.Load(ctx, fixtureAssessment()))

	// AutoSave hits the failing store, which reports through the
	// panicking handler; the session must survive both.
	require.NoError(t, e.RecordResponse(ctx, "q_0", 1))
	assert.Equal(t, models.SessionInProgress, e.Status())

	errs := publisher.EventsOfType(events.EventEngineError)
	assert.NotEmpty(t, errs, "store failure still reaches the error channel")
}
