package engine

import (
	"context"
	"sync"
	"time"

	"github.com/learnspark/assessment-engine/internal/events"
	"github.com/learnspark/assessment-engine/internal/models"
	"github.com/learnspark/assessment-engine/internal/store"
	"github.com/learnspark/assessment-engine/internal/utils"
)

// Options configures one Engine instance.
type Options struct {
	// AutoSave persists a session snapshot after every recorded response.
	AutoSave bool
	// TimedMode arms the per-question countdown for questions that carry
	// a time limit. Expiry auto-advances (or finishes on the last question).
	TimedMode bool
}

// DefaultOptions mirror the defaults of the original option bag.
func DefaultOptions() Options {
	return Options{
		AutoSave:  true,
		TimedMode: false,
	}
}

// PartialCredit is the extension point for awarding partial points to an
// incorrect response. The default implementation always returns 0, which
// is the documented behavior; it is kept as a hook only.
type PartialCredit func(q *models.Question, response any) int

// Engine owns one assessment attempt: question sequencing, response
// capture, per-question timing, auto-save and scoring. All operations
// are synchronous; the only internal goroutine is the question countdown
// fired by TimedMode, which re-enters through the same lock.
type Engine struct {
	mu sync.Mutex

	opts      Options
	store     store.Store
	publisher events.Publisher
	logger    utils.Logger

	now           func() time.Time
	onError       func(error)
	partialCredit PartialCredit

	assessment *models.Assessment
	session    *models.Session
	responses  map[string]any
	result     *models.Result

	timer    *time.Timer
	timerGen int
}

// New creates an engine. The store and publisher may be nil; auto-save
// and event emission then become no-ops.
func New(st store.Store, publisher events.Publisher, logger utils.Logger, opts Options) *Engine {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Engine{
		opts:          opts,
		store:         st,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
		partialCredit: func(*models.Question, any) int { return 0 },
	}
}

// SetPartialCredit installs a partial-credit rule for questions that
// opt in. Must be called before Finish.
func (e *Engine) SetPartialCredit(fn PartialCredit) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn != nil {
		e.partialCredit = fn
	}
}

// SetErrorHandler installs the recoverable-error callback. Persistence
// and serialization failures are delivered here (and as engine.error
// events); they never abort the in-memory session.
func (e *Engine) SetErrorHandler(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = fn
}

// Load starts a fresh session for a normalized assessment. Any previous
// session state is discarded and its timer cancelled.
func (e *Engine) Load(ctx context.Context, assessment *models.Assessment) error {
	if assessment == nil || len(assessment.Questions) == 0 {
		return ErrNoAssessment
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTimerLocked()

	now := e.now()
	e.assessment = assessment
	e.responses = make(map[string]any)
	e.result = nil
	e.session = &models.Session{
		Status:            models.SessionInProgress,
		CurrentIndex:      0,
		StartedAt:         now,
		QuestionStartedAt: now,
		TimeSpent:         make(map[string]time.Duration),
	}

	e.startQuestionTimerLocked()
	e.publish(ctx, events.NewAssessmentLoadedEvent(
		assessment.ID, assessment.Title, assessment.Subject, len(assessment.Questions), false))

	e.logger.Info("Assessment loaded",
		"assessment_id", assessment.ID,
		"questions", len(assessment.Questions))

	return nil
}

// CurrentIndex returns the 0-based index of the current question.
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return 0
	}
	return e.session.CurrentIndex
}

// CurrentQuestion returns a copy of the current question.
func (e *Engine) CurrentQuestion() (models.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return models.Question{}, ErrNoAssessment
	}
	return *e.currentQuestionLocked(), nil
}

// Status returns the session status.
func (e *Engine) Status() models.SessionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ""
	}
	return e.session.Status
}

// Result returns the cached Result of a completed session, or nil.
func (e *Engine) Result() *models.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// Snapshot builds the read-only view a renderer consumes: assessment
// metadata, the current question, any saved response for it, and the
// progress fraction.
func (e *Engine) Snapshot() (*models.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, ErrNoAssessment
	}

	question := *e.currentQuestionLocked()
	total := len(e.assessment.Questions)

	return &models.Snapshot{
		AssessmentID:   e.assessment.ID,
		Title:          e.assessment.Title,
		Subject:        e.assessment.Subject,
		Difficulty:     e.assessment.Difficulty,
		Status:         e.session.Status,
		CurrentIndex:   e.session.CurrentIndex,
		TotalQuestions: total,
		Question:       &question,
		Response:       e.responses[question.ID],
		Answered:       len(e.responses),
		Progress:       float64(e.session.CurrentIndex+1) / float64(total),
	}, nil
}

// Close commits a final auto-save and cancels any pending timer. The
// engine can be reused by loading another assessment.
func (e *Engine) Close(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil && e.session.Status == models.SessionInProgress && e.opts.AutoSave {
		e.autoSaveLocked(ctx)
	}
	e.stopTimerLocked()
}

func (e *Engine) currentQuestionLocked() *models.Question {
	return &e.assessment.Questions[e.session.CurrentIndex]
}

func (e *Engine) activeLocked() bool {
	return e.session != nil && e.session.Status == models.SessionInProgress
}

func (e *Engine) publish(ctx context.Context, event *events.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.LogError(err, "Failed to publish engine event", "event_type", event.Type)
	}
}

// reportError delivers a recoverable failure through the error channel:
// log, optional callback, engine.error event. It never panics the caller.
func (e *Engine) reportError(ctx context.Context, op string, err error) {
	e.logger.LogError(err, "Recoverable engine error", "op", op)

	if e.onError != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("Error handler panicked", "op", op, "panic", r)
				}
			}()
			e.onError(err)
		}()
	}

	e.publish(ctx, events.NewEngineErrorEvent(op, err))
}
