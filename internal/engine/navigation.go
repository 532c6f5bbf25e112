package engine

import (
	"context"
	"time"

	"github.com/learnspark/assessment-engine/internal/events"
	"github.com/learnspark/assessment-engine/internal/models"
)

// ===== NAVIGATION =====
//
// Every move follows the same commit-then-move protocol: commit the
// elapsed time into the outgoing question's bucket, update the index,
// then re-arm the per-question timer. Boundary calls are silent no-ops;
// navigation never wraps.

// Next advances to the following question. At the last index it does nothing.
func (e *Engine) Next(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.advanceLocked(ctx)
}

// Previous moves back one question. At index 0 it does nothing.
func (e *Engine) Previous(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.activeLocked() || e.session.CurrentIndex == 0 {
		return
	}

	e.commitQuestionTimeLocked()
	e.session.CurrentIndex--
	e.startQuestionTimerLocked()
	e.publish(ctx, events.NewQuestionChangedEvent(
		e.session.CurrentIndex, events.DirectionPrevious, e.currentQuestionLocked().ID))
}

// GoTo jumps to an arbitrary question. Targets outside
// [0, questionCount-1] fail with ErrIndexOutOfRange and leave the
// session untouched.
func (e *Engine) GoTo(ctx context.Context, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoAssessment
	}
	if e.session.Status == models.SessionCompleted {
		return ErrAlreadyCompleted
	}
	if index < 0 || index >= len(e.assessment.Questions) {
		return ErrIndexOutOfRange
	}
	if index == e.session.CurrentIndex {
		return nil
	}

	e.commitQuestionTimeLocked()
	e.session.CurrentIndex = index
	e.startQuestionTimerLocked()
	e.publish(ctx, events.NewQuestionChangedEvent(
		index, events.DirectionJump, e.currentQuestionLocked().ID))

	return nil
}

func (e *Engine) advanceLocked(ctx context.Context) {
	if !e.activeLocked() || e.session.CurrentIndex >= len(e.assessment.Questions)-1 {
		return
	}

	e.commitQuestionTimeLocked()
	e.session.CurrentIndex++
	e.startQuestionTimerLocked()
	e.publish(ctx, events.NewQuestionChangedEvent(
		e.session.CurrentIndex, events.DirectionNext, e.currentQuestionLocked().ID))
}

// commitQuestionTimeLocked folds the wall-clock time since the last
// navigation (or session start) into the current question's bucket and
// resets the per-question clock.
func (e *Engine) commitQuestionTimeLocked() {
	now := e.now()
	question := e.currentQuestionLocked()
	e.session.TimeSpent[question.ID] += now.Sub(e.session.QuestionStartedAt)
	e.session.QuestionStartedAt = now
}

// ===== QUESTION COUNTDOWN =====
//
// At most one countdown is armed at a time, always for the current
// question. Re-arming bumps the generation counter so a timer that
// already fired against a stale question is ignored.

func (e *Engine) startQuestionTimerLocked() {
	e.stopTimerLocked()

	if !e.opts.TimedMode {
		return
	}
	question := e.currentQuestionLocked()
	if question.TimeLimit <= 0 {
		return
	}

	gen := e.timerGen
	e.timer = time.AfterFunc(time.Duration(question.TimeLimit)*time.Second, func() {
		e.handleTimeUp(gen)
	})
}

func (e *Engine) stopTimerLocked() {
	e.timerGen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// handleTimeUp is the countdown expiry path: auto-advance through the
// same commit-then-move protocol as a manual call, or finish when the
// countdown elapsed on the last question.
func (e *Engine) handleTimeUp(gen int) {
	ctx := context.Background()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.activeLocked() || gen != e.timerGen {
		return
	}

	e.logger.Debug("Question time limit reached",
		"question_id", e.currentQuestionLocked().ID,
		"index", e.session.CurrentIndex)

	if e.session.CurrentIndex < len(e.assessment.Questions)-1 {
		e.advanceLocked(ctx)
	} else {
		e.finishLocked(ctx)
	}
}
