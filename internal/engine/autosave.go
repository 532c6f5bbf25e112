package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/learnspark/assessment-engine/internal/events"
	"github.com/learnspark/assessment-engine/internal/models"
	"github.com/learnspark/assessment-engine/internal/store"
)

// SaveKey is the store key a session snapshot is persisted under.
func SaveKey(assessmentID string) string {
	return "assessment_save_" + assessmentID
}

// AutoSave persists the current session snapshot immediately, regardless
// of the AutoSave option. Persistence failures are recoverable: they are
// reported through the error channel and never abort the session.
func (e *Engine) AutoSave(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.activeLocked() {
		return ErrNoAssessment
	}
	e.autoSaveLocked(ctx)
	return nil
}

func (e *Engine) autoSaveLocked(ctx context.Context) {
	if e.store == nil || !e.activeLocked() {
		return
	}

	timeSpent := make(map[string]int64, len(e.session.TimeSpent))
	for id, d := range e.session.TimeSpent {
		timeSpent[id] = d.Milliseconds()
	}
	snapshot := models.SavedSession{
		AssessmentID: e.assessment.ID,
		CurrentIndex: e.session.CurrentIndex,
		Responses:    e.responses,
		TimeSpentMS:  timeSpent,
		StartedAt:    e.session.StartedAt,
		SavedAt:      e.now(),
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		e.reportError(ctx, "auto_save", fmt.Errorf("marshal session snapshot: %w", err))
		return
	}
	if err := e.store.Set(ctx, SaveKey(e.assessment.ID), string(payload)); err != nil {
		e.reportError(ctx, "auto_save", fmt.Errorf("persist session snapshot: %w", err))
		return
	}

	e.logger.Debug("Session auto-saved",
		"assessment_id", e.assessment.ID,
		"index", e.session.CurrentIndex,
		"responses", len(e.responses))
}

// Resume restores a previously saved session for the loaded assessment.
// It returns false when no usable snapshot exists: a missing key and a
// snapshot that fails to decode both count as "nothing to resume", and a
// corrupt snapshot is discarded so the next save starts clean. A
// snapshot recorded for a different assessment fails with
// ErrAssessmentMismatch.
func (e *Engine) Resume(ctx context.Context, assessmentID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return false, ErrNoAssessment
	}
	if e.session.Status == models.SessionCompleted {
		return false, ErrAlreadyCompleted
	}
	if assessmentID != e.assessment.ID {
		return false, fmt.Errorf("%w: have %q, requested %q", ErrAssessmentMismatch, e.assessment.ID, assessmentID)
	}
	if e.store == nil {
		return false, nil
	}

	raw, err := e.store.Get(ctx, SaveKey(assessmentID))
	if err != nil {
		if store.IsNotFound(err) {
			return false, nil
		}
		e.reportError(ctx, "resume", fmt.Errorf("read session snapshot: %w", err))
		return false, nil
	}

	var snapshot models.SavedSession
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		e.reportError(ctx, "resume", fmt.Errorf("decode session snapshot: %w", err))
		if rmErr := e.store.Remove(ctx, SaveKey(assessmentID)); rmErr != nil {
			e.logger.Warn("Failed to discard corrupt snapshot", "error", rmErr)
		}
		return false, nil
	}
	if snapshot.AssessmentID != e.assessment.ID {
		return false, fmt.Errorf("%w: snapshot is for %q", ErrAssessmentMismatch, snapshot.AssessmentID)
	}

	index := snapshot.CurrentIndex
	if index < 0 {
		index = 0
	}
	if max := len(e.assessment.Questions) - 1; index > max {
		index = max
	}

	now := e.now()
	e.session.CurrentIndex = index
	e.session.QuestionStartedAt = now
	if !snapshot.StartedAt.IsZero() {
		e.session.StartedAt = snapshot.StartedAt
	}
	e.session.TimeSpent = make(map[string]time.Duration, len(snapshot.TimeSpentMS))
	for id, ms := range snapshot.TimeSpentMS {
		e.session.TimeSpent[id] = time.Duration(ms) * time.Millisecond
	}
	e.responses = snapshot.Responses
	if e.responses == nil {
		e.responses = make(map[string]any)
	}

	e.startQuestionTimerLocked()
	e.publish(ctx, events.NewAssessmentLoadedEvent(
		e.assessment.ID, e.assessment.Title, e.assessment.Subject,
		len(e.assessment.Questions), true))

	e.logger.Info("Session resumed",
		"assessment_id", e.assessment.ID,
		"index", index,
		"responses", len(e.responses))

	return true, nil
}

// ClearSaved removes the persisted snapshot for an assessment. Typically
// called after a result has been archived.
func (e *Engine) ClearSaved(ctx context.Context, assessmentID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store == nil {
		return nil
	}
	if err := e.store.Remove(ctx, SaveKey(assessmentID)); err != nil && !store.IsNotFound(err) {
		return fmt.Errorf("clear saved session: %w", err)
	}
	return nil
}
