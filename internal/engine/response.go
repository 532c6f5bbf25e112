package engine

import (
	"context"
	"fmt"

	"github.com/learnspark/assessment-engine/internal/events"
	"github.com/learnspark/assessment-engine/internal/models"
)

// RecordResponse stores the user's answer for a question, overwriting
// any prior value. A response whose shape does not match the question
// type is stored as-is and will simply score as incorrect; shape
// problems are never fatal. Triggers an auto-save when enabled.
func (e *Engine) RecordResponse(ctx context.Context, questionID string, response any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoAssessment
	}
	if e.session.Status == models.SessionCompleted {
		return ErrAlreadyCompleted
	}

	question := e.assessment.QuestionByID(questionID)
	if question == nil {
		return fmt.Errorf("%w: %s", ErrQuestionNotFound, questionID)
	}

	if reason := responseShapeProblem(question, response); reason != "" {
		e.logger.Warn("Response shape does not match question type, storing as-is",
			"question_id", questionID,
			"question_type", string(question.Type),
			"reason", reason)
	}

	e.responses[questionID] = response
	e.publish(ctx, events.NewResponseChangedEvent(questionID, response))

	if e.opts.AutoSave {
		e.autoSaveLocked(ctx)
	}

	return nil
}

// Response returns the stored answer for a question, if any.
func (e *Engine) Response(questionID string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.responses == nil {
		return nil, false
	}
	value, ok := e.responses[questionID]
	return value, ok
}

// Responses returns a copy of the full response map.
func (e *Engine) Responses() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]any, len(e.responses))
	for k, v := range e.responses {
		out[k] = v
	}
	return out
}

// responseShapeProblem describes why a raw input does not fit the
// question's expected answer shape, or returns "" when it fits.
// Unknown question types accept anything.
func responseShapeProblem(q *models.Question, response any) string {
	switch q.Type {
	case models.SingleChoice:
		if _, ok := normalizeScalar(response); !ok {
			return "expected an option index"
		}
	case models.TrueFalse:
		if _, ok := normalizeScalar(response); !ok {
			return "expected a boolean value"
		}
	case models.MultipleSelect:
		if _, ok := toAnySlice(response); !ok {
			return "expected a set of option indices"
		}
	case models.FillBlank:
		values, ok := toStringSlice(response)
		if !ok {
			return "expected an ordered list of blank values"
		}
		if blanks, ok := toStringSlice(q.CorrectAnswer); ok && len(values) != len(blanks) {
			return fmt.Sprintf("expected %d blank values, got %d", len(blanks), len(values))
		}
	case models.ShortAnswer:
		if _, ok := response.(string); !ok {
			return "expected a text answer"
		}
	case models.Matching, models.Ordering, models.DragDrop:
		if _, ok := toAnySlice(response); !ok {
			if _, ok := response.(map[string]any); !ok {
				return "expected a list or mapping of items"
			}
		}
	}
	return ""
}
