package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the engine's observable lifecycle events
type EventType string

const (
	// Session events
	EventAssessmentLoaded    EventType = "assessment.loaded"
	EventQuestionChanged     EventType = "question.changed"
	EventResponseChanged     EventType = "response.changed"
	EventAssessmentCompleted EventType = "assessment.completed"

	// Error channel: recoverable failures (persistence, serialization)
	// reported without interrupting the session
	EventEngineError EventType = "engine.error"
)

// Navigation directions carried by question.changed
const (
	DirectionNext     = "next"
	DirectionPrevious = "previous"
	DirectionJump     = "jump"
)

// Event is the base structure for all engine events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type AssessmentLoadedEvent struct {
	AssessmentID  string `json:"assessment_id"`
	Title         string `json:"title"`
	Subject       string `json:"subject"`
	QuestionCount int    `json:"question_count"`
	Resumed       bool   `json:"resumed"`
}

type QuestionChangedEvent struct {
	Index      int    `json:"index"`
	Direction  string `json:"direction"`
	QuestionID string `json:"question_id"`
}

type ResponseChangedEvent struct {
	QuestionID string      `json:"question_id"`
	Response   interface{} `json:"response"`
}

type AssessmentCompletedEvent struct {
	AttemptID     string `json:"attempt_id"`
	AssessmentID  string `json:"assessment_id"`
	Score         int    `json:"score"`
	MaxScore      int    `json:"max_score"`
	Percentage    int    `json:"percentage"`
	Passed        bool   `json:"passed"`
	TimeElapsedMS int64  `json:"time_elapsed_ms"`
}

type EngineErrorEvent struct {
	Op      string `json:"op"`
	Message string `json:"message"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "assessment-engine",
		Version:   "1.0",
		Data:      data,
	}
}

func NewAssessmentLoadedEvent(assessmentID, title, subject string, questionCount int, resumed bool) *Event {
	return newEvent(EventAssessmentLoaded, AssessmentLoadedEvent{
		AssessmentID:  assessmentID,
		Title:         title,
		Subject:       subject,
		QuestionCount: questionCount,
		Resumed:       resumed,
	})
}

func NewQuestionChangedEvent(index int, direction, questionID string) *Event {
	return newEvent(EventQuestionChanged, QuestionChangedEvent{
		Index:      index,
		Direction:  direction,
		QuestionID: questionID,
	})
}

func NewResponseChangedEvent(questionID string, response interface{}) *Event {
	return newEvent(EventResponseChanged, ResponseChangedEvent{
		QuestionID: questionID,
		Response:   response,
	})
}

func NewAssessmentCompletedEvent(attemptID, assessmentID string, score, maxScore, percentage int, passed bool, elapsed time.Duration) *Event {
	return newEvent(EventAssessmentCompleted, AssessmentCompletedEvent{
		AttemptID:     attemptID,
		AssessmentID:  assessmentID,
		Score:         score,
		MaxScore:      maxScore,
		Percentage:    percentage,
		Passed:        passed,
		TimeElapsedMS: elapsed.Milliseconds(),
	})
}

func NewEngineErrorEvent(op string, err error) *Event {
	return newEvent(EventEngineError, EngineErrorEvent{
		Op:      op,
		Message: err.Error(),
	})
}
