package models

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// Session is the runtime state of one attempt. The status machine is
// one-way: in_progress -> completed, no other transition exists.
type Session struct {
	Status            SessionStatus
	CurrentIndex      int
	StartedAt         time.Time
	QuestionStartedAt time.Time
	// TimeSpent accumulates wall-clock time per question ID. Time is
	// committed on every navigation away from a question and on finish.
	TimeSpent map[string]time.Duration
}

// SavedSession is the auto-save snapshot persisted to the store under
// "assessment_save_<assessment id>". Field layout is the resume contract;
// unknown or malformed payloads are treated as "no saved session".
type SavedSession struct {
	AssessmentID string           `json:"assessment_id"`
	CurrentIndex int              `json:"current_index"`
	Responses    map[string]any   `json:"responses"`
	TimeSpentMS  map[string]int64 `json:"time_spent_ms"`
	StartedAt    time.Time        `json:"started_at"`
	SavedAt      time.Time        `json:"saved_at"`
}

// Snapshot is the read-only view handed to a renderer. It never contains
// markup; presentation is entirely the caller's concern.
type Snapshot struct {
	AssessmentID   string          `json:"assessment_id"`
	Title          string          `json:"title"`
	Subject        string          `json:"subject"`
	Difficulty     DifficultyLevel `json:"difficulty"`
	Status         SessionStatus   `json:"status"`
	CurrentIndex   int             `json:"current_index"`
	TotalQuestions int             `json:"total_questions"`
	Question       *Question       `json:"question"`
	Response       any             `json:"response,omitempty"`
	Answered       int             `json:"answered"`
	Progress       float64         `json:"progress"` // (currentIndex+1)/totalQuestions
}
