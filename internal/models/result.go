package models

import "time"

// QuestionResult is the per-question breakdown entry of a Result.
type QuestionResult struct {
	QuestionID   string        `json:"question_id"`
	Prompt       string        `json:"prompt"`
	Response     any           `json:"response"`
	Answered     bool          `json:"answered"`
	Correct      bool          `json:"correct"`
	PointsEarned int           `json:"points_earned"`
	MaxPoints    int           `json:"max_points"`
	Explanation  string        `json:"explanation,omitempty"`
	TimeSpent    time.Duration `json:"time_spent"`
}

// Result is the immutable outcome of a completed session. It is computed
// exactly once; repeated finish calls return the same value.
type Result struct {
	AttemptID      string                   `json:"attempt_id"`
	AssessmentID   string                   `json:"assessment_id"`
	Title          string                   `json:"title"`
	TotalQuestions int                      `json:"total_questions"`
	Responses      map[string]any           `json:"responses"`
	Score          int                      `json:"score"`
	MaxScore       int                      `json:"max_score"`
	Percentage     int                      `json:"percentage"`
	Passed         bool                     `json:"passed"`
	TimeElapsed    time.Duration            `json:"time_elapsed"`
	QuestionTimes  map[string]time.Duration `json:"question_times"`
	Breakdown      []QuestionResult         `json:"breakdown"`
	CompletedAt    time.Time                `json:"completed_at"`
}

// CorrectCount is the number of correctly answered questions.
func (r *Result) CorrectCount() int {
	n := 0
	for i := range r.Breakdown {
		if r.Breakdown[i].Correct {
			n++
		}
	}
	return n
}
