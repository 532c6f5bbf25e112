package models

// Assessment is a fully normalized quiz unit: ordered questions plus
// scoring metadata. It is produced by the loader and immutable for the
// lifetime of one attempt (the loader applies randomization before the
// Assessment is handed to the engine).
type Assessment struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Subject       string          `json:"subject"`
	Difficulty    DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	EstimatedTime int             `json:"estimated_time"` // minutes
	PassingScore  int             `json:"passing_score" validate:"min=0,max=100"`
	Questions     []Question      `json:"questions" validate:"required,min=1,dive"`
}

// TotalPoints is the maximum achievable score.
func (a *Assessment) TotalPoints() int {
	total := 0
	for i := range a.Questions {
		total += a.Questions[i].Points
	}
	return total
}

// QuestionByID returns the question with the given identifier, or nil.
func (a *Assessment) QuestionByID(id string) *Question {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i]
		}
	}
	return nil
}
