package models

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleSelect QuestionType = "multiple_select"
	TrueFalse      QuestionType = "true_false"
	FillBlank      QuestionType = "fill_blank"
	ShortAnswer    QuestionType = "short_answer"
	Matching       QuestionType = "matching"
	Ordering       QuestionType = "ordering"
	DragDrop       QuestionType = "drag_drop"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// Question is a single normalized question within an Assessment.
//
// CorrectAnswer is type-dependent and kept loosely typed on purpose:
// an option index for single_choice, a set of indices for multiple_select,
// a bool (or "true"/"false") for true_false, an ordered list of strings
// for fill_blank and a keyword string for short_answer. Grading coerces
// values the same way the authored content does.
type Question struct {
	ID            string          `json:"id"`
	Type          QuestionType    `json:"type" validate:"required"`
	Prompt        string          `json:"question" validate:"required"`
	Options       []string        `json:"options,omitempty"`
	CorrectAnswer any             `json:"correct_answer,omitempty"`
	Explanation   string          `json:"explanation,omitempty"`
	Difficulty    DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Topic         string          `json:"topic,omitempty"`
	Points        int             `json:"points" validate:"min=1"`
	TimeLimit     int             `json:"time_limit,omitempty" validate:"min=0"` // seconds, 0 = untimed
	Hints         []string        `json:"hints,omitempty"`
	PartialCredit bool            `json:"partial_credit,omitempty"`
}

// Valid reports whether t is one of the known question types. Unknown
// types are carried through loading and scored as incorrect, never rejected.
func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoice, MultipleSelect, TrueFalse, FillBlank, ShortAnswer, Matching, Ordering, DragDrop:
		return true
	}
	return false
}

// ChoiceBased reports whether the question presents a fixed option list,
// which makes it subject to option randomization and the non-empty
// options invariant.
func (t QuestionType) ChoiceBased() bool {
	return t == SingleChoice || t == MultipleSelect
}
