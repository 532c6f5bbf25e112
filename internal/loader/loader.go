package loader

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	apperrors "github.com/learnspark/assessment-engine/internal/errors"
	"github.com/learnspark/assessment-engine/internal/models"
	"github.com/learnspark/assessment-engine/internal/utils"
	"github.com/learnspark/assessment-engine/internal/validator"
)

// RawAssessment is externally authored assessment data, typically
// hand-written JSON. Field names follow the authored content format;
// everything except the questions and their prompts is optional.
type RawAssessment struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Subject       string        `json:"subject"`
	Difficulty    string        `json:"difficulty"`
	EstimatedTime int           `json:"estimatedTime"`
	PassingScore  *int          `json:"passingScore"`
	Questions     []RawQuestion `json:"questions"`
}

type RawQuestion struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer any      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
	Topic         string   `json:"topic"`
	Points        int      `json:"points"`
	TimeLimit     int      `json:"timeLimit"`
	Hints         []string `json:"hints"`
	PartialCredit bool     `json:"partialCredit"`
}

// Options configures normalization behavior.
type Options struct {
	RandomizeQuestions bool
	RandomizeOptions   bool
	// DefaultPassingScore is used when the raw data carries none. Zero
	// means the package default (70).
	DefaultPassingScore int
	// Rand overrides the shuffle source, for deterministic tests.
	Rand *rand.Rand
}

const defaultPassingScore = 70

// Loader normalizes raw assessment data into the Assessment model,
// filling defaults and optionally randomizing question and option order.
type Loader struct {
	opts      Options
	validator *validator.Validator
	logger    utils.Logger
	rand      *rand.Rand
}

func New(v *validator.Validator, logger utils.Logger, opts Options) *Loader {
	if opts.DefaultPassingScore == 0 {
		opts.DefaultPassingScore = defaultPassingScore
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Loader{
		opts:      opts,
		validator: v,
		logger:    logger,
		rand:      rng,
	}
}

// LoadJSON parses and normalizes a JSON document.
func (l *Loader) LoadJSON(data []byte) (*models.Assessment, error) {
	var raw RawAssessment
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.ValidationErrors{
			*apperrors.NewValidationError("body", "must be a valid JSON assessment document", nil),
		}
	}
	return l.Load(&raw)
}

// Load normalizes raw data into an Assessment. The caller's raw value is
// not mutated. Structural problems (no questions, a question without a
// prompt, a choice question without options) abort the load with
// ValidationErrors; nothing partial is returned.
func (l *Loader) Load(raw *RawAssessment) (*models.Assessment, error) {
	if raw == nil || len(raw.Questions) == 0 {
		return nil, apperrors.ValidationErrors{
			*apperrors.NewValidationError("questions", "must contain at least one question", nil),
		}
	}

	assessment := &models.Assessment{
		ID:            raw.ID,
		Title:         raw.Title,
		Description:   raw.Description,
		Subject:       raw.Subject,
		Difficulty:    normalizeDifficulty(raw.Difficulty),
		EstimatedTime: raw.EstimatedTime,
		PassingScore:  l.opts.DefaultPassingScore,
		Questions:     make([]models.Question, 0, len(raw.Questions)),
	}

	if assessment.ID == "" {
		assessment.ID = fmt.Sprintf("assessment_%d", time.Now().UnixMilli())
	}
	if assessment.Title == "" {
		assessment.Title = "Assessment"
	}
	if assessment.Subject == "" {
		assessment.Subject = "general"
	}
	if assessment.EstimatedTime == 0 {
		assessment.EstimatedTime = 15
	}
	if raw.PassingScore != nil {
		assessment.PassingScore = *raw.PassingScore
	}

	var errs apperrors.ValidationErrors
	for i := range raw.Questions {
		question, qerrs := l.normalizeQuestion(&raw.Questions[i], i)
		if len(qerrs) > 0 {
			errs = append(errs, qerrs...)
			continue
		}
		assessment.Questions = append(assessment.Questions, *question)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if verr := l.validator.ValidateStruct(assessment); verr != nil {
		if converted := apperrors.ToValidationErrors(verr); len(converted) > 0 {
			return nil, converted
		}
		return nil, verr
	}

	if l.opts.RandomizeQuestions {
		l.shuffleQuestions(assessment.Questions)
	}

	return assessment, nil
}

func (l *Loader) normalizeQuestion(raw *RawQuestion, index int) (*models.Question, apperrors.ValidationErrors) {
	var errs apperrors.ValidationErrors

	if strings.TrimSpace(raw.Question) == "" {
		errs = append(errs, *apperrors.NewValidationError(
			fmt.Sprintf("questions[%d].question", index), "is required", nil))
	}

	question := &models.Question{
		ID:            raw.ID,
		Type:          normalizeType(raw.Type),
		Prompt:        raw.Question,
		Options:       append([]string(nil), raw.Options...),
		CorrectAnswer: raw.CorrectAnswer,
		Explanation:   raw.Explanation,
		Difficulty:    normalizeDifficulty(raw.Difficulty),
		Topic:         raw.Topic,
		Points:        raw.Points,
		TimeLimit:     raw.TimeLimit,
		Hints:         append([]string(nil), raw.Hints...),
		PartialCredit: raw.PartialCredit,
	}

	if question.ID == "" {
		question.ID = fmt.Sprintf("q_%d", index)
	}
	if question.Points <= 0 {
		question.Points = 1
	}
	if question.Hints == nil {
		question.Hints = []string{}
	}

	if question.Type.ChoiceBased() && len(question.Options) == 0 {
		errs = append(errs, *apperrors.NewValidationError(
			fmt.Sprintf("questions[%d].options", index), "must not be empty for choice questions", nil))
	}

	if !question.Type.Valid() {
		// Unknown types are carried through and scored as incorrect.
		l.logger.Warn("Unknown question type, will be scored as incorrect",
			"question_id", question.ID,
			"type", string(question.Type))
	}

	if len(errs) > 0 {
		return nil, errs
	}

	if l.opts.RandomizeOptions && question.Type.ChoiceBased() {
		l.shuffleOptions(question)
	}

	return question, nil
}

// shuffleQuestions applies a uniform Fisher-Yates permutation in place.
func (l *Loader) shuffleQuestions(questions []models.Question) {
	for i := len(questions) - 1; i > 0; i-- {
		j := l.rand.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

// shuffleOptions permutes the option list and recomputes the correct
// index (single_choice) or index set (multiple_select) to match.
func (l *Loader) shuffleOptions(q *models.Question) {
	perm := l.rand.Perm(len(q.Options))

	shuffled := make([]string, len(q.Options))
	newIndex := make(map[int]int, len(perm)) // old position -> new position
	for newPos, oldPos := range perm {
		shuffled[newPos] = q.Options[oldPos]
		newIndex[oldPos] = newPos
	}
	q.Options = shuffled

	switch q.Type {
	case models.SingleChoice:
		if old, ok := asOptionIndex(q.CorrectAnswer); ok {
			if remapped, ok := remapIndex(old, newIndex); ok {
				q.CorrectAnswer = remapped
			}
		}
	case models.MultipleSelect:
		if olds, ok := asOptionIndexSet(q.CorrectAnswer); ok {
			remapped := make([]int, 0, len(olds))
			for _, old := range olds {
				if idx, ok := remapIndex(old, newIndex); ok {
					remapped = append(remapped, idx)
				}
			}
			q.CorrectAnswer = remapped
		}
	}
}

func remapIndex(old int, newIndex map[int]int) (int, bool) {
	idx, ok := newIndex[old]
	return idx, ok
}

func normalizeType(s string) models.QuestionType {
	t := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch t {
	case "", "multiple_choice", "single_choice":
		// The authored content calls radio-button questions "multiple-choice";
		// they select a single option.
		return models.SingleChoice
	case "multiple_select", "multi_select":
		return models.MultipleSelect
	case "true_false":
		return models.TrueFalse
	case "fill_blank", "fill_in_blank":
		return models.FillBlank
	case "short_answer":
		return models.ShortAnswer
	case "matching":
		return models.Matching
	case "ordering":
		return models.Ordering
	case "drag_drop":
		return models.DragDrop
	}
	return models.QuestionType(t)
}

func normalizeDifficulty(s string) models.DifficultyLevel {
	switch models.DifficultyLevel(strings.ToLower(strings.TrimSpace(s))) {
	case models.DifficultyEasy:
		return models.DifficultyEasy
	case models.DifficultyHard:
		return models.DifficultyHard
	default:
		return models.DifficultyMedium
	}
}
