package engine

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnspark/assessment-engine/internal/events"
	"github.com/learnspark/assessment-engine/internal/models"
)

// ===== SCORING =====

// Finish grades the session and transitions it to completed. Finishing
// is idempotent: subsequent calls return the cached Result unchanged.
func (e *Engine) Finish(ctx context.Context) (*models.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, ErrNoAssessment
	}
	if e.session.Status == models.SessionCompleted {
		return e.result, nil
	}

	e.finishLocked(ctx)
	return e.result, nil
}

func (e *Engine) finishLocked(ctx context.Context) {
	e.commitQuestionTimeLocked()
	e.stopTimerLocked()

	e.result = e.calculateResultsLocked()
	e.session.Status = models.SessionCompleted

	e.publish(ctx, events.NewAssessmentCompletedEvent(
		e.result.AttemptID, e.result.AssessmentID,
		e.result.Score, e.result.MaxScore, e.result.Percentage,
		e.result.Passed, e.result.TimeElapsed))

	e.logger.Info("Assessment completed",
		"assessment_id", e.result.AssessmentID,
		"score", e.result.Score,
		"max_score", e.result.MaxScore,
		"percentage", e.result.Percentage,
		"passed", e.result.Passed)
}

func (e *Engine) calculateResultsLocked() *models.Result {
	now := e.now()

	score := 0
	maxScore := 0
	breakdown := make([]models.QuestionResult, 0, len(e.assessment.Questions))

	for i := range e.assessment.Questions {
		q := &e.assessment.Questions[i]
		response, answered := e.responses[q.ID]

		maxScore += q.Points

		entry := models.QuestionResult{
			QuestionID:  q.ID,
			Prompt:      q.Prompt,
			Response:    response,
			Answered:    answered,
			MaxPoints:   q.Points,
			Explanation: q.Explanation,
			TimeSpent:   e.session.TimeSpent[q.ID],
		}

		if answered {
			if evaluateQuestion(q, response) {
				entry.Correct = true
				entry.PointsEarned = q.Points
			} else if q.PartialCredit {
				earned := e.partialCredit(q, response)
				if earned < 0 {
					earned = 0
				}
				if earned > q.Points {
					earned = q.Points
				}
				entry.PointsEarned = earned
			}
		}

		score += entry.PointsEarned
		breakdown = append(breakdown, entry)
	}

	percentage := 0
	if maxScore > 0 {
		percentage = int(math.Round(float64(score) / float64(maxScore) * 100))
	}

	responses := make(map[string]any, len(e.responses))
	for k, v := range e.responses {
		responses[k] = v
	}
	questionTimes := make(map[string]time.Duration, len(e.session.TimeSpent))
	for k, v := range e.session.TimeSpent {
		questionTimes[k] = v
	}

	return &models.Result{
		AttemptID:      uuid.NewString(),
		AssessmentID:   e.assessment.ID,
		Title:          e.assessment.Title,
		TotalQuestions: len(e.assessment.Questions),
		Responses:      responses,
		Score:          score,
		MaxScore:       maxScore,
		Percentage:     percentage,
		Passed:         percentage >= e.assessment.PassingScore,
		TimeElapsed:    now.Sub(e.session.StartedAt),
		QuestionTimes:  questionTimes,
		Breakdown:      breakdown,
		CompletedAt:    now,
	}
}

// evaluateQuestion decides correctness for one answered question.
// Matching, ordering and drag_drop carry no evaluation rule and always
// come out incorrect; authors should rely on partial credit for them.
func evaluateQuestion(q *models.Question, response any) bool {
	switch q.Type {
	case models.SingleChoice, models.TrueFalse:
		return looseEqual(response, q.CorrectAnswer)
	case models.MultipleSelect:
		return selectionSetsEqual(response, q.CorrectAnswer)
	case models.FillBlank:
		return evaluateFillBlanks(response, q.CorrectAnswer)
	case models.ShortAnswer:
		return evaluateShortAnswer(response, q.CorrectAnswer)
	default:
		return false
	}
}

// normalizeScalar renders a scalar answer value as a comparable string.
// Numbers collapse to their integer form when whole, so 0, 0.0 and "0"
// all normalize to "0", and true/"true" to "true".
func normalizeScalar(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return normalizeScalar(float64(t))
	default:
		return "", false
	}
}

// looseEqual compares two scalar answers across representations, so a
// stored "true" matches the authored boolean true and "0" matches 0.
func looseEqual(a, b any) bool {
	sa, oka := normalizeScalar(a)
	sb, okb := normalizeScalar(b)
	return oka && okb && sa == sb
}

func toAnySlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// selectionSetsEqual compares two selections as sets: order-insensitive,
// element comparison via scalar normalization.
func selectionSetsEqual(response, expected any) bool {
	got, ok := toAnySlice(response)
	if !ok {
		return false
	}
	want, ok := toAnySlice(expected)
	if !ok {
		return false
	}
	if len(got) != len(want) {
		return false
	}

	normalize := func(in []any) ([]string, bool) {
		out := make([]string, len(in))
		for i, v := range in {
			s, ok := normalizeScalar(v)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		sort.Strings(out)
		return out, true
	}

	g, ok := normalize(got)
	if !ok {
		return false
	}
	w, ok := normalize(want)
	if !ok {
		return false
	}
	for i := range g {
		if g[i] != w[i] {
			return false
		}
	}
	return true
}

func toStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case string:
		return []string{t}, true
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// evaluateFillBlanks matches each blank against its accepted answers.
// Accepted answers are "|"-delimited alternatives; comparison trims
// whitespace and ignores case. Every blank must match.
func evaluateFillBlanks(response, expected any) bool {
	values, ok := toStringSlice(response)
	if !ok {
		return false
	}
	blanks, ok := toStringSlice(expected)
	if !ok || len(blanks) == 0 || len(values) != len(blanks) {
		return false
	}

	for i, accepted := range blanks {
		value := strings.ToLower(strings.TrimSpace(values[i]))
		matched := false
		for _, alt := range strings.Split(accepted, "|") {
			if value == strings.ToLower(strings.TrimSpace(alt)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// evaluateShortAnswer applies the keyword-containment heuristic: the
// model answer's significant words (longer than 2 characters) are the
// keywords, a keyword counts as found when any word of the response
// contains it, and 60% of keywords must be found. An answer with no
// significant words cannot be matched.
func evaluateShortAnswer(response, expected any) bool {
	got, ok := response.(string)
	if !ok {
		return false
	}
	want, ok := expected.(string)
	if !ok {
		return false
	}

	keywords := significantWords(want)
	if len(keywords) == 0 {
		return false
	}
	userWords := strings.Fields(strings.ToLower(strings.TrimSpace(got)))

	found := 0
	for _, kw := range keywords {
		for _, uw := range userWords {
			if strings.Contains(uw, kw) {
				found++
				break
			}
		}
	}
	return float64(found)/float64(len(keywords)) >= 0.6
}

func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(strings.TrimSpace(s))) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// TimeElapsed reports wall-clock time since the session started, or the
// frozen elapsed time of a completed session.
func (e *Engine) TimeElapsed() (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return 0, ErrNoAssessment
	}
	if e.result != nil {
		return e.result.TimeElapsed, nil
	}
	return e.now().Sub(e.session.StartedAt), nil
}
