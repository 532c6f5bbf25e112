package engine

import "errors"

// ===== ENGINE ERRORS =====

var (
	// ErrNoAssessment means an operation was called before Load.
	ErrNoAssessment = errors.New("no assessment loaded")

	// ErrAlreadyCompleted means the session already transitioned to
	// completed; the session state machine is one-way.
	ErrAlreadyCompleted = errors.New("assessment already completed")

	// ErrIndexOutOfRange is returned by GoTo for targets outside
	// [0, questionCount-1]. Navigation never clamps or wraps.
	ErrIndexOutOfRange = errors.New("question index out of range")

	// ErrQuestionNotFound means a response was recorded against an
	// identifier the loaded assessment does not contain.
	ErrQuestionNotFound = errors.New("question not found in assessment")

	// ErrAssessmentMismatch means a resume was requested for an
	// assessment other than the loaded one.
	ErrAssessmentMismatch = errors.New("saved session belongs to a different assessment")
)

// IsOutOfRange checks if error represents an invalid navigation target
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}

// IsAlreadyCompleted checks if error represents a double-finish or a
// mutation after completion
func IsAlreadyCompleted(err error) bool {
	return errors.Is(err, ErrAlreadyCompleted)
}

// IsNotFound checks if error represents a missing resource
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuestionNotFound) || errors.Is(err, ErrNoAssessment)
}
