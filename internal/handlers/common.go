package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnspark/assessment-engine/internal/engine"
	apperrors "github.com/learnspark/assessment-engine/internal/errors"
	"github.com/learnspark/assessment-engine/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and response functionality
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{Message: message}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil {
		h.logger.LogError(err, message,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", statusCode)
	} else {
		h.logger.Warn(message,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", statusCode)
	}

	c.JSON(statusCode, errorResp)
}

// RespondWithSuccess sends a consistent success response
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{Message: message, Data: data})
}

// respondEngineError maps engine sentinel errors onto HTTP status codes.
func (h *BaseHandler) respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNoAssessment):
		h.RespondWithError(c, http.StatusConflict, "No assessment loaded", err)
	case errors.Is(err, engine.ErrAlreadyCompleted):
		h.RespondWithError(c, http.StatusConflict, "Assessment already completed", err)
	case errors.Is(err, engine.ErrIndexOutOfRange):
		h.RespondWithError(c, http.StatusBadRequest, "Question index out of range", err)
	case errors.Is(err, engine.ErrQuestionNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Question not found", err)
	case errors.Is(err, engine.ErrAssessmentMismatch):
		h.RespondWithError(c, http.StatusConflict, "Saved session belongs to a different assessment", err)
	default:
		var verrs apperrors.ValidationErrors
		if errors.As(err, &verrs) {
			h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, verrs)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Internal error", err)
	}
}
