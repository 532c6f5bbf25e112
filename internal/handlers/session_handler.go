package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnspark/assessment-engine/internal/engine"
	"github.com/learnspark/assessment-engine/internal/history"
	"github.com/learnspark/assessment-engine/internal/loader"
	"github.com/learnspark/assessment-engine/internal/progress"
	"github.com/learnspark/assessment-engine/internal/utils"
)

// SessionHandler exposes the engine to a local renderer process. It is
// thin glue: every operation delegates to the engine and returns a state
// snapshot, never markup.
type SessionHandler struct {
	BaseHandler
	engine  *engine.Engine
	loader  *loader.Loader
	tracker *progress.Tracker
	history *history.History
}

func NewSessionHandler(
	eng *engine.Engine,
	ldr *loader.Loader,
	tracker *progress.Tracker,
	hist *history.History,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		engine:      eng,
		loader:      ldr,
		tracker:     tracker,
		history:     hist,
	}
}

// ===== REQUEST STRUCTURES =====

type GoToRequest struct {
	Index int `json:"index"`
}

type ResponseRequest struct {
	Response any `json:"response"`
}

type ResumeRequest struct {
	AssessmentID string `json:"assessment_id" binding:"required"`
}

// LoadAssessment accepts an authored assessment document, normalizes it
// and starts a fresh session.
// POST /api/v1/assessments
func (h *SessionHandler) LoadAssessment(c *gin.Context) {
	var raw loader.RawAssessment
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid assessment document", err)
		return
	}

	assessment, err := h.loader.Load(&raw)
	if err != nil {
		h.respondEngineError(c, err)
		return
	}
	if err := h.engine.Load(c.Request.Context(), assessment); err != nil {
		h.respondEngineError(c, err)
		return
	}

	snapshot, err := h.engine.Snapshot()
	if err != nil {
		h.respondEngineError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Assessment loaded", snapshot)
}

// GetSession returns the current session snapshot.
// GET /api/v1/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	snapshot, err := h.engine.Snapshot()
	if err != nil {
		h.respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Next advances to the following question.
// POST /api/v1/session/next
func (h *SessionHandler) Next(c *gin.Context) {
	h.engine.Next(c.Request.Context())
	h.GetSession(c)
}

// Previous moves back one question.
// POST /api/v1/session/previous
func (h *SessionHandler) Previous(c *gin.Context) {
	h.engine.Previous(c.Request.Context())
	h.GetSession(c)
}

// GoTo jumps to a question by index.
// POST /api/v1/session/goto
func (h *SessionHandler) GoTo(c *gin.Context) {
	var req GoToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.engine.GoTo(c.Request.Context(), req.Index); err != nil {
		h.respondEngineError(c, err)
		return
	}
	h.GetSession(c)
}

// RecordResponse stores the answer for one question.
// PUT /api/v1/session/responses/:question_id
func (h *SessionHandler) RecordResponse(c *gin.Context) {
	questionID := c.Param("question_id")

	var req ResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.engine.RecordResponse(c.Request.Context(), questionID, req.Response); err != nil {
		h.respondEngineError(c, err)
		return
	}
	h.GetSession(c)
}

// Finish grades the session. The result is archived and folded into the
// learner profile; failures there are logged but do not fail the finish.
// POST /api/v1/session/finish
func (h *SessionHandler) Finish(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.engine.Finish(ctx)
	if err != nil {
		h.respondEngineError(c, err)
		return
	}

	if h.history != nil {
		if _, err := h.history.Record(ctx, result); err != nil {
			h.logger.LogError(err, "Failed to archive attempt", "attempt_id", result.AttemptID)
		}
	}
	if h.tracker != nil {
		if _, err := h.tracker.Apply(ctx, result); err != nil {
			h.logger.LogError(err, "Failed to update progress", "attempt_id", result.AttemptID)
		}
	}
	if err := h.engine.ClearSaved(ctx, result.AssessmentID); err != nil {
		h.logger.LogError(err, "Failed to clear saved session", "assessment_id", result.AssessmentID)
	}

	h.RespondWithSuccess(c, http.StatusOK, "Assessment completed", result)
}

// Resume restores a saved session for the loaded assessment.
// POST /api/v1/session/resume
func (h *SessionHandler) Resume(c *gin.Context) {
	var req ResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resumed, err := h.engine.Resume(c.Request.Context(), req.AssessmentID)
	if err != nil {
		h.respondEngineError(c, err)
		return
	}

	snapshot, err := h.engine.Snapshot()
	if err != nil {
		h.respondEngineError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Resume processed", gin.H{
		"resumed":  resumed,
		"snapshot": snapshot,
	})
}

// ClearSaved deletes the saved snapshot for an assessment.
// DELETE /api/v1/session/saved?assessment_id=...
func (h *SessionHandler) ClearSaved(c *gin.Context) {
	assessmentID := c.Query("assessment_id")
	if assessmentID == "" {
		h.RespondWithError(c, http.StatusBadRequest, "assessment_id query parameter is required", nil)
		return
	}
	if err := h.engine.ClearSaved(c.Request.Context(), assessmentID); err != nil {
		h.respondEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetProgress returns the learner profile.
// GET /api/v1/progress
func (h *SessionHandler) GetProgress(c *gin.Context) {
	if h.tracker == nil {
		h.RespondWithError(c, http.StatusNotFound, "Progress tracking is not enabled", nil)
		return
	}
	data, err := h.tracker.Current(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to load progress", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetHistory lists archived attempts for an assessment.
// GET /api/v1/history/:assessment_id
func (h *SessionHandler) GetHistory(c *gin.Context) {
	if h.history == nil {
		h.RespondWithError(c, http.StatusNotFound, "Attempt history is not enabled", nil)
		return
	}

	assessmentID := c.Param("assessment_id")
	records, err := h.history.List(c.Request.Context(), assessmentID, 0)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to list attempts", err)
		return
	}

	stats, err := h.history.Stats(c.Request.Context(), assessmentID)
	if err != nil && !errors.Is(err, history.ErrNoAttempts) {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": records,
		"stats":    stats,
	})
}
