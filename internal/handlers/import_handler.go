package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnspark/assessment-engine/internal/history"
	"github.com/learnspark/assessment-engine/internal/importer"
	"github.com/learnspark/assessment-engine/internal/utils"
)

// ImportHandler covers spreadsheet import of question banks and export
// of archived results.
type ImportHandler struct {
	BaseHandler
	importer *importer.Importer
	history  *history.History
}

func NewImportHandler(im *importer.Importer, hist *history.History, logger utils.Logger) *ImportHandler {
	return &ImportHandler{
		BaseHandler: NewBaseHandler(logger),
		importer:    im,
		history:     hist,
	}
}

// ImportQuestions parses an uploaded CSV or Excel question bank and
// returns the rows as loader input. Rejected rows are reported alongside
// the parsed questions.
// POST /api/v1/import/questions
func (h *ImportHandler) ImportQuestions(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing file upload", err)
		return
	}
	defer file.Close()

	result, err := h.importer.ImportQuestionsFromFile(file, header.Filename)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Import failed", err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Import completed", result)
}

// ExportResults streams archived attempts for an assessment as CSV or
// Excel, selected by the format query parameter.
// GET /api/v1/export/results/:assessment_id?format=csv|xlsx
func (h *ImportHandler) ExportResults(c *gin.Context) {
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

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		data, err := h.importer.ExportResultsToExcel(records)
		if err != nil {
			h.RespondWithError(c, http.StatusInternalServerError, "Export failed", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="results.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	case "csv":
		data, err := h.importer.ExportResultsToCSV(records)
		if err != nil {
			h.RespondWithError(c, http.StatusInternalServerError, "Export failed", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="results.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	default:
		h.RespondWithError(c, http.StatusBadRequest, "Unsupported export format", nil)
	}
}
