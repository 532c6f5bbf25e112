package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/learnspark/assessment-engine/internal/engine"
	"github.com/learnspark/assessment-engine/internal/history"
	"github.com/learnspark/assessment-engine/internal/importer"
	"github.com/learnspark/assessment-engine/internal/loader"
	"github.com/learnspark/assessment-engine/internal/progress"
	"github.com/learnspark/assessment-engine/internal/utils"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	importHandler  *ImportHandler
}

func NewHandlerManager(
	eng *engine.Engine,
	ldr *loader.Loader,
	tracker *progress.Tracker,
	hist *history.History,
	im *importer.Importer,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(eng, ldr, tracker, hist, logger),
		importHandler:  NewImportHandler(im, hist, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "assessment-engine",
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/assessments", hm.sessionHandler.LoadAssessment)

		session := v1.Group("/session")
		{
			session.GET("", hm.sessionHandler.GetSession)
			session.POST("/next", hm.sessionHandler.Next)
			session.POST("/previous", hm.sessionHandler.Previous)
			session.POST("/goto", hm.sessionHandler.GoTo)
			session.PUT("/responses/:question_id", hm.sessionHandler.RecordResponse)
			session.POST("/finish", hm.sessionHandler.Finish)
			session.POST("/resume", hm.sessionHandler.Resume)
			session.DELETE("/saved", hm.sessionHandler.ClearSaved)
		}

		v1.GET("/progress", hm.sessionHandler.GetProgress)
		v1.GET("/history/:assessment_id", hm.sessionHandler.GetHistory)

		v1.POST("/import/questions", hm.importHandler.ImportQuestions)
		v1.GET("/export/results/:assessment_id", hm.importHandler.ExportResults)
	}
}
