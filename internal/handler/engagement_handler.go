package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/response"
	"github.com/learnpath/engage-backend/internal/service"
	"github.com/learnpath/engage-backend/internal/validator"
)

// EngagementHandler handles per-learner telemetry and score queries.
type EngagementHandler struct {
	engagementService *service.EngagementService
}

// NewEngagementHandler creates a new EngagementHandler.
func NewEngagementHandler(engagementService *service.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

// TrackInteraction godoc
// POST /v1/sessions/:sessionId/learners/:userId/interactions
// Records one interaction and returns the updated counters and score.
func (h *EngagementHandler) TrackInteraction(c *gin.Context) {
	var req model.TrackInteractionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result := h.engagementService.TrackInteraction(
		c.Request.Context(),
		c.Param("sessionId"),
		c.Param("userId"),
		req.Type,
		req.Data,
	)

	response.Success(c, http.StatusAccepted, gin.H{
		"report": model.ReportFromMetrics(result.Metrics),
		"score":  result.Score,
	})
}

// GetScore godoc
// GET /v1/sessions/:sessionId/learners/:userId/score
// Returns the full engagement score for the learner's session.
func (h *EngagementHandler) GetScore(c *gin.Context) {
	score := h.engagementService.Score(c.Request.Context(), c.Param("sessionId"), c.Param("userId"))
	response.Success(c, http.StatusOK, score)
}

// GetBreakStatus godoc
// GET /v1/sessions/:sessionId/learners/:userId/break
func (h *EngagementHandler) GetBreakStatus(c *gin.Context) {
	due := h.engagementService.ShouldTakeBreak(c.Request.Context(), c.Param("sessionId"), c.Param("userId"))
	response.Success(c, http.StatusOK, model.BreakStatus{ShouldTakeBreak: due})
}

// GetBreakRecommendation godoc
// GET /v1/sessions/:sessionId/learners/:userId/break/recommendation
func (h *EngagementHandler) GetBreakRecommendation(c *gin.Context) {
	rec := h.engagementService.RecommendBreak(c.Request.Context(), c.Param("sessionId"), c.Param("userId"))
	response.Success(c, http.StatusOK, model.BreakPlanFrom(rec))
}

// RecordBreak godoc
// POST /v1/sessions/:sessionId/learners/:userId/breaks
// Marks a completed break and resets the inactivity window.
func (h *EngagementHandler) RecordBreak(c *gin.Context) {
	m := h.engagementService.RecordBreak(c.Request.Context(), c.Param("sessionId"), c.Param("userId"))
	response.Success(c, http.StatusOK, gin.H{"report": model.ReportFromMetrics(m)})
}

// EndSession godoc
// POST /v1/sessions/:sessionId/learners/:userId/end
// Archives the session summary, evicts the live record, and returns the
// final snapshot.
func (h *EngagementHandler) EndSession(c *gin.Context) {
	m, score, ok := h.engagementService.EndSession(c.Param("sessionId"), c.Param("userId"), model.EndReasonEnded)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotActive)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"report": model.ReportFromMetrics(m),
		"score":  score,
	})
}
