package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/repository"
	"github.com/learnpath/engage-backend/internal/response"
	"github.com/learnpath/engage-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // prevent a slow snapshot from blocking the SSE loop

	defaultAlertLimit = 50
	maxAlertLimit     = 200
)

type MonitorHandler struct {
	rdb            *redis.Client
	monitorService *service.MonitorService
	log            zerolog.Logger
}

func NewMonitorHandler(rdb *redis.Client, monitorService *service.MonitorService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		monitorService: monitorService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// ListSessions godoc
// GET /v1/monitor/sessions
// Snapshots of every active session with live scores.
func (h *MonitorHandler) ListSessions(c *gin.Context) {
	sessions := h.monitorService.ActiveSessions(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// StreamSessions godoc
// GET /v1/monitor/sessions/stream
// SSE stream: an initial snapshot, interaction-driven updates forwarded from
// Redis pub/sub, periodic full refreshes, and keep-alive pings.
func (h *MonitorHandler) StreamSessions(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	h.sendSnapshot(c, reqCtx, "snapshot")

	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.LiveChannel())
	defer pubsub.Close()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	h.log.Info().Msg("Observer attached to live session SSE")

	// Pre-allocate a reusable ping payload (never changes)
	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Observer disconnected from live session SSE")
			return

		case msg := <-ch:
			// Forward raw JSON directly, no deserialization needed
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

		case <-refreshTicker.C:
			h.sendSnapshot(c, reqCtx, "refresh")

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// sendSnapshot writes one full active-session snapshot as an SSE event.
func (h *MonitorHandler) sendSnapshot(c *gin.Context, parentCtx context.Context, kind string) {
	ctx, cancel := context.WithTimeout(parentCtx, refreshTimeout)
	defer cancel()

	sessions := h.monitorService.ActiveSessions(ctx)

	c.SSEvent("message", gin.H{
		"type":     kind,
		"sessions": sessions,
	})
	c.Writer.Flush()
}

// ListAlerts godoc
// GET /v1/monitor/alerts?acknowledged=false&limit=N&offset=M
// Persisted alert log, newest first.
func (h *MonitorHandler) ListAlerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAlertLimit)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = defaultAlertLimit
	}
	if limit > maxAlertLimit {
		limit = maxAlertLimit
	}
	if offset < 0 {
		offset = 0
	}

	var acknowledged *bool
	if ackStr := c.Query("acknowledged"); ackStr != "" {
		ack, err := strconv.ParseBool(ackStr)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		acknowledged = &ack
	}

	alerts, total, err := h.monitorService.Alerts(c.Request.Context(), acknowledged, limit, offset)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	pagination := &response.Pagination{
		Page:       offset/limit + 1,
		PerPage:    limit,
		TotalItems: total,
		TotalPages: (total + limit - 1) / limit,
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"alerts": alerts}, pagination)
}

// AcknowledgeAlert godoc
// POST /v1/monitor/alerts/:alertId/ack
func (h *MonitorHandler) AcknowledgeAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("alertId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.monitorService.AcknowledgeAlert(c.Request.Context(), alertID); err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Health godoc
// GET /v1/monitor/health
// Aggregate engagement health for everything currently live.
func (h *MonitorHandler) Health(c *gin.Context) {
	report := h.monitorService.Health(c.Request.Context())
	response.Success(c, http.StatusOK, report)
}
