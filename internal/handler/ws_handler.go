package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/learnpath/engage-backend/internal/middleware"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/service"
	ws "github.com/learnpath/engage-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// scoreRefreshInterval matches the polling cadence of the reference UI, so a
// connected client never sees a staler score than a polling one would.
const scoreRefreshInterval = 30 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// wsSession is one live socket. The mutex serializes writes between the read
// loop and the refresh ticker; breakAnnounced tracks the due-edge so a break
// is announced once per time it becomes due, not on every frame.
type wsSession struct {
	conn           *websocket.Conn
	mu             sync.Mutex
	breakAnnounced bool
}

func (s *wsSession) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ws.WriteTyped(s.conn, v)
}

func (s *wsSession) sendError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws.WriteError(s.conn, msg)
}

// WSHandler handles the live learner session stream.
type WSHandler struct {
	engagementService *service.EngagementService
	log               zerolog.Logger
	upgrader          websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(engagementService *service.EngagementService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		engagementService: engagementService,
		log:               log.With().Str("component", "ws_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /v1/ws/sessions/:sessionId/learners/:userId
// Upgrades to WebSocket for real-time telemetry ingest and score push.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID := c.Param("sessionId")
	userID := c.Param("userId")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sock := &wsSession{conn: conn}

	wsLog := h.log.With().
		Str("session_id", sessionID).
		Str("user_id", userID).
		Str("client_id", claims.ClientID).
		Logger()

	wsLog.Info().Msg("Learner stream connected")

	stop := make(chan struct{})
	defer close(stop)
	go h.refreshLoop(sock, sessionID, userID, stop)

	for {
		var msg ws.Request
		err := ws.ReadJSON(conn, &msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionInteraction:
			h.handleInteraction(sock, sessionID, userID, &msg)
		case ws.ActionTakeBreak:
			h.handleTakeBreak(sock, sessionID, userID)
		case ws.ActionEndSession:
			h.handleEndSession(sock, wsLog, sessionID, userID)
		case ws.ActionPing:
			sock.send(ws.PongEvent{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			sock.sendError("unknown action: " + string(msg.Action))
		}
	}
}

// refreshLoop pushes the current score on a fixed cadence until the socket
// closes. Sessions the learner has not started yet are skipped so an idle
// socket never materializes a session record.
func (h *WSHandler) refreshLoop(sock *wsSession, sessionID, userID string, stop <-chan struct{}) {
	ticker := time.NewTicker(scoreRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, ok := h.engagementService.Snapshot(sessionID, userID); !ok {
				continue
			}
			score := h.engagementService.Score(context.Background(), sessionID, userID)
			if err := sock.send(ws.ScoreEvent{Event: ws.EventScore, Score: score}); err != nil {
				return
			}
			due := h.engagementService.ShouldTakeBreak(context.Background(), sessionID, userID)
			h.pushBreakEdge(sock, sessionID, userID, due)
		}
	}
}

// handleInteraction records one telemetry event and pushes the fresh score,
// any newly raised alerts, and a break plan if one just became due.
func (h *WSHandler) handleInteraction(sock *wsSession, sessionID, userID string, msg *ws.Request) {
	ctx := context.Background()

	if msg.Type == "" {
		sock.sendError("type is required")
		return
	}
	if len(msg.Type) > 64 {
		sock.sendError("type must be at most 64 characters")
		return
	}

	result := h.engagementService.TrackInteraction(ctx, sessionID, userID, msg.Type, msg.Data)

	sock.send(ws.ScoreEvent{Event: ws.EventScore, Score: result.Score})

	for _, alert := range result.NewAlerts {
		sock.send(ws.AlertEvent{Event: ws.EventAlert, Alert: alert})
	}

	h.pushBreakEdge(sock, sessionID, userID, result.BreakDue)
}

// handleTakeBreak records a completed break and pushes the reset score.
func (h *WSHandler) handleTakeBreak(sock *wsSession, sessionID, userID string) {
	ctx := context.Background()

	h.engagementService.RecordBreak(ctx, sessionID, userID)
	score := h.engagementService.Score(ctx, sessionID, userID)
	sock.send(ws.ScoreEvent{Event: ws.EventScore, Score: score})

	due := h.engagementService.ShouldTakeBreak(ctx, sessionID, userID)
	h.pushBreakEdge(sock, sessionID, userID, due)
}

// handleEndSession archives the session and pushes the final snapshot.
func (h *WSHandler) handleEndSession(sock *wsSession, wsLog zerolog.Logger, sessionID, userID string) {
	m, score, ok := h.engagementService.EndSession(sessionID, userID, model.EndReasonEnded)
	if !ok {
		sock.sendError("no active session")
		return
	}

	wsLog.Info().Float64("final_score", score.Overall).Msg("Session ended over stream")

	sock.send(ws.SessionEndedEvent{
		Event:  ws.EventSessionEnded,
		Report: model.ReportFromMetrics(m),
		Score:  score,
	})
}

// pushBreakEdge announces a break exactly when due flips from false to true.
func (h *WSHandler) pushBreakEdge(sock *wsSession, sessionID, userID string, due bool) {
	sock.mu.Lock()
	announce := due && !sock.breakAnnounced
	sock.breakAnnounced = due
	sock.mu.Unlock()

	if !announce {
		return
	}

	rec := h.engagementService.RecommendBreak(context.Background(), sessionID, userID)
	sock.send(ws.BreakEvent{Event: ws.EventBreak, Plan: model.BreakPlanFrom(rec)})
}
