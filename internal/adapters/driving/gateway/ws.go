package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/logger"
)

const (
	wsReadLimit    = 64 << 10
	wsCloseTimeout = 5 * time.Second
)

// Frame types exchanged on /ws.
const (
	frameSession = "session"
	frameAsk     = "ask"
	frameAnswer  = "answer"
	frameError   = "error"
)

// wsRequest is a client frame.
type wsRequest struct {
	Type  string `json:"type"`
	Query string `json:"query"`
}

// wsResponse is a server frame; exactly one payload field is set.
type wsResponse struct {
	Type    string               `json:"type"`
	Session *domain.SessionInfo  `json:"session,omitempty"`
	Answer  *domain.AnswerResult `json:"answer,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// handleWebSocket runs one conversation session for the life of the connection.
// An optional ?session= query parameter resumes a known session ID.
func (s *Server) handleWebSocket(c *gin.Context) {
	if s.ports.Sessions == nil {
		unavailable(c, "sessions")
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket accept failed: %v", err)
		return
	}
	conn.SetReadLimit(wsReadLimit)

	ctx := c.Request.Context()
	info, err := s.ports.Sessions.Open(ctx, c.Query("session"))
	if err != nil {
		_ = wsjson.Write(ctx, conn, wsResponse{Type: frameError, Error: err.Error()})
		conn.Close(websocket.StatusPolicyViolation, "session unavailable")
		return
	}
	logger.Debug("WebSocket session %s connected", info.ID)

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), wsCloseTimeout)
		defer cancel()
		if err := s.ports.Sessions.Close(closeCtx, info.ID); err != nil {
			logger.Warn("Failed to close session %s: %v", info.ID, err)
		}
		logger.Debug("WebSocket session %s disconnected", info.ID)
	}()

	if err := wsjson.Write(ctx, conn, wsResponse{Type: frameSession, Session: info}); err != nil {
		conn.CloseNow()
		return
	}

	s.serveSession(ctx, conn, info.ID)
}

// serveSession answers frames until the peer closes or a write fails.
func (s *Server) serveSession(ctx context.Context, conn *websocket.Conn, sessionID string) {
	for {
		var req wsRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				logger.Debug("WebSocket read for %s: %v", sessionID, err)
			}
			conn.CloseNow()
			return
		}

		resp := s.answerFrame(ctx, sessionID, req)
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			conn.CloseNow()
			return
		}
	}
}

func (s *Server) answerFrame(ctx context.Context, sessionID string, req wsRequest) wsResponse {
	if req.Type != "" && req.Type != frameAsk {
		return wsResponse{Type: frameError, Error: "unsupported frame type " + req.Type}
	}
	result, err := s.ports.Sessions.Ask(ctx, sessionID, req.Query)
	if err != nil {
		return wsResponse{Type: frameError, Error: err.Error()}
	}
	return wsResponse{Type: frameAnswer, Answer: result}
}
