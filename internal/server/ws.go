package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/barback/internal/dialogue"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket frame.
type wsRequest struct {
	Type      string `json:"type"` // "start" or "message"
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	startRequest
}

// wsResponse is the outgoing WebSocket frame.
type wsResponse struct {
	Type  string                 `json:"type"` // "turn" or "error"
	Turn  *dialogue.OutboundTurn `json:"turn,omitempty"`
	Error string                 `json:"error,omitempty"`
	Code  int                    `json:"code,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, wsResponse{Type: "error", Error: "invalid message format", Code: http.StatusBadRequest})
			continue
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
		s.send(conn, s.handleFrame(ctx, req))
		cancel()
	}
}

func (s *Server) handleFrame(ctx context.Context, req wsRequest) wsResponse {
	var (
		out dialogue.OutboundTurn
		err error
	)
	switch req.Type {
	case "start":
		out, err = s.sessions.Start(ctx, req.context())
	case "message":
		if req.SessionID == "" {
			return wsResponse{Type: "error", Error: "session_id is required", Code: http.StatusBadRequest}
		}
		unlock := s.locks.lock(req.SessionID)
		out, err = s.sessions.Resume(ctx, req.SessionID, req.Message)
		unlock()
	default:
		return wsResponse{Type: "error", Error: "unknown message type: " + req.Type, Code: http.StatusBadRequest}
	}
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.logger.Error("websocket turn failed", "session_id", req.SessionID, "error", err)
		}
		return wsResponse{Type: "error", Error: err.Error(), Code: code}
	}
	return wsResponse{Type: "turn", Turn: &out}
}

func (s *Server) send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
	}
}
