package gateway

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/leadline-ai/leadline/pkg/logger"
	"github.com/leadline-ai/leadline/pkg/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser origins are not a trust boundary here; the gateway binds to
	// loopback by default and carries no cookie auth.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsRequest is one client frame on the chat socket.
type wsRequest struct {
	Text    string `json:"text,omitempty"`
	Company string `json:"company,omitempty"`
}

// wsReply mirrors the transcript entry produced by the cycle plus session
// flags the UI needs.
type wsReply struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Tone      string `json:"tone"`
	Paywalled bool   `json:"paywalled"`
	Busy      bool   `json:"busy,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleWS runs a chat session over one WebSocket connection. Each frame
// triggers a full request/response cycle; the reply frame carries the
// resulting transcript entry.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("gateway", "WebSocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	defer conn.Close()

	sess := s.sessions.Session(r.PathValue("key"))

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.DebugCF("gateway", "WebSocket closed", map[string]any{"error": err.Error()})
			}
			return
		}

		var cycleErr error
		if req.Company != "" {
			cycleErr = s.controller.Research(r.Context(), sess, req.Company)
		} else {
			cycleErr = s.controller.Send(r.Context(), sess, req.Text)
		}

		reply := wsReply{}
		switch {
		case errors.Is(cycleErr, session.ErrEmptyInput):
			reply.Error = "text is required"
		case errors.Is(cycleErr, session.ErrBusy):
			reply.Busy = true
			reply.Error = "session is busy"
		case cycleErr != nil:
			reply.Error = cycleErr.Error()
		default:
			snap := sess.Snapshot()
			reply.Paywalled = snap.Paywalled
			if len(snap.Transcript) > 0 {
				last := snap.Transcript[len(snap.Transcript)-1]
				reply.Text = last.Text
				reply.Sender = string(last.Sender)
				reply.Tone = string(last.Tone)
			}
		}

		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}
