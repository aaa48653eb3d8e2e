package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	hudderr "github.com/huddleai/huddle/pkg/errors"
	"github.com/huddleai/huddle/pkg/logging"
	"github.com/huddleai/huddle/pkg/meeting"
	"github.com/huddleai/huddle/pkg/session"
	"github.com/huddleai/huddle/pkg/telemetry"
)

// inboundMessage is a message received over the realtime channel.
type inboundMessage struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	Transcript string `json:"transcript,omitempty"`
}

// outboundMessage is a message sent to the realtime client.
type outboundMessage struct {
	Type       string `json:"type"`
	Content    string `json:"content,omitempty"`
	AnswerType string `json:"answer_type,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
}

// RealtimeHandler serves the bidirectional meeting channel.
type RealtimeHandler struct {
	session  *session.Session
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// NewRealtimeHandler creates a realtime handler over a session.
func NewRealtimeHandler(sess *session.Session, logger *logging.Logger) *RealtimeHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RealtimeHandler{
		session: sess,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from configured origins; the HTTP
			// layer already enforces CORS for the REST surface.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket upgrades the request and runs the message loop until the
// client disconnects. Messages are handled strictly in arrival order.
func (h *RealtimeHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(logging.CategoryRealtime, "upgrade_failed", "websocket upgrade failed", map[string]any{
			"error": err.Error(),
		})
		return
	}
	defer conn.Close()

	telemetry.RealtimeConnections.Inc()
	defer telemetry.RealtimeConnections.Dec()

	h.logger.Info(logging.CategoryRealtime, "connected", "realtime client connected", map[string]any{
		"remote": conn.RemoteAddr().String(),
	})

	// The request context is tied to the upgrade and is not reliable after
	// hijacking; dispatches run under a connection-scoped context instead.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn(logging.CategoryRealtime, "read_failed", "realtime read failed", map[string]any{
					"error": err.Error(),
				})
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed frames are a protocol violation, not a domain
			// failure. Tell the client and end the channel.
			h.writeMessage(conn, outboundMessage{
				Type:  "error",
				Error: "invalid message format",
				Code:  string(hudderr.ErrCodeInvalidInput),
			})
			return
		}

		telemetry.RealtimeMessagesTotal.WithLabelValues(msg.Type).Inc()

		switch msg.Type {
		case "transcript":
			h.handleTranscript(msg)
		case "question":
			h.handleQuestion(ctx, conn, msg)
		default:
			h.logger.Warn(logging.CategoryRealtime, "unknown_type", "unknown realtime message type", map[string]any{
				"type": msg.Type,
			})
		}
	}
}

// handleTranscript records a transcript fragment. No reply is sent.
func (h *RealtimeHandler) handleTranscript(msg inboundMessage) {
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return
	}
	h.session.Timeline().Record(meeting.EventTranscript, text)
}

func (h *RealtimeHandler) handleQuestion(ctx context.Context, conn *websocket.Conn, msg inboundMessage) {
	result, err := h.session.Dispatcher().Answer(ctx, msg.Content, msg.Transcript)
	if err != nil {
		// Domain failures keep the channel open so the client can retry.
		h.logger.Error(logging.CategoryRealtime, "answer_failed", "realtime answer failed", map[string]any{
			"error": err.Error(),
			"code":  string(hudderr.GetCode(err)),
		})
		h.writeMessage(conn, outboundMessage{
			Type:  "error",
			Error: err.Error(),
			Code:  string(hudderr.GetCode(err)),
		})
		return
	}

	h.writeMessage(conn, outboundMessage{
		Type:       "answer",
		Content:    result.Text,
		AnswerType: string(result.Mode),
	})
}

func (h *RealtimeHandler) writeMessage(conn *websocket.Conn, msg outboundMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn(logging.CategoryRealtime, "write_failed", "realtime write failed", map[string]any{
			"error": err.Error(),
		})
	}
}
