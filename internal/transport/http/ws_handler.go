package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsSendBuffer    = 16
	wsCloseDeadline = time.Second
	wsLeaderboardN  = 10
)

// WSHandler runs a whole session over one websocket connection.
type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsAnswerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades the request, starts a session for the query's user and
// maps inbound next/answer/conclude messages onto the session lifecycle.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username := q.Get("username")
	if username == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation_failed", Message: "missing username", Field: "username"})
		return
	}
	logger := logging.FromContext(r.Context()).With().Str("component", "ws").Str("username", username).Logger()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.service.StartSession(ctx, username, q.Get("topic"), q.Get("difficulty"))
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	h.play(ctx, conn, session, logger)
}

// wsConn is the part of *websocket.Conn a session needs.
type wsConn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// play runs the session loop until the client leaves, the session concludes
// or the connection stops accepting writes.
func (h *WSHandler) play(ctx context.Context, conn wsConn, session domain.Session, logger zerolog.Logger) {
	send := make(chan outboundMessage, wsSendBuffer)
	writerDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug().Err(err).Msg("ws write failed")
				return
			}
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session concluded"),
			time.Now().Add(wsCloseDeadline))
	}()

	// push hands msg to the writer and reports false once the writer has
	// stopped, so a dead connection never blocks the read loop.
	push := func(msg outboundMessage) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	alive := push(outboundMessage{Type: "started", Payload: session})
	for alive {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "next":
			question, err := h.service.NextQuestion(ctx, session.ID)
			if err != nil {
				alive = push(errorMessage(err))
				continue
			}
			alive = push(outboundMessage{Type: "question", Payload: question})
		case "answer":
			var payload wsAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				alive = push(outboundMessage{Type: "error", Payload: errorResponse{Error: "validation_failed", Message: "invalid answer payload", Field: "payload"}})
				continue
			}
			result, err := h.service.GradeAnswer(ctx, session.ID, payload.Answer)
			if err != nil {
				alive = push(errorMessage(err))
				continue
			}
			alive = push(outboundMessage{Type: "graded", Payload: result})
			if !alive {
				continue
			}
			if entries, err := h.service.Leaderboard(ctx, wsLeaderboardN); err == nil {
				alive = push(outboundMessage{Type: "leaderboard", Payload: entries})
			}
		case "conclude":
			result, err := h.service.Conclude(ctx, session.ID)
			if err != nil {
				alive = push(errorMessage(err))
				continue
			}
			push(outboundMessage{Type: "concluded", Payload: result})
			alive = false
		default:
			alive = push(outboundMessage{Type: "error", Payload: errorResponse{Error: "validation_failed", Message: "unsupported message type", Field: "type"}})
		}
	}

	close(send)
	<-writerDone
}

func errorMessage(err error) outboundMessage {
	_, resp := errorBody(err)
	return outboundMessage{Type: "error", Payload: resp}
}
