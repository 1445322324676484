package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/skill-assessment/internal/assessment"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// formOpTimeout bounds each store round trip made for a socket message
const formOpTimeout = 10 * time.Second

// FormMessage is exchanged over the form websocket.
//
// Client -> server: {"type":"rate","topic":"HTML","rating":3} or {"type":"submit"}.
// Server -> client: "evaluation" (data is the form state), "submitted" (data is
// the submission) or "error" (code and message).
type FormMessage struct {
	Type    string            `json:"type"`
	Topic   string            `json:"topic,omitempty"`
	Rating  assessment.Rating `json:"rating,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

func (s *Server) handleFormWS(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	form, err := s.manager.OpenForm(r.Context(), token)
	if err != nil {
		respondManagerError(w, err, "get form")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("form websocket connected", "form_id", form.ID)
	defer slog.Info("form websocket disconnected", "form_id", form.ID)

	if err := s.sendFormMessage(conn, FormMessage{Type: "evaluation", Data: formState(form)}); err != nil {
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}

		var msg FormMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendFormError(conn, "invalid_request", "invalid message format")
			continue
		}

		done, err := s.handleFormMessage(conn, token, msg)
		if err != nil || done {
			return
		}
	}
}

// handleFormMessage applies one client message. done reports that the form
// was submitted and the socket should close.
func (s *Server) handleFormMessage(conn *websocket.Conn, token string, msg FormMessage) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), formOpTimeout)
	defer cancel()

	switch msg.Type {
	case "rate":
		topic, err := assessment.ParseTopic(msg.Topic)
		if err != nil {
			return false, s.sendFormError(conn, "validation_error", err.Error())
		}
		form, err := s.manager.SetRating(ctx, token, topic, msg.Rating)
		if err != nil {
			code, _, message := classifyError(err)
			return false, s.sendFormError(conn, code, message)
		}
		return false, s.sendFormMessage(conn, FormMessage{Type: "evaluation", Data: formState(form)})

	case "submit":
		sub, err := s.manager.SubmitForm(ctx, token)
		if err != nil {
			code, _, message := classifyError(err)
			if code == "internal_error" {
				slog.Error("failed to submit form over websocket", "error", err)
			}
			return false, s.sendFormError(conn, code, message)
		}
		if err := s.sendFormMessage(conn, FormMessage{Type: "submitted", Data: sub}); err != nil {
			return true, err
		}
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "submitted")
		if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
			slog.Debug("failed to send close frame", "error", err)
		}
		return true, nil

	default:
		return false, s.sendFormError(conn, "invalid_request", "unknown message type: "+msg.Type)
	}
}

func (s *Server) sendFormMessage(conn *websocket.Conn, msg FormMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal form message", "error", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send form message", "error", err)
		return err
	}
	return nil
}

func (s *Server) sendFormError(conn *websocket.Conn, code, message string) error {
	return s.sendFormMessage(conn, FormMessage{
		Type:    "error",
		Code:    code,
		Message: message,
	})
}
