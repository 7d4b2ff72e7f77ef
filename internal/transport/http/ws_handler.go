package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"diver-exam-service/internal/app"
	"diver-exam-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.ExamService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ExamService) *WSHandler {
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

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

type dictationStartPayload struct {
	Supported bool `json:"supported"`
}

type transcriptPayload struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type notFoundPayload struct {
	ExamID string `json:"examId"`
}

type noticePayload struct {
	Message string `json:"message"`
}

const (
	noticeDictationUnsupported = "voice input is not available on this device"
	noticeDictationNotWritten  = "voice input is only available for written questions"
)

// ServeWS upgrades the request and runs one exam session for the lifetime of the socket.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	examID := r.URL.Query().Get("examId")
	userID := r.URL.Query().Get("userId")
	if examID == "" {
		http.Error(w, "missing examId", http.StatusBadRequest)
		return
	}
	mode, err := domain.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	session, err := h.service.Start(r.Context(), userID, examID, mode)
	if errors.Is(err, domain.ErrExamNotFound) {
		_ = conn.WriteJSON(outboundMessage[notFoundPayload]{Type: "notFound", Payload: notFoundPayload{ExamID: examID}})
		return
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.End(session.ID())

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.Warn("ws write error", "session", session.ID(), "error", err)
				// unblocks the read loop so the session is torn down
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: snap}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	fail := func(msg string) {
		enqueue(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}})
	}
	notice := func(msg string) {
		enqueue(send, writerDone, outboundMessage[any]{Type: "notice", Payload: noticePayload{Message: msg}})
	}

	var dictation *clientDictation
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionID == "" {
				fail("invalid answer payload")
				continue
			}
			if err := session.SetAnswer(payload.QuestionID, payload.Value); err != nil {
				fail(err.Error())
			}
		case "next":
			session.Next()
		case "previous":
			session.Previous()
		case "submit":
			if _, err := session.Submit(r.Context()); err != nil {
				fail(err.Error())
			}
		case "dictationStart":
			var payload dictationStartPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					fail("invalid dictation payload")
					continue
				}
			}
			dictation = newClientDictation(payload.Supported)
			switch err := session.StartDictation(dictation); {
			case errors.Is(err, domain.ErrDictationUnsupported):
				notice(noticeDictationUnsupported)
			case errors.Is(err, domain.ErrDictationNotWritten):
				notice(noticeDictationNotWritten)
			case err != nil:
				fail(err.Error())
			}
		case "dictationStop":
			session.StopDictation()
		case "transcript":
			var payload transcriptPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail("invalid transcript payload")
				continue
			}
			if dictation != nil {
				dictation.deliver(app.Transcript{Text: payload.Text, Final: payload.Final})
			}
		default:
			fail("unsupported message type")
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer; it gives up once the writer has exited.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}
