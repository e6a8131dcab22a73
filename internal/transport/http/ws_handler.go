package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"

	"lessonloop/internal/app"
	"lessonloop/internal/domain"
)

// WSHandler streams the live poll of a class and takes votes over the socket.
type WSHandler struct {
	users    *app.UserService
	polls    *app.PollService
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(users *app.UserService, polls *app.PollService, logger *log.Logger) *WSHandler {
	return &WSHandler{
		users:  users,
		polls:  polls,
		logger: logger,
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

type votePayload struct {
	PollID      string `json:"pollId"`
	OptionIndex *int   `json:"optionIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS authenticates the token query parameter, subscribes to the class
// and then upgrades. The first message is the activePoll snapshot.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	classID := r.URL.Query().Get("classId")
	token := r.URL.Query().Get("token")
	if classID == "" || token == "" {
		writeMessage(w, http.StatusBadRequest, "missing classId or token")
		return
	}

	user, err := h.users.Authenticate(r.Context(), token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	updates, cancel, err := h.polls.Subscribe(r.Context(), user, classID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer cancel()

	active, err := h.polls.Active(r.Context(), user, classID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only this goroutine writes to conn.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warnf("ws write error: %v", err)
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: event.Type, Payload: event.Poll}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	push(outboundMessage[any]{Type: "activePoll", Payload: active})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "vote":
			var payload votePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.PollID == "" || payload.OptionIndex == nil {
				push(errorMessage("invalid vote payload"))
				continue
			}
			if _, err := h.polls.Vote(r.Context(), user, payload.PollID, *payload.OptionIndex); err != nil {
				msg := domain.MessageOf(err)
				if msg == "" {
					h.logger.Errorf("ws vote: %v", err)
					msg = "Server error"
				}
				push(errorMessage(msg))
			}
		default:
			push(errorMessage("unsupported message type"))
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
