package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"dex-quiz-service/internal/app"
	"dex-quiz-service/internal/domain"
	"dex-quiz-service/internal/logger"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *logger.Logger) *WSHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log.With("component", "ws"),
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

type selectRegionPayload struct {
	Region string `json:"region"`
}

type guessPayload struct {
	Slot int    `json:"slot"`
	Text string `json:"text"`
}

type sessionPayload struct {
	SessionID string          `json:"sessionId"`
	Regions   []domain.Region `json:"regions"`
	Snapshot  domain.Snapshot `json:"snapshot"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs one quiz session per connection.
// An optional ?region= query selects a region right away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	initialRegion := r.URL.Query().Get("region")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	started := h.service.Start(ctx)
	sessionID := started.SessionID
	log := h.log.With("session_id", sessionID)

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		h.service.End(ctx, sessionID)
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var loads sync.WaitGroup

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}
	pushError := func(err error) {
		push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}
	load := func(run func() error) {
		loads.Add(1)
		go func() {
			defer loads.Done()
			err := run()
			// Failed loads are reported through the session's error event.
			if errors.Is(err, domain.ErrUnknownRegion) {
				pushError(err)
			}
		}()
	}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				push(eventMessage(ev))
			case <-closeSignals:
				return
			}
		}
	}()

	push(outboundMessage[any]{Type: "session", Payload: sessionPayload{
		SessionID: sessionID,
		Regions:   h.service.Regions(),
		Snapshot:  started,
	}})

	if initialRegion != "" {
		load(func() error {
			_, err := h.service.SelectRegion(ctx, sessionID, initialRegion)
			return err
		})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "selectRegion":
			var payload selectRegionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Region == "" {
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid selectRegion payload"}})
				continue
			}
			load(func() error {
				_, err := h.service.SelectRegion(ctx, sessionID, payload.Region)
				return err
			})
		case "reset":
			load(func() error {
				_, err := h.service.Reset(ctx, sessionID)
				return err
			})
		case "guess":
			var payload guessPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid guess payload"}})
				continue
			}
			result, err := h.service.SubmitGuess(ctx, sessionID, payload.Slot, payload.Text)
			if err != nil {
				pushError(err)
				continue
			}
			push(outboundMessage[any]{Type: "verdict", Payload: result})
		default:
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	h.service.End(ctx, sessionID)
	stop()
	loads.Wait()
	<-updatesDone
	close(send)
	<-writerDone
}

// eventMessage maps a session event to the message the page expects.
func eventMessage(ev domain.Event) outboundMessage[any] {
	msg := outboundMessage[any]{Type: string(ev.Type)}
	switch ev.Type {
	case domain.EventLoading, domain.EventReady:
		msg.Payload = ev.Snapshot
	case domain.EventBatch:
		msg.Payload = ev.Batch
	case domain.EventScore:
		msg.Payload = ev.Progress
	case domain.EventComplete:
		msg.Payload = ev.Completion
	case domain.EventFailed:
		msg.Payload = errorPayload{Message: ev.Message}
	default:
		msg.Payload = ev
	}
	return msg
}
