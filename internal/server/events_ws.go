package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/qlens/qlens/internal/events"
	"github.com/qlens/qlens/internal/utils"
)

const wsWriteWait = 10 * time.Second

// EventsWebSocketHandler pushes system events over a WebSocket
// connection. It carries the same payloads as the SSE stream for
// clients that prefer a socket.
type EventsWebSocketHandler struct {
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewEventsWebSocketHandler creates a new events WebSocket handler.
func NewEventsWebSocketHandler(eventBus *events.Bus, log zerolog.Logger) *EventsWebSocketHandler {
	return &EventsWebSocketHandler{
		eventBus: eventBus,
		log:      log.With().Str("component", "events_ws").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws requests.
func (h *EventsWebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Same policy as the CORS middleware on the REST surface
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	subscribed := events.KnownTypes()
	if names := utils.ParseCSV(r.URL.Query().Get("types")); names != nil {
		subscribed = make([]events.EventType, 0, len(names))
		for _, name := range names {
			subscribed = append(subscribed, events.EventType(name))
		}
	}

	h.log.Info().Msg("Client connected to event websocket")

	eventChan := make(chan *events.Event, 100)
	eventHandler := func(event *events.Event) {
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("WebSocket event channel full, dropping event")
		}
	}
	for _, eventType := range subscribed {
		h.eventBus.Subscribe(eventType, eventHandler)
	}

	ctx := r.Context()

	// Reader goroutine: drains client frames and surfaces disconnects
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event websocket")
			return
		case <-readDone:
			h.log.Info().Msg("Client closed event websocket")
			return
		case event := <-eventChan:
			if err := h.writeEvent(ctx, conn, event); err != nil {
				h.log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsWriteWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("WebSocket ping failed")
				return
			}
		}
	}
}

func (h *EventsWebSocketHandler) writeEvent(ctx context.Context, conn *websocket.Conn, event *events.Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteWait)
	defer cancel()

	payload := map[string]interface{}{
		"type":      string(event.Type),
		"module":    event.Module,
		"timestamp": event.Timestamp.Format(time.RFC3339),
		"data":      event.Data,
	}
	return writeJSONMessage(writeCtx, conn, payload)
}

func writeJSONMessage(ctx context.Context, conn *websocket.Conn, payload interface{}) error {
	w, err := conn.Writer(ctx, websocket.MessageText)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
