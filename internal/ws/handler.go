package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/dmayorov/magnetophon/internal/event"
)

// Handler provides the WebSocket endpoint for the live activity feed.
type Handler struct {
	hub    *Hub
	bus    *event.Bus
	logger *zap.Logger
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes it to the engine's
// record and anomaly events.
func NewHandler(bus *event.Bus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		bus:    bus,
		logger: logger,
	}
	h.subscribeToEvents()
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", h.handleStream)
}

// handleStream upgrades the connection to WebSocket and streams engine events.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		remote: r.RemoteAddr,
		send:   make(chan Message, 256),
		logger: h.logger,
	}

	h.hub.Register(client)

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	// Client disconnected -- stop write pump and unregister.
	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// subscribeToEvents forwards engine bus events to all connected clients.
func (h *Handler) subscribeToEvents() {
	if h.bus == nil {
		return
	}
	forward := func(ctx context.Context, ev event.Event) {
		msgType, ok := typeForTopic(ev.Topic)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      msgType,
			Timestamp: ev.Timestamp,
			Data:      ev.Payload,
		})
	}
	h.bus.Subscribe(event.TopicRecord, forward)
	h.bus.Subscribe(event.TopicTriggered, forward)
	h.bus.Subscribe(event.TopicRearmed, forward)
}

// Hub exposes the hub for broadcast by other components.
func (h *Handler) Hub() *Hub {
	return h.hub
}
