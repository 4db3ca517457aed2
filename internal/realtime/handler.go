package realtime

import (
	"context"
	"log"
	"net/http"

	"taskpulse/internal/middleware"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

// Handler upgrades HTTP requests to WebSocket connections and hands them to
// the hub. A client joins rooms by sending join events after connecting, so
// a single endpoint serves every project, task and user room.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a WebSocket handler for the hub. allowedOrigin of "*"
// accepts any origin.
func NewHandler(hub *Hub, allowedOrigin string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// ServeWS handles a WebSocket connection request
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	connID := uuid.NewString()

	ctx, span := middleware.StartSpan(ctx, "WebSocket.Connect",
		attribute.String("connection.id", connID),
	)
	defer span.End()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		middleware.AddSpanError(ctx, err)
		return
	}

	client := NewClient(connID, h.hub, conn)
	h.hub.Register(client)

	// The request context dies with the HTTP handler; pumps get a fresh one
	pumpCtx := context.Background()
	go client.WritePump(pumpCtx)
	go client.ReadPump(pumpCtx)

	log.Printf("✓ WebSocket connection %s established", connID)
}
