package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mafia/internal/app"
)

// Handler handles WebSocket connections
type Handler struct {
	dispatcher Dispatcher
	gateway    *Gateway
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(dispatcher Dispatcher, gateway *Gateway, logger *slog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		gateway:    gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests. A roomId query parameter
// joins (or, with playerId, rejoins) that room as soon as the socket opens.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	roomID := query.Get("roomId")
	playerID := query.Get("playerId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	connRef := uuid.NewString()
	client := NewClient(conn, connRef, h.dispatcher, h.gateway, h.logger)
	h.gateway.Register(client)

	h.logger.Info("websocket connected",
		"connRef", connRef,
		"roomId", roomID,
		"isReconnect", playerID != "",
	)

	if roomID != "" {
		client.submit(app.Join{
			ConnRef:  connRef,
			RoomID:   roomID,
			Name:     query.Get("name"),
			PlayerID: playerID,
		})
	}

	client.Run()
}
