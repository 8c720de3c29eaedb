package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/handirank/handirank/live"
	"github.com/handirank/handirank/services"
)

type WebSocketHandler struct {
	hub           *live.Hub
	seasonService *services.SeasonService
	logger        *slog.Logger
	upgrader      websocket.Upgrader
}

func NewWebSocketHandler(hub *live.Hub, seasonService *services.SeasonService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		seasonService: seasonService,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser origin policy is enforced by the CORS layer; the
			// socket itself carries no privileged operations.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe upgrades the connection and pins it to the season's room.
func (h *WebSocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	exists, err := h.seasonService.SeasonExists(r.Context(), code)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if !exists {
		notFoundResponse(w, r)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.String("season", code), slog.Any("error", err))
		return
	}

	live.NewClient(h.hub, conn, live.SeasonRoom(code), h.logger).Start()
}
