package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ashureev/hms-console/internal/identity"
	"github.com/coder/websocket"
)

// LastEventIDParam names the query parameter carrying the last seen event.
const LastEventIDParam = "last_event_id"

// inbound is a message read from the browser.
type inbound struct {
	Type string `json:"type"`
}

// Handler upgrades tab connections and keeps them registered with the hub.
type Handler struct {
	hub           *Hub
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a websocket handler.
func NewHandler(hub *Hub, allowedOrigin string, isDev bool) *Handler {
	return &Handler{hub: hub, allowedOrigin: allowedOrigin, isDev: isDev}
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tabID := identity.TabIDFromContext(r.Context())
	slog.Info("Live connection request", "tab_id", tabID, "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	var lastEventID int64
	if raw := r.URL.Query().Get(LastEventIDParam); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			http.Error(w, "invalid last_event_id", http.StatusBadRequest)
			return
		}
		lastEventID = id
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "tab_id", tabID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "connection ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "tab_id", tabID)
		}
	}()

	n := h.hub.Attach(tabID, ws, lastEventID)
	defer h.hub.Unregister(tabID, ws)
	if n > 0 {
		slog.Info("Replayed missed notifications", "tab_id", tabID, "count", n, "after", lastEventID)
	}

	h.readLoop(r.Context(), ws, tabID)
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, tabID string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "tab_id", tabID)
			} else {
				slog.Debug("WebSocket read ended", "error", err, "tab_id", tabID)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("Ignoring malformed live message", "tab_id", tabID)
			continue
		}

		switch msg.Type {
		case "ping":
			if err := writeJSON(ws, Message{Type: TypePong}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
			}
		case "logout":
			// Tab closed for good.
			h.hub.Forget(tabID)
			return
		}
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || h.allowedOrigin == "" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}
