package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/vetroai/vetro/internal/session"
)

// WebSocketHandler streams a user's dashboard events over a WebSocket.
type WebSocketHandler struct {
	bus   *Bus
	isDev bool
}

// NewWebSocketHandler creates the live event stream handler.
func NewWebSocketHandler(bus *Bus, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{bus: bus, isDev: isDev}
}

// ServeHTTP upgrades the connection and forwards the session user's events
// as JSON text frames until the client disconnects.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := session.UserIDFromContext(r.Context())
	if userID == 0 {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	ch, cancelSub := h.bus.Subscribe(userID)
	defer cancelSub()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain reads so client close frames terminate the stream promptly.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()

	slog.Info("Event stream connected", "user_id", userID)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Event stream closed", "user_id", userID)
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("Failed to encode event", "error", err, "type", ev.Type)
				continue
			}
			if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
				slog.Debug("Event stream write failed", "error", err, "user_id", userID)
				return
			}
		}
	}
}
