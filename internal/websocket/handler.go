package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// Authenticator resolves the profile behind an upgrade request. ok is false
// for anonymous connections.
type Authenticator func(r *http.Request) (profileID string, ok bool)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients. originPatterns lists the hosts allowed to
// connect cross-origin; empty means same-origin only.
func HandleWebSocket(hub *Hub, auth Authenticator, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var profileID string
		if auth != nil {
			if id, ok := auth(r); ok {
				profileID = id
			}
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "profile_id", profileID)
		client := NewClient(hub, conn, profileID)
		client.Run(r.Context())
	}
}
