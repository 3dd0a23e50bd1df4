package httpserver

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fridgegram/fridgegram/internal/feed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The live feed is read-only public data, same as GET /feed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleLiveFeed upgrades the connection and subscribes it to committed
// rating aggregate updates.
func (s *Server) handleLiveFeed(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Live feed is not enabled")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("live feed upgrade failed: %v", err)
		return
	}
	feed.NewClient(s.hub, conn, s.logger).Start()
}
