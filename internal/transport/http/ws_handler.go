package http

import (
	"net/http"
)

// serveLeaderboardWS upgrades the connection and streams leaderboard
// snapshots: the current one on subscribe, then one per score change.
func (h *Handler) serveLeaderboardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel, err := h.leaderboard.Subscribe(r.Context())
	if err != nil {
		h.log.WithError(err).Warn("ws subscribe failed")
		return
	}
	defer cancel()

	// Reader goroutine only detects the client going away; inbound frames
	// carry no commands on this feed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snapshot); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
