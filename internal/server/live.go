package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
)

// handleLiveFeed upgrades the connection to WebSocket and relays block
// events from NATS until the client disconnects. Intended for a
// moderator dashboard watching blocks in real time.
func (s *Server) handleLiveFeed(w http.ResponseWriter, r *http.Request) {
	if s.nats == nil {
		writeError(w, http.StatusServiceUnavailable, "live feed requires NATS")
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Printf("[live] upgrade failed: %v", err)
		return
	}

	feedID := uuid.NewString()
	log.Printf("[live] feed %s connected from %s", feedID, r.RemoteAddr)

	// Writes come from the NATS callback goroutine; serialize them.
	var writeMu sync.Mutex
	err = s.nats.SubscribeBlockFeed(feedID, func(data []byte) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := wsutil.WriteServerMessage(conn, ws.OpText, data); err != nil {
			log.Printf("[live] feed %s write failed: %v", feedID, err)
		}
	})
	if err != nil {
		log.Printf("[live] feed %s subscribe failed: %v", feedID, err)
		conn.Close()
		return
	}

	// Drain client frames until the peer goes away, then tear down.
	go func() {
		defer func() {
			if err := s.nats.UnsubscribeBlockFeed(feedID); err != nil {
				log.Printf("[live] feed %s unsubscribe: %v", feedID, err)
			}
			conn.Close()
			log.Printf("[live] feed %s disconnected", feedID)
		}()
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				return
			}
		}
	}()
}
