package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const heartbeatInterval = 30 * time.Second

// handleEvents streams the daemon's bus as server-sent events. Every event
// kind goes out; clients filter on their side. The connection closes when
// the client goes away or the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ch, unsub := s.bus.Subscribe("", 256)
	defer unsub()

	s.log.Info("event stream opened", zap.String("remote", r.RemoteAddr))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case evt := <-ch:
			data, err := json.Marshal(map[string]any{
				"kind":      evt.Kind,
				"timestamp": evt.Timestamp,
				"payload":   evt.Payload,
			})
			if err != nil {
				s.log.Warn("unencodable bus event", zap.String("kind", evt.Kind), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-r.Context().Done():
			s.log.Info("event stream closed", zap.String("remote", r.RemoteAddr))
			return
		}
	}
}
