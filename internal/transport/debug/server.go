// Package debug serves live streaming-core state for inspection tooling: a
// JSON snapshot endpoint and a websocket that pushes snapshots at a fixed
// cadence. Read-only; it never reaches into the pipeline.
package debug

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/world"
)

const defaultInterval = 500 * time.Millisecond

type Server struct {
	planet   *world.Planet
	log      *log.Logger
	interval time.Duration

	upgrader websocket.Upgrader
}

// NewServer streams p's debug state every interval (0 means the default).
// logger nil means silent.
func NewServer(p *world.Planet, logger *log.Logger, interval time.Duration) *Server {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Server{
		planet:   p,
		log:      logger,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 32 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// StateHandler answers one GET with the current snapshot.
func (s *Server) StateHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(s.planet.Debug()); err != nil {
			s.logf("state encode: %v", err)
		}
	}
}

// StreamHandler upgrades to a websocket and pushes snapshots until the
// client goes away. Inbound frames are discarded.
func (s *Server) StreamHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader drains control frames and detects the close.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			if err := s.push(conn); err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}
}

func (s *Server) push(conn *websocket.Conn) error {
	b, err := json.Marshal(s.planet.Debug())
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}
