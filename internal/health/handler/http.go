package handler

import (
	"context"
	"net/http"
	"time"

	"streamline/backend/internal/platform/respond"
)

const pingTimeout = 2 * time.Second

// Pinger checks a dependency, e.g. *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server serves liveness and readiness probes.
type Server struct {
	pinger Pinger
}

// NewServer returns a health Server. pinger may be nil when there is no
// database (in-memory store), in which case readiness always succeeds.
func NewServer(pinger Pinger) *Server {
	return &Server{pinger: pinger}
}

type status struct {
	Status string `json:"status"`
}

// Live reports that the process is up.
func (s *Server) Live(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, status{Status: "ok"})
}

// Ready pings the database. A failed ping is 503, never a 500.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := s.pinger.PingContext(ctx); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, status{Status: "not_serving"})
			return
		}
	}
	respond.JSON(w, http.StatusOK, status{Status: "serving"})
}
