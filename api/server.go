// Package api exposes the simulator's read-only status over HTTP, for
// checking the loop and the telemetry link without an MQTT subscription.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/smartspeed/speedguard/internal/sim"
	"github.com/smartspeed/speedguard/internal/telemetry"
	"github.com/smartspeed/speedguard/internal/version"
)

// Status is the JSON document served at /api/status.
type Status struct {
	Version  string             `json:"version"`
	Uptime   float64            `json:"uptime_seconds"`
	Link     string             `json:"link"`
	Counters telemetry.Counters `json:"telemetry"`
	Snapshot *sim.Snapshot      `json:"snapshot,omitempty"`
}

// Server serves the status endpoints.
type Server struct {
	loop    *sim.Loop
	pub     *telemetry.Publisher
	started time.Time
}

// NewServer wires a status server over the loop and publisher.
func NewServer(loop *sim.Loop, pub *telemetry.Publisher) *Server {
	return &Server{loop: loop, pub: pub, started: time.Now()}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.statusHandler)
	mux.HandleFunc("/healthz", s.healthHandler)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("speedguard simulator\n"))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok\n"))
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := Status{
		Version:  version.Version,
		Uptime:   time.Since(s.started).Seconds(),
		Link:     s.pub.Link().State().String(),
		Counters: s.pub.Counters(),
	}
	if snap, ok := s.loop.Snapshot(); ok {
		status.Snapshot = &snap
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, "Failed to encode status", http.StatusInternalServerError)
	}
}
