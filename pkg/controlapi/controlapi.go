// Package controlapi is the reference implementation of the excluded
// "local control/telemetry HTTP server" collaborator: a small HTTP+
// websocket surface the desktop shell would otherwise drive the core
// through. It is not part of the request pipeline itself.
package controlapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/privacysuite/privacysuite"
)

// SystemProxy is the two-method stub for the excluded OS system-proxy
// registry collaborator: this repo never touches OS proxy settings, but the
// shutdown sequence still calls it in the documented order.
type SystemProxy interface {
	Enable() error
	Disable() error
}

type noopSystemProxy struct{}

func (noopSystemProxy) Enable() error  { log.Println("system proxy: enable (no-op)"); return nil }
func (noopSystemProxy) Disable() error { log.Println("system proxy: disable (no-op)"); return nil }

// NewNoopSystemProxy returns the default SystemProxy used outside of tests.
func NewNoopSystemProxy() SystemProxy { return noopSystemProxy{} }

// exitCountries is the closed set of exit-country choices the control
// interface accepts, each with a display name.
var exitCountries = map[string]string{
	"us": "United States",
	"gb": "United Kingdom",
	"de": "Germany",
	"nl": "Netherlands",
	"ca": "Canada",
	"fr": "France",
	"se": "Sweden",
	"ch": "Switzerland",
	"jp": "Japan",
	"au": "Australia",
}

// Payload is the websocket message envelope, same shape the teacher's
// dashboard uses: a discriminator plus an arbitrary body.
type Payload struct {
	Kind string `json:"kind"`
	Body any    `json:"body"`
}

const broadcastInterval = 3 * time.Second

// exitProcess terminates the process. It is a package variable so that a
// test can replace it and exercise a shutdown without killing the test
// binary.
var exitProcess = func() { os.Exit(0) }

// Server is C10. It owns no lifecycle of its own beyond the Listener it is
// handed — it only translates HTTP requests into calls on its collaborators.
type Server struct {
	State    *privacysuite.SharedState
	Kill     *privacysuite.KillSwitch
	Listener *privacysuite.Listener
	System   SystemProxy

	upgrader websocket.Upgrader
	wsMu     sync.Mutex
	clients  map[*websocket.Conn]bool
}

// NewServer wires a Server from its collaborators.
func NewServer(state *privacysuite.SharedState, kill *privacysuite.KillSwitch, listener *privacysuite.Listener, system SystemProxy) *Server {
	return &Server{
		State:    state,
		Kill:     kill,
		Listener: listener,
		System:   system,
		clients:  make(map[*websocket.Conn]bool),
	}
}

// Mux builds the HTTP handler exposing every control-interface operation.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/logs", s.handleLogs)
	mux.HandleFunc("/api/killswitch", s.handleKillSwitch)
	mux.HandleFunc("/api/connection", s.handleConnection)
	mux.HandleFunc("/api/exit-country", s.handleExitCountry)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.Handler())

	go s.broadcastLoop()

	return mux
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.State.Snapshot())
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	category := privacysuite.LogCategory(r.URL.Query().Get("category"))
	level := privacysuite.LogLevel(r.URL.Query().Get("level"))

	if category == "" && level == "" {
		writeJSON(w, s.State.RecentLogs())
		return
	}
	writeJSON(w, s.State.FilteredLogs(category, level))
}

func (s *Server) handleKillSwitch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	s.Kill.SetEnabled(body.Enabled)
	s.State.UpdateStats(func(st *privacysuite.Stats) { st.KillSwitchActive = body.Enabled })
	s.State.AddLog(privacysuite.LogInfo, privacysuite.CategoryGeneral,
		fmt.Sprintf("kill switch set to enabled=%v", body.Enabled))

	writeJSON(w, map[string]bool{"enabled": body.Enabled})
}

func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Connect bool `json:"connect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	current := s.Listener.ConnectionState()
	wantConnected := current == privacysuite.StateConnected

	if body.Connect == wantConnected {
		s.State.AddLog(privacysuite.LogWarn, privacysuite.CategoryGeneral,
			"connection toggle requested no-op; ignored")
		writeJSON(w, map[string]string{"state": string(current)})
		return
	}

	var err error
	if body.Connect {
		err = s.Listener.Start()
	} else {
		s.Listener.Stop()
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"state": string(s.Listener.ConnectionState())})
}

func (s *Server) handleExitCountry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Country string `json:"country"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	display, ok := exitCountries[body.Country]
	if !ok {
		http.Error(w, "unknown exit country", http.StatusBadRequest)
		return
	}

	s.State.UpdateStats(func(st *privacysuite.Stats) { st.ExitCountry = body.Country })
	s.State.AddLog(privacysuite.LogInfo, privacysuite.CategoryGeneral,
		fmt.Sprintf("exit country set to %s (%s)", body.Country, display))

	writeJSON(w, map[string]string{"country": body.Country, "display_name": display})
}

// handleShutdown runs the documented teardown order: kill switch disabled,
// system proxy restored, listener aborted, process exit.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]string{"status": "shutting down"})

	go func() {
		s.Kill.SetEnabled(false)
		if err := s.System.Disable(); err != nil {
			log.Printf("system proxy disable failed: %v", err)
		}
		s.Listener.Stop()
		exitProcess()
	}()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("controlapi: websocket upgrade failed: %v", err)
		return
	}

	s.wsMu.Lock()
	s.clients[conn] = true
	s.wsMu.Unlock()
}

// broadcastLoop pushes a stat payload to every connected client on a fixed
// cadence, matching the teacher's own sendStatistics ticker. Log entries are
// not broadcast; clients read them from GET /api/logs.
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for range ticker.C {
		stat, err := json.Marshal(Payload{Kind: "stat", Body: s.State.Snapshot()})
		if err != nil {
			continue
		}
		s.sendAll(stat)
	}
}

func (s *Server) sendAll(msg []byte) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for c := range s.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.Close()
			delete(s.clients, c)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("controlapi: write response failed: %v", err)
	}
}
