// Package server exposes the live monitor over HTTP: a websocket stream of
// snapshot frames plus JSON and PNG endpoints for one-shot inspection.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openexg/eegmon/config"
	"github.com/openexg/eegmon/monitor"
	"github.com/openexg/eegmon/render"
)

// Frame is one websocket message to clients.
type Frame struct {
	Type     string            `json:"type"` // "snapshot" or "status"
	Snapshot *monitor.Snapshot `json:"snapshot,omitempty"`
	Status   *monitor.Status   `json:"status,omitempty"`
}

// Command is a client-to-server control message.
type Command struct {
	Action      string                 `json:"action"` // set_filter, set_sensitivity, record_start, record_stop
	Filter      *config.FilterSettings `json:"filter,omitempty"`
	Sensitivity float64                `json:"sensitivity,omitempty"`
}

// Server broadcasts monitor snapshots to websocket subscribers and applies
// control commands they send back.
type Server struct {
	mon      *monitor.Monitor
	log      *slog.Logger
	interval time.Duration
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[chan Frame]struct{}
}

// New wraps a monitor. interval is the broadcast cadence; zero selects the
// display update interval default of 50 ms.
func New(mon *monitor.Monitor, interval time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Server{
		mon:      mon,
		log:      logger,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The desktop UI connects from a file:// origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subs: make(map[chan Frame]struct{}),
	}
}

// Handler returns the HTTP routes: /ws for the stream, /status and
// /spectrogram.png for one-shot views.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/spectrogram.png", s.handleSpectrogram)
	return mux
}

// Run broadcasts snapshot frames at the configured cadence until ctx ends.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.mon.Snapshot()
			st := s.mon.Status()
			s.broadcast(Frame{Type: "snapshot", Snapshot: &snap, Status: &st})
		}
	}
}

// Subscribe registers a frame channel. Slow subscribers miss frames rather
// than stalling the broadcaster.
func (s *Server) Subscribe() chan Frame {
	ch := make(chan Frame, 4)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Server) Unsubscribe(ch chan Frame) {
	s.mu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()
}

func (s *Server) broadcast(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- f:
		default:
			// Subscriber is behind; it catches up with the next frame.
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.log.Info("websocket client connected", "remote", r.RemoteAddr)

	// Writer drains the subscription; the read loop below owns the
	// connection lifetime.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for f := range ch {
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
	}()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		if err := s.apply(cmd); err != nil {
			s.log.Warn("command rejected", "action", cmd.Action, "err", err)
		}
	}

	s.Unsubscribe(ch)
	<-done
	s.log.Info("websocket client disconnected", "remote", r.RemoteAddr)
}

func (s *Server) apply(cmd Command) error {
	switch cmd.Action {
	case "set_filter":
		if cmd.Filter == nil {
			return fmt.Errorf("server: set_filter needs a filter object")
		}
		s.mon.SetFilter(*cmd.Filter)
		return nil
	case "set_sensitivity":
		return s.mon.SetSensitivity(cmd.Sensitivity)
	case "record_start":
		return s.mon.StartRecording()
	case "record_stop":
		_, _, err := s.mon.StopRecording()
		return err
	default:
		return fmt.Errorf("server: unknown action %q", cmd.Action)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	st := s.mon.Status()
	if err := json.NewEncoder(w).Encode(st); err != nil {
		s.log.Error("status encode failed", "err", err)
	}
}

func (s *Server) handleSpectrogram(w http.ResponseWriter, r *http.Request) {
	snap := s.mon.Snapshot()
	if len(snap.Spectrogram) == 0 {
		http.Error(w, "no spectrogram data yet", http.StatusNotFound)
		return
	}

	img, err := render.Spectrogram(snap.Spectrogram, render.Options{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		s.log.Error("spectrogram encode failed", "err", err)
	}
}
