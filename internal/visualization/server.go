// Package visualization serves a live view of a running simulation: an
// embedded HTML canvas page plus a websocket stream of per-round frames.
package visualization

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avandermeer/segsim/internal/grid"
	"github.com/avandermeer/segsim/internal/sim"
)

// Frame is one websocket message: the grid state after a round, with the
// round's statistics. Round 0 carries the initial state before any moves.
type Frame struct {
	Round           int             `json:"round"`
	Width           int             `json:"width"`
	Height          int             `json:"height"`
	Groups          int             `json:"groups"`
	Cells           []grid.Occupant `json:"cells"`
	Moved           int             `json:"moved"`
	UnsatisfiedFrac float64         `json:"unsatisfied_frac"`
	MeanSimilarity  float64         `json:"mean_similarity"`
	Done            bool            `json:"done"`
}

// Server streams simulation runs to websocket clients. Each client gets
// its own engine seeded from the same configuration, so every client
// watches an identical run.
type Server struct {
	cfg      sim.Config
	rounds   int
	interval time.Duration
	logger   *slog.Logger
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a visualization server for the given simulation
// configuration. interval is the delay between streamed rounds; zero
// streams as fast as clients can read.
func NewServer(cfg sim.Config, rounds int, interval time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		cfg:      cfg,
		rounds:   rounds,
		interval: interval,
		logger:   logger,
	}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe starts the HTTP server on addr and blocks until the
// context is cancelled. An empty addr listens on an OS-assigned port on
// localhost. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWS)

	if addr == "" {
		addr = "localhost:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: mux}
	s.mu.Unlock()

	s.logger.Info("visualization server listening", "addr", s.Addr())

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleIndex serves the embedded canvas page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	page, err := assets.ReadFile("assets/index.html")
	if err != nil {
		http.Error(w, "missing page asset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleWS streams a fresh run to the client, one frame per round.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	engine, err := sim.New(s.cfg)
	if err != nil {
		s.logger.Error("engine config rejected", "error", err)
		return
	}
	if err := engine.Init(); err != nil {
		s.logger.Error("engine init failed", "error", err)
		return
	}

	// Initial state before any moves.
	if err := conn.WriteJSON(s.frame(engine, sim.RoundStat{}, s.rounds == 0)); err != nil {
		return
	}

	for round := 1; round <= s.rounds; round++ {
		if err := r.Context().Err(); err != nil {
			return
		}

		stat, err := engine.Step()
		if err != nil {
			s.logger.Error("round failed", "round", round, "error", err)
			return
		}
		stat.Round = round

		if err := conn.WriteJSON(s.frame(engine, stat, round == s.rounds)); err != nil {
			return
		}

		if s.interval > 0 {
			select {
			case <-time.After(s.interval):
			case <-r.Context().Done():
				return
			}
		}
	}

	// Let the client close; read until error so the close handshake runs.
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) frame(engine *sim.Engine, stat sim.RoundStat, done bool) Frame {
	g := engine.Grid()
	return Frame{
		Round:           stat.Round,
		Width:           g.Width(),
		Height:          g.Height(),
		Groups:          g.Groups(),
		Cells:           g.Cells(),
		Moved:           stat.Moved,
		UnsatisfiedFrac: stat.UnsatisfiedFrac,
		MeanSimilarity:  stat.MeanSimilarity,
		Done:            done,
	}
}
