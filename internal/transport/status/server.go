// Package status serves a read-only HTTP view of a running session.
package status

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"liquidsands.ai/internal/game"
	"liquidsands.ai/internal/persistence/statsdb"
)

// Source is implemented by *game.Session.
type Source interface {
	Snapshot() game.Snapshot
}

// Stats is implemented by *statsdb.DB.
type Stats interface {
	PlayerStats(ctx context.Context) ([]statsdb.PlayerStats, error)
	QueueStats() statsdb.QueueStats
}

type Server struct {
	src   Source
	stats Stats
	log   *log.Logger

	// PushInterval is how often /ws checks for a newer snapshot.
	PushInterval time.Duration

	upgrader websocket.Upgrader
}

// NewServer builds a server over src. stats may be nil.
func NewServer(src Source, stats Stats, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		src:          src,
		stats:        stats,
		log:          logger,
		PushInterval: 250 * time.Millisecond,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.state)
		r.Get("/units", s.units)
		r.Get("/units/{owner}", s.units)
		r.Get("/fog", s.fog)
		r.Get("/stats", s.playerStats)
	})
	r.Get("/ws", s.stream)
	return r
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	snap := s.src.Snapshot()
	snap.Fogmap = nil
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) units(w http.ResponseWriter, r *http.Request) {
	snap := s.src.Snapshot()
	owner := chi.URLParam(r, "owner")
	out := make([]game.UnitView, 0, len(snap.Units))
	for _, u := range snap.Units {
		if owner != "" && u.Owner != owner {
			continue
		}
		out = append(out, u)
	}
	respondJSON(w, http.StatusOK, out)
}

type fogResponse struct {
	Mode   string   `json:"mode"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Rows   []string `json:"rows"`
}

func (s *Server) fog(w http.ResponseWriter, r *http.Request) {
	snap := s.src.Snapshot()
	respondJSON(w, http.StatusOK, fogResponse{Mode: snap.Fog, Width: snap.Width, Height: snap.Height, Rows: snap.Fogmap})
}

type statsResponse struct {
	Players []statsdb.PlayerStats `json:"players"`
	Queue   statsdb.QueueStats    `json:"queue"`
}

func (s *Server) playerStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		http.Error(w, "stats disabled", http.StatusNotFound)
		return
	}
	players, err := s.stats.PlayerStats(r.Context())
	if err != nil {
		s.log.Printf("status: stats query: %v", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, statsResponse{Players: players, Queue: s.stats.QueueStats()})
}

// stream pushes every new snapshot to a loopback websocket client.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: only needed to notice the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	t := time.NewTicker(s.PushInterval)
	defer t.Stop()
	var (
		last time.Time
		sent bool
	)
	for {
		snap := s.src.Snapshot()
		if !sent || !snap.UpdatedAt.Equal(last) {
			last, sent = snap.UpdatedAt, true
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
			return
		case <-t.C:
		}
	}
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Printf("status listening on %s", addr)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
