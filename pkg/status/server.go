// Package status serves a small read-only HTTP view of the running bot.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"smelty/pkg/ratelimit"
	"smelty/pkg/streak"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type LimiterStats interface {
	Stats() ratelimit.Stats
}

type StreakReader interface {
	Get(ctx context.Context, userID string) streak.State
}

// Server exposes /health, /status and /streaks/{userID}.
type Server struct {
	addr      string
	version   string
	startTime time.Time
	limiter   LimiterStats
	streaks   StreakReader
	providers []string
	logger    *zap.Logger
}

func NewServer(addr, version string, limiter LimiterStats, streaks StreakReader, providers []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:      addr,
		version:   version,
		startTime: time.Now(),
		limiter:   limiter,
		streaks:   streaks,
		providers: providers,
		logger:    logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/streaks/{userID}", s.handleStreak).Methods(http.MethodGet)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "status server failed")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "status server shutdown")
		}
		<-errCh
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := s.limiter.Stats()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":   "smelty",
		"status":    "OK",
		"version":   s.version,
		"uptime":    int(time.Since(s.startTime).Seconds()),
		"timestamp": time.Now().Unix(),
		"providers": s.providers,
		"rate_limit": map[string]interface{}{
			"used":           stats.Used,
			"pending":        stats.Pending,
			"limit":          stats.Limit,
			"window_seconds": int(stats.Window.Seconds()),
		},
		"metrics": map[string]interface{}{
			"goroutines":      runtime.NumGoroutine(),
			"memory_alloc_mb": float64(m.Alloc) / 1024 / 1024,
		},
	})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	st := s.streaks.Get(r.Context(), userID)
	unlocked := st.Unlocked
	if unlocked == nil {
		unlocked = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":          userID,
		"current_streak":   st.Current,
		"highest_streak":   st.Highest,
		"unlocked_rewards": unlocked,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode status response", zap.Error(err))
	}
}
