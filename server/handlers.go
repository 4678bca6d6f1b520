package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/subculture-collective/chatlogd/config"
	"github.com/subculture-collective/chatlogd/logfile"
	"github.com/subculture-collective/chatlogd/store"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db  *sql.DB
	ctx context.Context
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, ctx: ctx, cfg: cfg}
}

// HandleHealthz responds to liveness probe requests by checking database connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests with detailed system checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"database", func() error { return h.db.PingContext(r.Context()) }},
		{"chat_log", func() error {
			// The sink must be able to append; probe by opening in append mode.
			sink, err := logfile.OpenFileSink(h.cfg.ChatLogPath)
			if err != nil {
				return fmt.Errorf("chat log not writable: %w", err)
			}
			return sink.Close()
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus returns a lightweight status summary: chat log size and age,
// stored message counts, and the configured channel.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	resp := map[string]any{
		"channel": h.cfg.TwitchChannel,
	}

	if info, err := os.Stat(h.cfg.ChatLogPath); err == nil {
		resp["chat_log_bytes"] = info.Size()
		resp["chat_log_modified"] = info.ModTime().UTC()
	} else {
		resp["chat_log_bytes"] = 0
	}

	if n, err := store.Count(ctx, h.db, ""); err == nil {
		resp["stored_messages"] = n
	}
	if h.cfg.TwitchChannel != "" {
		if n, err := store.Count(ctx, h.db, h.cfg.TwitchChannel); err == nil {
			resp["stored_messages_channel"] = n
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
