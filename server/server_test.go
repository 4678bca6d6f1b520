package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/subculture-collective/chatlogd/config"
	"github.com/subculture-collective/chatlogd/testutil"
)

func TestHealthz(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := &config.Config{ChatLogPath: filepath.Join(t.TempDir(), "chat.log")}
	mux := NewMux(context.Background(), db, cfg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Errorf("expected correlation id header")
	}
}

func TestReadyz(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := &config.Config{ChatLogPath: filepath.Join(t.TempDir(), "chat.log")}
	mux := NewMux(context.Background(), db, cfg)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode readyz body: %v", err)
	}
	if body["status"] != "ready" {
		t.Errorf("status = %q, want ready", body["status"])
	}
}

func TestStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logPath := filepath.Join(t.TempDir(), "chat.log")
	if err := os.WriteFile(logPath, []byte("2018-12-10_11:26:40 — raw\n\n\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	cfg := &config.Config{ChatLogPath: logPath, TwitchChannel: "status_test"}
	mux := NewMux(context.Background(), db, cfg)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode status body: %v", err)
	}
	if body["channel"] != "status_test" {
		t.Errorf("channel = %v, want status_test", body["channel"])
	}
	if size, ok := body["chat_log_bytes"].(float64); !ok || size <= 0 {
		t.Errorf("chat_log_bytes = %v, want > 0", body["chat_log_bytes"])
	}
}

func TestStatusMethodNotAllowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := &config.Config{ChatLogPath: filepath.Join(t.TempDir(), "chat.log")}
	mux := NewMux(context.Background(), db, cfg)

	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
