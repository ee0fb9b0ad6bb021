package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// serveLogged はhandlerをLoggingミドルウェア越しに1回呼び、出力されたログを返す。
func serveLogged(t *testing.T, req *http.Request, handler http.HandlerFunc) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	NewLoggingMiddleware(logger)(handler).ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func TestLoggingMiddleware_RecordsRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/todos/todo-1/complete", nil)
	entry := serveLogged(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["method"] != http.MethodPost {
		t.Errorf("method = %v, want POST", entry["method"])
	}
	if entry["path"] != "/todos/todo-1/complete" {
		t.Errorf("path = %v, want /todos/todo-1/complete", entry["path"])
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v, want non-negative number", entry["duration_ms"])
	}
	if _, ok := entry["user_id"]; ok {
		t.Errorf("user_id should be absent for anonymous request, got %v", entry["user_id"])
	}
}

func TestLoggingMiddleware_IncludesAuthenticatedUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-42"))

	entry := serveLogged(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if entry["user_id"] != "user-42" {
		t.Errorf("user_id = %v, want user-42", entry["user_id"])
	}
}

func TestLoggingMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusCreated, "INFO"},
		{http.StatusNoContent, "INFO"},
		{http.StatusBadRequest, "WARN"},
		{http.StatusNotFound, "WARN"},
		{http.StatusTooManyRequests, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
		{http.StatusServiceUnavailable, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/todos/x", nil)
			entry := serveLogged(t, req, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			if got := int(entry["status"].(float64)); got != tt.status {
				t.Errorf("status = %d, want %d", got, tt.status)
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
		})
	}
}

func TestLoggingMiddleware_ImplicitOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	entry := serveLogged(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	if got := int(entry["status"].(float64)); got != http.StatusOK {
		t.Errorf("status = %d, want 200", got)
	}
}

func TestLoggingMiddleware_FirstStatusWins(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/todos/x", nil)
	entry := serveLogged(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
		w.WriteHeader(http.StatusInternalServerError)
	})

	if got := int(entry["status"].(float64)); got != http.StatusNoContent {
		t.Errorf("status = %d, want 204", got)
	}
}
