package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware_LevelFollowsStatus(t *testing.T) {
	cases := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tc := range cases {
		core, logs := observer.New(zapcore.DebugLevel)
		handler := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/products", nil))

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("expected one log line, got %d", len(entries))
		}
		if entries[0].Level != tc.level {
			t.Errorf("status %d: expected %s, got %s", tc.status, tc.level, entries[0].Level)
		}
		if got := entries[0].ContextMap()["path"]; got != "/api/products" {
			t.Errorf("expected path field, got %v", got)
		}
	}
}
