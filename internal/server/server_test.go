package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"eterna/internal/config"
	"eterna/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDatabase struct{ closed bool }

func (f *fakeDatabase) DB() *sql.DB { return nil }
func (f *fakeDatabase) Health() map[string]string {
	return map[string]string{"status": "up"}
}
func (f *fakeDatabase) Close() error {
	f.closed = true
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test"},
		JWT:       config.JWTConfig{Secret: "test-secret", Expiry: time.Hour},
		Redis:     config.RedisConfig{CacheTTL: time.Minute},
		Upload:    config.UploadConfig{MaxFileBytes: 5 << 20, MaxFiles: 3},
		RateLimit: config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute},
		Telemetry: config.TelemetryConfig{ServiceName: "eterna-test"},
	}
}

func newTestRouter(t *testing.T, redisClient *redis.Client) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	images, err := storage.NewLocalImageStore(dir, 5<<20)
	require.NoError(t, err)
	return NewRouter(testConfig(), zap.NewNop(), &fakeDatabase{}, redisClient, images), dir
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRouter_UnknownRouteReturnsJSON404(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/nothing-here", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "API not found", body["message"])
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "up", body["database"])
	assert.Equal(t, "disabled", body["cache"])
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/auth/verify"},
		{"GET", "/api/categories/all"},
		{"POST", "/api/products"},
		{"GET", "/api/contact"},
		{"POST", "/api/upload"},
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
		assert.Equal(t, "No token provided", decode(t, w)["message"], route.path)
	}
}

func TestRouter_ServesUploadedFiles(t *testing.T) {
	router, dir := newTestRouter(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), []byte("png-bytes"), 0o644))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/uploads/photo.png", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestRouter_LoginIsRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	router, _ := newTestRouter(t, client)

	login := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// Empty bodies fail validation without reaching the database.
	assert.Equal(t, http.StatusBadRequest, login().Code)
	assert.Equal(t, http.StatusBadRequest, login().Code)

	w := login()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestServer_CloseReleasesDatabase(t *testing.T) {
	db := &fakeDatabase{}
	images, err := storage.NewLocalImageStore(t.TempDir(), 5<<20)
	require.NoError(t, err)

	srv := NewServer(testConfig(), zap.NewNop(), db, nil, images)
	assert.Equal(t, ":0", srv.Addr)
	require.NoError(t, srv.Close())
	assert.True(t, db.closed)
}
