package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	v1 "github.com/GoldenArt-IT/fabric-analysis/internal/api/v1"
	"github.com/GoldenArt-IT/fabric-analysis/internal/calculator"
	"github.com/GoldenArt-IT/fabric-analysis/internal/config"
	"github.com/GoldenArt-IT/fabric-analysis/internal/importer"
	"github.com/GoldenArt-IT/fabric-analysis/internal/parser"
	"github.com/GoldenArt-IT/fabric-analysis/internal/service/snapshot"
	"github.com/GoldenArt-IT/fabric-analysis/internal/store"
)

func newTestServer(t *testing.T, cfg *config.AppConfig) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.New(filepath.Join(t.TempDir(), "fabricboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := zaptest.NewLogger(t)
	coord := importer.NewCoordinator(st, snapshot.NewMemoryStore(), importer.Settings{
		Dimensions: calculator.DefaultDimensions(),
		Markers:    parser.DefaultMarkers(),
	}, logger)
	h := v1.NewHandler(v1.Options{Coordinator: coord, Store: st, Logger: logger})

	cfg.Server.DevMode = true
	return NewServer(cfg, h, logger)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_StatusWithoutAuth(t *testing.T) {
	s := newTestServer(t, config.DefaultConfig())

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_BasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Auth.Accounts = map[string]string{"planner": "s3cret"}
	s := newTestServer(t, cfg)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("planner", "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(s, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("planner", "s3cret")
	assert.Equal(t, http.StatusOK, serve(s, req).Code)

	// 健康检查不需要认证
	w = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t, config.DefaultConfig())

	w := serve(s, httptest.NewRequest(http.MethodOptions, "/api/usage", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestServer_DevModeRedirect(t *testing.T) {
	s := newTestServer(t, config.DefaultConfig())

	w := serve(s, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "http://localhost:5173/dashboard", w.Header().Get("Location"))
}
