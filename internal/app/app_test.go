package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ledgerdesk/internal/config"
	"ledgerdesk/internal/middleware"
	"ledgerdesk/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("API_TOKEN_SECRET", "")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewWiresFileStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := New(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()

	n, err := a.Inventory.SeedSampleCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, cfg.InvoiceLineCount, a.Builder.LineCount())

	reopened, err := New(ctx, cfg)
	require.NoError(t, err)
	assert.Len(t, reopened.Inventory.ListProducts(), 3)
}

func TestRouterRequiresTokenWhenSecretSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	cfg.StorageDriver = config.StorageMemory
	cfg.APITokenSecret = "shh"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	r := a.NewRouter(websocket.NewHub(zerolog.Nop()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/invoice", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := middleware.IssueToken([]byte("shh"), "test", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/invoice", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
