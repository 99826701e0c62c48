package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	storeKitPath := filepath.Join(dir, "storekit.json")
	require.NoError(t, os.WriteFile(storeKitPath, []byte(`{"products":[{"id":"gold","title":"Gold","price":"0.99","currency":"USD"}]}`), 0o600))

	return config.Config{
		AppEnv:          config.EnvLocal,
		HTTPAddr:        "127.0.0.1:0",
		ShutdownTimeout: time.Second,
		ProductIDsPath:  filepath.Join(dir, "ProductIds.plist"),
		StoreKitConfig:  storeKitPath,
		LedgerBackend:   config.LedgerMemory,
		LogLevel:        "error",
	}
}

func TestBuild_MemoryLedger(t *testing.T) {
	application, err := Build(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		application.shutdownMgr.WaitContext(ctx)
	})
	assert.True(t, application.readiness())

	rec := httptest.NewRecorder()
	application.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	application.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"NotStarted"`)
}

func TestBuild_MissingStoreKitConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreKitConfig = filepath.Join(t.TempDir(), "missing.json")

	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuildLedger_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.LedgerBackend = "mongo"

	_, _, err := buildLedger(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestBuildLedger_Memory(t *testing.T) {
	store, closeFn, err := buildLedger(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))

	first, err := store.MarkFinished(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, first)
	assert.NoError(t, closeFn(context.Background()))
}
