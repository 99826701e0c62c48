package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHTTPMiddleware_StoresLoggerAndKeepsStatus(t *testing.T) {
	base := zap.NewNop()
	r := chi.NewRouter()
	r.Use(HTTPMiddleware("storefront", base))

	var got *zap.Logger
	r.Get("/purchases/{id}", func(w http.ResponseWriter, r *http.Request) {
		got = LoggerFromContext(r.Context(), nil)
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchases/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotNil(t, got)
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	fallback := zap.NewNop()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Same(t, fallback, LoggerFromContext(req.Context(), fallback))
}
