package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler(t *testing.T) {
	tests := []struct {
		name      string
		readiness func() bool
		code      int
		body      string
	}{
		{name: "no readiness", readiness: nil, code: http.StatusOK, body: `{"status":"ok"}`},
		{name: "ready", readiness: func() bool { return true }, code: http.StatusOK, body: `{"status":"ok"}`},
		{name: "not ready", readiness: func() bool { return false }, code: http.StatusServiceUnavailable, body: `{"status":"not ready"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Handler(tt.readiness)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
