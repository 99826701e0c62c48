package http

import (
	"encoding/json"
	"net/http"
)

// Handler returns the health endpoint.
// 200 {"status":"ok"} when readiness is nil or reports true,
// 503 {"status":"not ready"} otherwise.
func Handler(readiness func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if readiness != nil && !readiness() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
