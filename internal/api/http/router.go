package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	platformhealth "github.com/shestoi/iapdemo/platform/health/http"
	platformobservability "github.com/shestoi/iapdemo/platform/observability"
)

// NewRouter wires the storefront routes. readiness backs GET /health.
func NewRouter(handler *Handler, readiness func() bool, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()

	if logger != nil {
		router.Use(platformobservability.HTTPMiddleware("storefront", logger))
	}

	router.Route("/products", func(r chi.Router) {
		r.Get("/", handler.GetProducts)
		r.Post("/refresh", handler.PostProductsRefresh)
	})

	router.Route("/purchases", func(r chi.Router) {
		r.Get("/", handler.GetPurchases)
		r.Post("/", handler.PostPurchases)
		r.Post("/restore", handler.PostRestore)
		r.Get("/{transactionID}", func(w http.ResponseWriter, r *http.Request) {
			var transactionID string
			err := runtime.BindStyledParameterWithOptions("simple", "transactionID", chi.URLParam(r, "transactionID"), &transactionID,
				runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid transactionID: "+err.Error())
				return
			}
			handler.GetPurchase(w, r, transactionID)
		})
	})

	router.Get("/messages", func(w http.ResponseWriter, r *http.Request) {
		var params GetMessagesParams
		if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit: "+err.Error())
			return
		}
		handler.GetMessages(w, r, params)
	})
	router.Get("/health", platformhealth.Handler(readiness))

	return router
}
