package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/presentation"
	"github.com/shestoi/iapdemo/internal/purchase"
	"github.com/shestoi/iapdemo/internal/service"
	"github.com/shestoi/iapdemo/internal/storekit"
	"github.com/shestoi/iapdemo/platform/observability"
)

const defaultMessageLimit = 20

// Storefront is what the handlers need from service.Storefront.
type Storefront interface {
	Refresh(ctx context.Context) error
	Products() service.ProductsView
	Purchases() service.PurchasesView
	Transaction(transactionID string) (service.TransactionView, error)
	Title(productID string) string
	Buy(ctx context.Context, productID string) error
	Restore(ctx context.Context) error
	Messages(limit int) []service.Message
}

// Handler serves the storefront JSON API.
type Handler struct {
	storefront Storefront
	logger     *zap.Logger
}

func NewHandler(storefront Storefront, logger *zap.Logger) *Handler {
	return &Handler{
		storefront: storefront,
		logger:     logger,
	}
}

// GetProducts handles GET /products.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	view := h.storefront.Products()
	writeJSON(w, http.StatusOK, ProductsResponse{
		Status:   view.Status.String(),
		Message:  view.Message,
		Sections: h.sections(view.Sections),
	})
}

// PostProductsRefresh handles POST /products/refresh. The result arrives later on GET /products.
func (h *Handler) PostProductsRefresh(w http.ResponseWriter, r *http.Request) {
	log := observability.LoggerFromContext(r.Context(), h.logger)

	if err := h.storefront.Refresh(r.Context()); err != nil {
		if errors.Is(err, purchase.ErrPaymentsNotAllowed) {
			writeError(w, http.StatusForbidden, presentation.MessageCannotMakePayments)
			return
		}
		log.Error("product refresh failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "product refresh failed")
		return
	}
	writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "requested"})
}

// GetPurchases handles GET /purchases.
func (h *Handler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	view := h.storefront.Purchases()
	writeJSON(w, http.StatusOK, PurchasesResponse{
		Status:           view.Status.String(),
		Message:          view.Message,
		RestoreRequested: view.RestoreRequested,
		Sections:         h.sections(view.Sections),
	})
}

// GetPurchase handles GET /purchases/{transactionID}.
func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request, transactionID string) {
	view, err := h.storefront.Transaction(transactionID)
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}
	writeJSON(w, http.StatusOK, TransactionResponse{
		TransactionID: view.Record.TransactionID,
		Title:         view.Title,
		Sections:      h.sections(view.Sections),
	})
}

// PostPurchases handles POST /purchases {"product_id": "..."}.
func (h *Handler) PostPurchases(w http.ResponseWriter, r *http.Request) {
	log := observability.LoggerFromContext(r.Context(), h.logger)

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	err := h.storefront.Buy(r.Context(), req.ProductID)
	switch {
	case err == nil:
		log.Info("purchase submitted", zap.String("product_id", req.ProductID))
		writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "submitted"})
	case errors.Is(err, service.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, purchase.ErrPaymentsNotAllowed):
		writeError(w, http.StatusForbidden, presentation.MessageCannotMakePayments)
	case errors.Is(err, purchase.ErrInvalidProduct):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("purchase failed", zap.Error(err), zap.String("product_id", req.ProductID))
		writeError(w, http.StatusInternalServerError, "purchase failed")
	}
}

// PostRestore handles POST /purchases/restore.
func (h *Handler) PostRestore(w http.ResponseWriter, r *http.Request) {
	if err := h.storefront.Restore(r.Context()); err != nil {
		if errors.Is(err, purchase.ErrPaymentsNotAllowed) {
			writeError(w, http.StatusForbidden, presentation.MessageCannotMakePayments)
			return
		}
		observability.LoggerFromContext(r.Context(), h.logger).Error("restore failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "restore failed")
		return
	}
	writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "restoring"})
}

// GetMessages handles GET /messages?limit=N.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request, params GetMessagesParams) {
	limit := defaultMessageLimit
	if params.Limit != nil {
		if *params.Limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = *params.Limit
	}

	messages := h.storefront.Messages(limit)
	resp := MessagesResponse{Messages: make([]MessageDTO, 0, len(messages))}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, MessageDTO{
			ID:            m.Event.ID,
			Kind:          string(m.Event.Kind),
			Status:        m.Event.Status,
			Text:          m.Text,
			ProductID:     m.Event.ProductID,
			TransactionID: m.Event.TransactionID,
			OccurredAt:    m.Event.OccurredAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) sections(sections []presentation.Section) []SectionDTO {
	out := make([]SectionDTO, 0, len(sections))
	for _, s := range sections {
		elements := make([]any, 0, len(s.Elements))
		for _, e := range s.Elements {
			elements = append(elements, h.element(e))
		}
		out = append(out, SectionDTO{Name: s.Name, Elements: elements})
	}
	return out
}

func (h *Handler) element(e any) any {
	switch v := e.(type) {
	case storekit.Product:
		return ProductDTO{
			ID:          v.ID,
			Title:       v.Title,
			Description: v.Description,
			Price:       presentation.FormatPrice(v),
			Amount:      v.Price.String(),
			Currency:    v.CurrencyCode,
			Hosted:      v.Hosted,
		}
	case purchase.Record:
		return PurchaseDTO{
			TransactionID: v.TransactionID,
			ProductID:     v.ProductID,
			Title:         h.storefront.Title(v.ProductID),
			Date:          presentation.FormatDate(v.Date, presentation.DateShort),
			Restored:      v.Restored,
		}
	case presentation.Detail:
		return DetailDTO{Label: v.Label, Value: v.Value}
	default:
		return v
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, ErrorResponse{Error: message})
}
