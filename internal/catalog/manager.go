// Package catalog owns the list of products the commerce backend knows about
// and the identifiers it rejected.
package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/notify"
	"github.com/shestoi/iapdemo/internal/storekit"
	"github.com/shestoi/iapdemo/platform/observability"
)

// ErrNoIdentifiers is returned by Query when there is nothing to ask for.
var ErrNoIdentifiers = errors.New("no product identifiers to query")

// MetricsRecorder counts completed product requests by status.
type MetricsRecorder interface {
	RecordProductRequest(ctx context.Context, status string)
}

// State is a copy of the catalog at one point in time.
type State struct {
	Status             RequestStatus
	Message            string
	Products           []storekit.Product
	InvalidIdentifiers []string
}

// Manager issues product requests and keeps the latest result.
// Only the most recent Query is honoured; results of superseded requests are dropped.
type Manager struct {
	logger    *zap.Logger
	requester storekit.ProductRequester
	publisher notify.Publisher
	metrics   MetricsRecorder

	// seq orders commit+publish so notifications follow completion order.
	seq sync.Mutex

	mu        sync.RWMutex
	pendingID string
	requested []string
	state     State
}

// NewManager creates the manager and registers it as the requester's handler.
func NewManager(logger *zap.Logger, requester storekit.ProductRequester, publisher notify.Publisher, metrics MetricsRecorder) *Manager {
	m := &Manager{
		logger:    logger,
		requester: requester,
		publisher: publisher,
		metrics:   metrics,
	}
	requester.SetHandler(m)
	return m
}

// Query asks the backend about ids. A request that is still outstanding is superseded.
// Submission failures are reported through the Failed status, not as an error.
func (m *Manager) Query(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return ErrNoIdentifiers
	}

	requestID := uuid.NewString()
	requested := dedupe(ids)

	m.mu.Lock()
	if m.pendingID != "" {
		m.logger.Debug("superseding outstanding product request", zap.String("request_id", m.pendingID))
	}
	m.pendingID = requestID
	m.requested = requested
	m.mu.Unlock()

	observability.L(ctx, m.logger).Info("requesting products",
		zap.String("request_id", requestID),
		zap.Int("identifiers", len(requested)))

	if err := m.requester.RequestProducts(ctx, requestID, requested); err != nil {
		m.OnProductQueryFailed(ctx, requestID, err)
	}
	return nil
}

// OnProductQueryComplete partitions resp against the requested identifiers.
func (m *Manager) OnProductQueryComplete(ctx context.Context, requestID string, resp storekit.ProductsResponse) {
	m.seq.Lock()
	defer m.seq.Unlock()

	m.mu.Lock()
	if requestID != m.pendingID {
		m.mu.Unlock()
		m.logger.Debug("discarding stale product response", zap.String("request_id", requestID))
		return
	}
	products, invalid := partition(m.requested, resp)
	status := classify(products, invalid)
	m.pendingID = ""
	m.state = State{
		Status:             status,
		Products:           products,
		InvalidIdentifiers: invalid,
	}
	m.mu.Unlock()

	observability.L(ctx, m.logger).Info("product request completed",
		zap.String("request_id", requestID),
		zap.String("status", status.String()),
		zap.Int("products", len(products)),
		zap.Int("invalid_identifiers", len(invalid)))

	m.metrics.RecordProductRequest(ctx, status.String())
	m.publisher.Publish(ctx, notify.Event{
		Kind:   notify.KindProductRequestCompleted,
		Status: status.String(),
	})
}

// OnProductQueryFailed records the failure. Previously fetched lists are kept.
func (m *Manager) OnProductQueryFailed(ctx context.Context, requestID string, err error) {
	m.seq.Lock()
	defer m.seq.Unlock()

	message := "product request failed"
	if err != nil {
		message = err.Error()
	}

	m.mu.Lock()
	if requestID != m.pendingID {
		m.mu.Unlock()
		m.logger.Debug("discarding stale product failure", zap.String("request_id", requestID))
		return
	}
	m.pendingID = ""
	m.state.Status = RequestFailed
	m.state.Message = message
	m.mu.Unlock()

	observability.L(ctx, m.logger).Warn("product request failed",
		zap.String("request_id", requestID),
		zap.Error(err))

	m.metrics.RecordProductRequest(ctx, RequestFailed.String())
	m.publisher.Publish(ctx, notify.Event{
		Kind:    notify.KindProductRequestCompleted,
		Status:  RequestFailed.String(),
		Message: message,
	})
}

// Products returns the valid products in backend order.
func (m *Manager) Products() []storekit.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]storekit.Product(nil), m.state.Products...)
}

// InvalidIdentifiers returns the rejected identifiers in request order.
func (m *Manager) InvalidIdentifiers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.state.InvalidIdentifiers...)
}

func (m *Manager) Status() RequestStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Status
}

// Message is the failure text of the latest request, empty unless Status is RequestFailed.
func (m *Manager) Message() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Message
}

func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Status:             m.state.Status,
		Message:            m.state.Message,
		Products:           append([]storekit.Product(nil), m.state.Products...),
		InvalidIdentifiers: append([]string(nil), m.state.InvalidIdentifiers...),
	}
}

// ProductByID finds a valid product.
func (m *Manager) ProductByID(id string) (storekit.Product, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.state.Products {
		if p.ID == id {
			return p, true
		}
	}
	return storekit.Product{}, false
}

// TitleForIdentifier returns the localized title of a valid product.
func (m *Manager) TitleForIdentifier(id string) (string, bool) {
	p, ok := m.ProductByID(id)
	if !ok {
		return "", false
	}
	return p.Title, true
}

// TitleForTransaction returns the title of the product tx paid for.
// Restorations are resolved through the original transaction.
func (m *Manager) TitleForTransaction(tx storekit.Transaction) (string, bool) {
	id := tx.ProductID()
	if tx.State == storekit.StateRestored && tx.Original != nil {
		id = tx.Original.ProductID()
	}
	return m.TitleForIdentifier(id)
}

// partition splits the response so that every requested identifier ends up
// exactly once in either products or invalid.
func partition(requested []string, resp storekit.ProductsResponse) ([]storekit.Product, []string) {
	wanted := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		wanted[id] = struct{}{}
	}

	products := make([]storekit.Product, 0, len(resp.Products))
	found := make(map[string]struct{}, len(resp.Products))
	for _, p := range resp.Products {
		if _, ok := wanted[p.ID]; !ok {
			continue
		}
		if _, dup := found[p.ID]; dup {
			continue
		}
		found[p.ID] = struct{}{}
		products = append(products, p)
	}

	invalid := make([]string, 0, len(requested)-len(products))
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			invalid = append(invalid, id)
		}
	}
	return products, invalid
}

func classify(products []storekit.Product, invalid []string) RequestStatus {
	switch {
	case len(products) == 0:
		return RequestIdentifiersNotFound
	case len(invalid) == 0:
		return RequestFound
	default:
		return RequestMixedResponse
	}
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
