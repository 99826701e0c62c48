package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/catalog"
	"github.com/shestoi/iapdemo/internal/notify"
	"github.com/shestoi/iapdemo/internal/purchase"
	"github.com/shestoi/iapdemo/internal/repository/memory"
	"github.com/shestoi/iapdemo/internal/storekit/local"
)

type nopMetrics struct{}

func (nopMetrics) RecordProductRequest(ctx context.Context, status string) {}
func (nopMetrics) RecordPurchaseEvent(ctx context.Context, status string)  {}
func (nopMetrics) RecordDuplicateTransaction(ctx context.Context)          {}

// TestStorefront_LocalFlow runs refresh, buy and restore against the local environment.
func TestStorefront_LocalFlow(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	env := local.New(local.Config{
		Products: []local.ProductConfig{
			{ID: "gold", Title: "Gold Coins", Price: decimal.RequireFromString("0.99"), Currency: "USD", Locale: "en-US"},
			{ID: "levels", Title: "Levels", Price: decimal.RequireFromString("2.99"), Currency: "USD", Locale: "en-US"},
		},
		PreviouslyPurchased: []string{"levels"},
	}, logger)
	defer env.Close()

	hub := notify.NewHub(logger, 50)
	events, cancel := hub.SubscribeChan(50)
	defer cancel()

	manager := catalog.NewManager(logger, env, hub, nopMetrics{})
	coordinator := purchase.NewCoordinator(logger, env, memory.NewFinishedTransactionStore(), hub, nopMetrics{})
	storefront := NewStorefront(logger, manager, coordinator, hub, hub,
		func(string) ([]string, error) { return []string{"gold", "levels", "unknown"}, nil }, "ProductIds.plist")

	next := func(kind notify.Kind) notify.Event {
		t.Helper()
		for {
			select {
			case e := <-events:
				if e.Kind == kind {
					return e
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("timed out waiting for %s", kind)
			}
		}
	}

	require.NoError(t, storefront.Refresh(ctx))
	assert.Equal(t, "MixedResponse", next(notify.KindProductRequestCompleted).Status)

	products := storefront.Products()
	assert.Len(t, products.Sections[0].Elements, 2)
	assert.Equal(t, []any{"unknown"}, products.Sections[1].Elements)

	require.NoError(t, storefront.Buy(ctx, "gold"))
	bought := next(notify.KindPurchaseUpdated)
	assert.Equal(t, "Succeeded", bought.Status)

	view, err := storefront.Transaction(bought.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "Gold Coins", view.Title)

	require.NoError(t, storefront.Restore(ctx))
	restored := next(notify.KindPurchaseUpdated)
	assert.Equal(t, "RestoreSucceeded", restored.Status)

	require.Eventually(t, func() bool {
		return !coordinator.RestoreRequested()
	}, 2*time.Second, 10*time.Millisecond)

	purchases := storefront.Purchases()
	assert.Equal(t, purchase.StatusRestoreSucceeded, purchases.Status)
	// gold was bought in this session, so it is restorable too
	assert.Len(t, purchases.Sections[0].Elements, 1)
	assert.Len(t, purchases.Sections[1].Elements, 2)
	assert.Empty(t, env.Unfinished())
}
