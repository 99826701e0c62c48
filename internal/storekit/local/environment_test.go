package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/storekit"
)

const waitFor = 2 * time.Second

type productResult struct {
	requestID string
	resp      storekit.ProductsResponse
}

type recordingHandler struct {
	results chan productResult
}

func (h *recordingHandler) OnProductQueryComplete(ctx context.Context, requestID string, resp storekit.ProductsResponse) {
	h.results <- productResult{requestID: requestID, resp: resp}
}

func (h *recordingHandler) OnProductQueryFailed(ctx context.Context, requestID string, err error) {}

type callback struct {
	txs        []storekit.Transaction
	completed  bool
	restoreErr error
}

type recordingObserver struct {
	calls chan callback
}

func newObserver() *recordingObserver {
	return &recordingObserver{calls: make(chan callback, 16)}
}

func (o *recordingObserver) OnTransactionsUpdated(ctx context.Context, txs []storekit.Transaction) {
	o.calls <- callback{txs: txs}
}

func (o *recordingObserver) OnRestoreCompleted(ctx context.Context) {
	o.calls <- callback{completed: true}
}

func (o *recordingObserver) OnRestoreFailed(ctx context.Context, err error) {
	o.calls <- callback{restoreErr: err}
}

func (o *recordingObserver) next(t *testing.T) callback {
	t.Helper()
	select {
	case c := <-o.calls:
		return c
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for callback")
		return callback{}
	}
}

func testConfig() Config {
	return Config{
		Products: []ProductConfig{
			{ID: "gold", Title: "Gold", Price: decimal.RequireFromString("0.99"), Currency: "USD", Locale: "en-US"},
			{ID: "levels", Title: "Levels", Price: decimal.RequireFromString("4.99"), Currency: "USD", Locale: "en-US",
				Hosted: true, ContentVersion: "1.0", ContentLength: 4096},
		},
	}
}

func newEnv(t *testing.T, cfg Config) *Environment {
	t.Helper()
	env := New(cfg, zap.NewNop())
	t.Cleanup(func() { _ = env.Close() })
	return env
}

func TestEnvironment_RequestProducts(t *testing.T) {
	env := newEnv(t, testConfig())
	h := &recordingHandler{results: make(chan productResult, 1)}
	env.SetHandler(h)

	require.NoError(t, env.RequestProducts(context.Background(), "req-1", []string{"levels", "nope", "gold"}))

	select {
	case r := <-h.results:
		assert.Equal(t, "req-1", r.requestID)
		require.Len(t, r.resp.Products, 2)
		assert.Equal(t, "gold", r.resp.Products[0].ID)
		assert.Equal(t, "levels", r.resp.Products[1].ID)
		assert.Equal(t, []string{"nope"}, r.resp.InvalidIdentifiers)
	case <-time.After(waitFor):
		t.Fatal("no product response")
	}
}

func TestEnvironment_RequestProductsCancelledContext(t *testing.T) {
	env := newEnv(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, env.RequestProducts(ctx, "req-1", []string{"gold"}), context.Canceled)
}

func TestEnvironment_PurchaseAndFinish(t *testing.T) {
	env := newEnv(t, testConfig())
	obs := newObserver()
	env.SetObserver(obs)

	require.NoError(t, env.Add(context.Background(), storekit.Payment{ProductID: "levels", Quantity: 1}))

	first := obs.next(t)
	require.Len(t, first.txs, 1)
	assert.Equal(t, storekit.StatePurchasing, first.txs[0].State)

	second := obs.next(t)
	require.Len(t, second.txs, 1)
	tx := second.txs[0]
	assert.Equal(t, storekit.StatePurchased, tx.State)
	assert.NotEmpty(t, tx.ID)
	require.Len(t, tx.Downloads, 1)
	assert.Equal(t, int64(4096), tx.Downloads[0].ContentLength)

	assert.Len(t, env.Unfinished(), 1)
	require.NoError(t, env.Finish(context.Background(), tx))
	assert.Empty(t, env.Unfinished())
	assert.ErrorIs(t, env.Finish(context.Background(), tx), ErrUnknownTransaction)
}

func TestEnvironment_PurchaseOutcomes(t *testing.T) {
	cancelled := testConfig()
	cancelled.CancelPurchases = true

	failing := testConfig()
	failing.FailPurchases = "Card declined."

	deferred := testConfig()
	deferred.AskToBuy = true

	tests := []struct {
		name      string
		cfg       Config
		productID string
		check     func(t *testing.T, tx storekit.Transaction)
	}{
		{"cancelled", cancelled, "gold", func(t *testing.T, tx storekit.Transaction) {
			assert.Equal(t, storekit.StateFailed, tx.State)
			assert.True(t, storekit.IsCancelled(tx.Err))
		}},
		{"failing", failing, "gold", func(t *testing.T, tx storekit.Transaction) {
			assert.Equal(t, storekit.StateFailed, tx.State)
			assert.EqualError(t, tx.Err, "Card declined.")
		}},
		{"deferred", deferred, "gold", func(t *testing.T, tx storekit.Transaction) {
			assert.Equal(t, storekit.StateDeferred, tx.State)
		}},
		{"unknown product", testConfig(), "missing", func(t *testing.T, tx storekit.Transaction) {
			assert.Equal(t, storekit.StateFailed, tx.State)
			assert.False(t, storekit.IsCancelled(tx.Err))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, tt.cfg)
			obs := newObserver()
			env.SetObserver(obs)

			require.NoError(t, env.Add(context.Background(), storekit.Payment{ProductID: tt.productID, Quantity: 1}))
			obs.next(t) // purchasing
			c := obs.next(t)
			require.Len(t, c.txs, 1)
			tt.check(t, c.txs[0])
		})
	}
}

func TestEnvironment_Restore(t *testing.T) {
	cfg := testConfig()
	cfg.PreviouslyPurchased = []string{"gold", "gold", "retired"}
	env := newEnv(t, cfg)
	obs := newObserver()
	env.SetObserver(obs)

	require.NoError(t, env.RestoreCompletedTransactions(context.Background()))

	c := obs.next(t)
	require.Len(t, c.txs, 1)
	tx := c.txs[0]
	assert.Equal(t, storekit.StateRestored, tx.State)
	require.NotNil(t, tx.Original)
	assert.Equal(t, "gold", tx.Original.ProductID())
	assert.NotEqual(t, tx.ID, tx.Original.ID)
	assert.True(t, tx.Original.Date.Before(tx.Date))

	assert.True(t, obs.next(t).completed)
}

func TestEnvironment_RestoreNothing(t *testing.T) {
	env := newEnv(t, testConfig())
	obs := newObserver()
	env.SetObserver(obs)

	require.NoError(t, env.RestoreCompletedTransactions(context.Background()))
	assert.True(t, obs.next(t).completed)
}

func TestEnvironment_RestoreFails(t *testing.T) {
	cfg := testConfig()
	cfg.FailRestore = "Cannot connect to the store."
	env := newEnv(t, cfg)
	obs := newObserver()
	env.SetObserver(obs)

	require.NoError(t, env.RestoreCompletedTransactions(context.Background()))
	c := obs.next(t)
	assert.EqualError(t, c.restoreErr, "Cannot connect to the store.")
}

func TestEnvironment_RedeliversUnfinishedOnSetObserver(t *testing.T) {
	env := newEnv(t, testConfig())

	require.NoError(t, env.Add(context.Background(), storekit.Payment{ProductID: "gold", Quantity: 1}))
	require.Eventually(t, func() bool { return len(env.Unfinished()) == 1 }, waitFor, 10*time.Millisecond)

	obs := newObserver()
	env.SetObserver(obs)

	c := obs.next(t)
	require.Len(t, c.txs, 1)
	assert.Equal(t, storekit.StatePurchased, c.txs[0].State)
	assert.Equal(t, env.Unfinished()[0].ID, c.txs[0].ID)
}

func TestEnvironment_CanMakePayments(t *testing.T) {
	assert.True(t, newEnv(t, testConfig()).CanMakePayments())

	disabled := false
	cfg := testConfig()
	cfg.CanMakePayments = &disabled
	assert.False(t, newEnv(t, cfg).CanMakePayments())
}

func TestEnvironment_Closed(t *testing.T) {
	env := New(testConfig(), zap.NewNop())
	require.NoError(t, env.Close())
	require.NoError(t, env.Close())

	assert.ErrorIs(t, env.Add(context.Background(), storekit.Payment{ProductID: "gold", Quantity: 1}), ErrClosed)
	assert.ErrorIs(t, env.RequestProducts(context.Background(), "r", []string{"gold"}), ErrClosed)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storekit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"can_make_payments": true,
		"latency_ms": 5,
		"previously_purchased": ["gold"],
		"products": [{"id": "gold", "title": "Gold", "price": "0.99", "currency": "USD", "locale": "en-US"}]
	}`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Products, 1)
	assert.True(t, cfg.Products[0].Price.Equal(decimal.RequireFromString("0.99")))
	assert.Equal(t, 5*time.Millisecond, cfg.latency())
	assert.True(t, cfg.canMakePayments())

	require.NoError(t, os.WriteFile(path, []byte(`{"products": [{"id": "a"}, {"id": "a"}]}`), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
