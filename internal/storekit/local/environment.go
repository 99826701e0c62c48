// Package local is a deterministic stand-in for the commerce and transaction
// backends, driven by a JSON configuration. It moves no money and issues no receipts.
package local

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/storekit"
)

var (
	ErrClosed             = errors.New("local storekit environment is closed")
	ErrUnknownTransaction = storekit.ErrTransactionNotPending
)

const taskBuffer = 64

// Environment implements storekit.ProductRequester and storekit.PaymentQueue.
// Callbacks run one at a time on a single delivery goroutine.
type Environment struct {
	cfg      Config
	logger   *zap.Logger
	products map[string]storekit.Product
	now      func() time.Time

	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	handler    storekit.ProductRequestHandler
	observer   storekit.TransactionObserver
	unfinished map[string]storekit.Transaction
	pending    []string
	owned      []string
}

// New starts the delivery goroutine. Call Close to stop it.
func New(cfg Config, logger *zap.Logger) *Environment {
	e := &Environment{
		cfg:        cfg,
		logger:     logger,
		products:   make(map[string]storekit.Product, len(cfg.Products)),
		now:        func() time.Time { return time.Now().UTC() },
		tasks:      make(chan func(), taskBuffer),
		done:       make(chan struct{}),
		unfinished: make(map[string]storekit.Transaction),
	}
	for _, p := range cfg.Products {
		e.products[p.ID] = p.product()
	}
	e.owned = append(e.owned, cfg.PreviouslyPurchased...)

	e.wg.Add(1)
	go e.run()
	return e
}

func (e *Environment) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case task := <-e.tasks:
			task()
		}
	}
}

func (e *Environment) enqueue(task func()) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}

	select {
	case e.tasks <- task:
		return nil
	case <-e.done:
		return ErrClosed
	}
}

// wait sleeps for the configured latency; false means the environment closed meanwhile.
func (e *Environment) wait() bool {
	latency := e.cfg.latency()
	if latency == 0 {
		return true
	}
	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-e.done:
		return false
	}
}

// Close stops delivery. Queued callbacks are dropped.
func (e *Environment) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	close(e.done)
	e.wg.Wait()
	return nil
}

func (e *Environment) SetHandler(h storekit.ProductRequestHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
}

// RequestProducts answers from the configured products, in configuration order.
func (e *Environment) RequestProducts(ctx context.Context, requestID string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cbCtx := context.WithoutCancel(ctx)
	requested := append([]string(nil), ids...)

	return e.enqueue(func() {
		if !e.wait() {
			return
		}

		wanted := make(map[string]struct{}, len(requested))
		for _, id := range requested {
			wanted[id] = struct{}{}
		}

		var resp storekit.ProductsResponse
		for _, p := range e.cfg.Products {
			if _, ok := wanted[p.ID]; ok {
				resp.Products = append(resp.Products, e.products[p.ID])
			}
		}
		for _, id := range requested {
			if _, ok := e.products[id]; !ok {
				resp.InvalidIdentifiers = append(resp.InvalidIdentifiers, id)
			}
		}

		e.mu.Lock()
		h := e.handler
		e.mu.Unlock()
		if h == nil {
			e.logger.Warn("product response dropped, no handler", zap.String("request_id", requestID))
			return
		}
		h.OnProductQueryComplete(cbCtx, requestID, resp)
	})
}

func (e *Environment) CanMakePayments() bool {
	return e.cfg.canMakePayments()
}

// SetObserver attaches o and redelivers every unfinished transaction to it.
func (e *Environment) SetObserver(o storekit.TransactionObserver) {
	e.mu.Lock()
	e.observer = o
	redeliver := e.unfinishedLocked()
	e.mu.Unlock()

	if o == nil || len(redeliver) == 0 {
		return
	}
	if err := e.enqueue(func() { e.deliver(context.Background(), redeliver) }); err != nil {
		e.logger.Warn("redelivery skipped", zap.Error(err))
	}
}

// Add reports purchasing and then the configured outcome of the payment.
func (e *Environment) Add(ctx context.Context, p storekit.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Quantity <= 0 {
		return &storekit.Error{Code: storekit.ErrorPaymentInvalid, Message: "quantity must be positive"}
	}
	cbCtx := context.WithoutCancel(ctx)

	return e.enqueue(func() {
		e.deliver(cbCtx, []storekit.Transaction{{
			ID:      uuid.NewString(),
			State:   storekit.StatePurchasing,
			Payment: p,
			Date:    e.now(),
		}})
		if !e.wait() {
			return
		}
		e.deliver(cbCtx, []storekit.Transaction{e.settle(p)})
	})
}

func (e *Environment) settle(p storekit.Payment) storekit.Transaction {
	tx := storekit.Transaction{
		ID:      uuid.NewString(),
		Payment: p,
		Date:    e.now(),
	}

	product, known := e.products[p.ProductID]
	switch {
	case !known:
		tx.State = storekit.StateFailed
		tx.Err = &storekit.Error{Code: storekit.ErrorProductNotAvailable, Message: fmt.Sprintf("product %s is not available", p.ProductID)}
	case e.cfg.AskToBuy:
		tx.State = storekit.StateDeferred
		return tx
	case e.cfg.CancelPurchases:
		tx.State = storekit.StateFailed
		tx.Err = &storekit.Error{Code: storekit.ErrorPaymentCancelled}
	case e.cfg.FailPurchases != "":
		tx.State = storekit.StateFailed
		tx.Err = &storekit.Error{Code: storekit.ErrorPaymentInvalid, Message: e.cfg.FailPurchases}
	default:
		tx.State = storekit.StatePurchased
		tx.Downloads = e.downloads(product)
	}

	e.mu.Lock()
	e.trackLocked(tx)
	if tx.State == storekit.StatePurchased {
		e.owned = append(e.owned, p.ProductID)
	}
	e.mu.Unlock()
	return tx
}

func (e *Environment) downloads(p storekit.Product) []storekit.Download {
	if !p.Hosted {
		return nil
	}
	for _, pc := range e.cfg.Products {
		if pc.ID == p.ID {
			return []storekit.Download{{
				ContentIdentifier: pc.ID,
				ContentVersion:    pc.ContentVersion,
				ContentLength:     pc.ContentLength,
			}}
		}
	}
	return nil
}

// RestoreCompletedTransactions reports one restored transaction per owned product,
// then restore completion.
func (e *Environment) RestoreCompletedTransactions(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cbCtx := context.WithoutCancel(ctx)

	return e.enqueue(func() {
		if !e.wait() {
			return
		}

		e.mu.Lock()
		o := e.observer
		e.mu.Unlock()
		if o == nil {
			return
		}

		if e.cfg.FailRestore != "" {
			o.OnRestoreFailed(cbCtx, &storekit.Error{Code: storekit.ErrorNetwork, Message: e.cfg.FailRestore})
			return
		}

		e.mu.Lock()
		owned := dedupe(e.owned)
		restored := make([]storekit.Transaction, 0, len(owned))
		for _, id := range owned {
			p, ok := e.products[id]
			if !ok {
				continue
			}
			now := e.now()
			original := storekit.Transaction{
				ID:      uuid.NewString(),
				State:   storekit.StatePurchased,
				Payment: storekit.Payment{ProductID: id, Quantity: 1},
				Date:    now.Add(-24 * time.Hour),
			}
			tx := storekit.Transaction{
				ID:        uuid.NewString(),
				State:     storekit.StateRestored,
				Payment:   original.Payment,
				Date:      now,
				Original:  &original,
				Downloads: e.downloads(p),
			}
			e.trackLocked(tx)
			restored = append(restored, tx)
		}
		e.mu.Unlock()

		if len(restored) > 0 {
			o.OnTransactionsUpdated(cbCtx, restored)
		}
		o.OnRestoreCompleted(cbCtx)
	})
}

// Finish acknowledges a terminal transaction. Finishing it again is an error.
func (e *Environment) Finish(ctx context.Context, tx storekit.Transaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.unfinished[tx.ID]; !ok {
		return fmt.Errorf("finish %s: %w", tx.ID, ErrUnknownTransaction)
	}
	delete(e.unfinished, tx.ID)
	for i, id := range e.pending {
		if id == tx.ID {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			break
		}
	}
	return nil
}

// Unfinished returns the transactions waiting for Finish, oldest first.
func (e *Environment) Unfinished() []storekit.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unfinishedLocked()
}

func (e *Environment) deliver(ctx context.Context, txs []storekit.Transaction) {
	e.mu.Lock()
	o := e.observer
	e.mu.Unlock()
	if o == nil {
		e.logger.Debug("transactions held, no observer", zap.Int("count", len(txs)))
		return
	}
	o.OnTransactionsUpdated(ctx, txs)
}

func (e *Environment) trackLocked(tx storekit.Transaction) {
	e.unfinished[tx.ID] = tx
	e.pending = append(e.pending, tx.ID)
}

func (e *Environment) unfinishedLocked() []storekit.Transaction {
	out := make([]storekit.Transaction, 0, len(e.pending))
	for _, id := range e.pending {
		out = append(out, e.unfinished[id])
	}
	return out
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
