// Package purchase submits payments and restorations and tracks the transactions
// the backend reports back.
package purchase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/notify"
	"github.com/shestoi/iapdemo/internal/repository"
	"github.com/shestoi/iapdemo/internal/storekit"
	"github.com/shestoi/iapdemo/platform/observability"
)

var (
	ErrInvalidProduct     = errors.New("product identifier is empty")
	ErrPaymentsNotAllowed = errors.New("payments are not allowed for this account")
)

const unknownFailure = "Purchase failed for an unknown reason."

// MetricsRecorder counts terminal transaction outcomes.
type MetricsRecorder interface {
	RecordPurchaseEvent(ctx context.Context, status string)
	RecordDuplicateTransaction(ctx context.Context)
}

// State is a copy of the coordinator's lists and status.
type State struct {
	Status           Status
	Message          string
	Purchased        []Record
	Restored         []Record
	RestoreRequested bool
}

// Coordinator is the transaction observer of the payment queue.
// Every terminal transaction is claimed in the ledger before it is recorded,
// so a redelivered transaction is recorded and announced at most once. Redeliveries
// are still acknowledged, since the backend keeps redelivering until Finish succeeds.
type Coordinator struct {
	logger    *zap.Logger
	queue     storekit.PaymentQueue
	ledger    repository.FinishedTransactionStore
	publisher notify.Publisher
	metrics   MetricsRecorder

	// seq serializes callbacks so notifications follow callback order.
	seq sync.Mutex

	mu              sync.RWMutex
	state           State
	restoredInBatch int
}

// NewCoordinator creates the coordinator and registers it as the queue's observer.
func NewCoordinator(
	logger *zap.Logger,
	queue storekit.PaymentQueue,
	ledger repository.FinishedTransactionStore,
	publisher notify.Publisher,
	metrics MetricsRecorder,
) *Coordinator {
	c := &Coordinator{
		logger:    logger,
		queue:     queue,
		ledger:    ledger,
		publisher: publisher,
		metrics:   metrics,
	}
	queue.SetObserver(c)
	return c
}

func (c *Coordinator) CanMakePayments() bool {
	return c.queue.CanMakePayments()
}

// Buy submits a payment for one unit of product. The outcome arrives through
// OnTransactionsUpdated; a rejected submission is reported as StatusFailed.
func (c *Coordinator) Buy(ctx context.Context, product storekit.Product) error {
	if strings.TrimSpace(product.ID) == "" {
		return ErrInvalidProduct
	}
	if !c.queue.CanMakePayments() {
		return ErrPaymentsNotAllowed
	}

	log := observability.L(ctx, c.logger)
	log.Info("submitting payment", zap.String("product_id", product.ID))

	if err := c.queue.Add(ctx, storekit.Payment{ProductID: product.ID, Quantity: 1}); err != nil {
		log.Warn("payment submission failed", zap.String("product_id", product.ID), zap.Error(err))

		c.seq.Lock()
		defer c.seq.Unlock()
		message := failureMessage(err)
		c.setStatus(StatusFailed, message)
		c.metrics.RecordPurchaseEvent(ctx, StatusFailed.String())
		c.publisher.Publish(ctx, notify.Event{
			Kind:      notify.KindPurchaseUpdated,
			Status:    StatusFailed.String(),
			Message:   message,
			ProductID: product.ID,
		})
	}
	return nil
}

// Restore asks the backend to redeliver completed transactions. The restore flag is
// raised before submission so the completion callback can tell an empty restore apart.
func (c *Coordinator) Restore(ctx context.Context) error {
	if !c.queue.CanMakePayments() {
		return ErrPaymentsNotAllowed
	}

	c.seq.Lock()
	c.mu.Lock()
	c.state.RestoreRequested = true
	c.restoredInBatch = 0
	c.mu.Unlock()
	c.publisher.Publish(ctx, notify.Event{Kind: notify.KindRestoreInitiated})
	c.seq.Unlock()

	observability.L(ctx, c.logger).Info("restoring completed transactions")

	if err := c.queue.RestoreCompletedTransactions(ctx); err != nil {
		c.OnRestoreFailed(ctx, err)
	}
	return nil
}

// OnTransactionsUpdated handles a batch of state changes in order.
func (c *Coordinator) OnTransactionsUpdated(ctx context.Context, txs []storekit.Transaction) {
	c.seq.Lock()
	defer c.seq.Unlock()

	for _, tx := range txs {
		switch tx.State {
		case storekit.StatePurchasing:
			c.logger.Debug("transaction in progress", zap.String("product_id", tx.ProductID()))
		case storekit.StateDeferred:
			c.logger.Info("transaction deferred", zap.String("product_id", tx.ProductID()))
			c.publisher.Publish(ctx, notify.Event{
				Kind:      notify.KindPurchaseDeferred,
				ProductID: tx.ProductID(),
			})
		case storekit.StatePurchased, storekit.StateFailed, storekit.StateRestored:
			c.complete(ctx, tx)
		default:
			c.logger.Warn("unknown transaction state",
				zap.String("transaction_id", tx.ID),
				zap.Int("state", int(tx.State)))
		}
	}
}

// complete records a terminal transaction once and acknowledges it with the backend.
func (c *Coordinator) complete(ctx context.Context, tx storekit.Transaction) {
	log := observability.L(ctx, c.logger).With(
		zap.String("transaction_id", tx.ID),
		zap.String("product_id", tx.ProductID()),
		zap.String("state", tx.State.String()),
	)

	first, err := c.ledger.MarkFinished(ctx, tx.ID)
	if err != nil {
		// left unfinished; the backend redelivers it
		log.Error("failed to claim transaction", zap.Error(err))
		return
	}
	if !first {
		log.Info("skipping already finished transaction")
		c.metrics.RecordDuplicateTransaction(ctx)
		// the backend only redelivers what it never saw acknowledged
		c.finish(ctx, log, tx)
		return
	}

	var (
		status  Status
		message string
	)

	c.mu.Lock()
	switch tx.State {
	case storekit.StatePurchased:
		status = StatusSucceeded
		c.state.Purchased = append(c.state.Purchased, newRecord(tx))
	case storekit.StateRestored:
		status = StatusRestoreSucceeded
		c.state.Restored = append(c.state.Restored, newRecord(tx))
		c.restoredInBatch++
	case storekit.StateFailed:
		status = StatusFailed
		if !storekit.IsCancelled(tx.Err) {
			message = failureMessage(tx.Err)
		}
	}
	c.state.Status = status
	c.state.Message = message
	c.mu.Unlock()

	c.finish(ctx, log, tx)

	log.Info("transaction completed", zap.String("status", status.String()))
	c.metrics.RecordPurchaseEvent(ctx, status.String())

	productID := tx.ProductID()
	if tx.State == storekit.StateRestored && tx.Original != nil {
		productID = tx.Original.ProductID()
	}
	c.publisher.Publish(ctx, notify.Event{
		Kind:          notify.KindPurchaseUpdated,
		Status:        status.String(),
		Message:       message,
		ProductID:     productID,
		TransactionID: tx.ID,
	})
}

// OnRestoreCompleted reports NoRestorablePurchases when a requested restore brought nothing back.
func (c *Coordinator) OnRestoreCompleted(ctx context.Context) {
	c.seq.Lock()
	defer c.seq.Unlock()

	c.mu.Lock()
	empty := c.state.RestoreRequested && c.restoredInBatch == 0
	if empty {
		c.state.Status = StatusNoRestorablePurchases
		c.state.Message = ""
	}
	c.state.RestoreRequested = false
	restored := c.restoredInBatch
	c.mu.Unlock()

	observability.L(ctx, c.logger).Info("restore completed", zap.Int("restored", restored))

	if empty {
		c.metrics.RecordPurchaseEvent(ctx, StatusNoRestorablePurchases.String())
		c.publisher.Publish(ctx, notify.Event{
			Kind:   notify.KindPurchaseUpdated,
			Status: StatusNoRestorablePurchases.String(),
		})
	}
}

func (c *Coordinator) OnRestoreFailed(ctx context.Context, err error) {
	c.seq.Lock()
	defer c.seq.Unlock()

	message := failureMessage(err)
	c.mu.Lock()
	c.state.Status = StatusRestoreFailed
	c.state.Message = message
	c.state.RestoreRequested = false
	c.mu.Unlock()

	observability.L(ctx, c.logger).Warn("restore failed", zap.Error(err))

	c.metrics.RecordPurchaseEvent(ctx, StatusRestoreFailed.String())
	c.publisher.Publish(ctx, notify.Event{
		Kind:    notify.KindPurchaseUpdated,
		Status:  StatusRestoreFailed.String(),
		Message: message,
	})
}

// finish acknowledges tx with the backend. A failure leaves tx pending there,
// so it is redelivered and acknowledged again through the duplicate path.
func (c *Coordinator) finish(ctx context.Context, log *zap.Logger, tx storekit.Transaction) {
	err := c.queue.Finish(ctx, tx)
	switch {
	case err == nil:
	case errors.Is(err, storekit.ErrTransactionNotPending):
		log.Debug("transaction already acknowledged")
	default:
		log.Error("failed to finish transaction", zap.Error(err))
	}
}

func (c *Coordinator) setStatus(status Status, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Status = status
	c.state.Message = message
}

func (c *Coordinator) Purchased() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Record(nil), c.state.Purchased...)
}

func (c *Coordinator) Restored() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Record(nil), c.state.Restored...)
}

func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Status
}

// Message is the failure text for the latest status; empty for cancellations and successes.
func (c *Coordinator) Message() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Message
}

func (c *Coordinator) RestoreRequested() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.RestoreRequested
}

func (c *Coordinator) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.Purchased = append([]Record(nil), c.state.Purchased...)
	s.Restored = append([]Record(nil), c.state.Restored...)
	return s
}

// Find returns the purchased or restored record with transactionID.
func (c *Coordinator) Find(transactionID string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, list := range [][]Record{c.state.Purchased, c.state.Restored} {
		for _, r := range list {
			if r.TransactionID == transactionID {
				return r, true
			}
		}
	}
	return Record{}, false
}

func failureMessage(err error) string {
	if err == nil || strings.TrimSpace(err.Error()) == "" {
		return unknownFailure
	}
	return err.Error()
}
