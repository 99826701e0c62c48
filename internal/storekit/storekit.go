// Package storekit is the boundary to the commerce and transaction backends.
// Everything past these interfaces belongs to the platform vendor.
package storekit

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a purchasable item as described by the commerce backend.
type Product struct {
	ID           string
	Title        string
	Description  string
	Price        decimal.Decimal
	CurrencyCode string
	// Locale is a BCP 47 tag the price should be formatted for, e.g. "en-US".
	Locale string
	// Hosted reports whether the content is delivered as a download.
	Hosted bool
}

// Download is hosted content attached to a transaction.
type Download struct {
	ContentIdentifier string
	ContentVersion    string
	ContentLength     int64
}

// Payment is a request to buy Quantity units of a product.
type Payment struct {
	ProductID string
	Quantity  int
}

// TransactionState is the lifecycle state reported by the transaction backend.
type TransactionState int

const (
	StatePurchasing TransactionState = iota
	StatePurchased
	StateFailed
	StateRestored
	StateDeferred
)

func (s TransactionState) String() string {
	switch s {
	case StatePurchasing:
		return "purchasing"
	case StatePurchased:
		return "purchased"
	case StateFailed:
		return "failed"
	case StateRestored:
		return "restored"
	case StateDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Transaction is one payment attempt or restoration.
type Transaction struct {
	ID      string
	State   TransactionState
	Payment Payment
	Date    time.Time
	// Original is the transaction being restored; set only for StateRestored.
	Original  *Transaction
	Downloads []Download
	// Err is set for StateFailed.
	Err error
}

// ProductID returns the identifier of the product the payment was made for.
func (t Transaction) ProductID() string {
	return t.Payment.ProductID
}

// ProductsResponse is the answer to a product request.
type ProductsResponse struct {
	Products           []Product
	InvalidIdentifiers []string
}

// ProductRequestHandler receives the outcome of RequestProducts.
type ProductRequestHandler interface {
	OnProductQueryComplete(ctx context.Context, requestID string, resp ProductsResponse)
	OnProductQueryFailed(ctx context.Context, requestID string, err error)
}

// ProductRequester queries the commerce backend. RequestProducts returns once the
// request is submitted; the result arrives later on the registered handler.
type ProductRequester interface {
	RequestProducts(ctx context.Context, requestID string, ids []string) error
	SetHandler(h ProductRequestHandler)
}

// TransactionObserver receives transaction backend callbacks.
type TransactionObserver interface {
	OnTransactionsUpdated(ctx context.Context, txs []Transaction)
	OnRestoreCompleted(ctx context.Context)
	OnRestoreFailed(ctx context.Context, err error)
}

// PaymentQueue is the transaction backend.
// Finish acknowledges a terminal transaction; the backend redelivers unfinished ones.
type PaymentQueue interface {
	CanMakePayments() bool
	Add(ctx context.Context, p Payment) error
	RestoreCompletedTransactions(ctx context.Context) error
	Finish(ctx context.Context, tx Transaction) error
	SetObserver(o TransactionObserver)
}
