package repository

import (
	"context"
	"errors"
)

// FinishedTransactionStore remembers which transactions have been finished with the
// transaction backend. The purchase coordinator claims an id here before acting on it,
// so a redelivered transaction is processed at most once.
type FinishedTransactionStore interface {
	// MarkFinished claims transactionID. first is true only for the call that
	// recorded it; every later call for the same id returns false.
	MarkFinished(ctx context.Context, transactionID string) (first bool, err error)
}

// ErrEmptyTransactionID is returned for a blank transaction id.
var ErrEmptyTransactionID = errors.New("transaction id is empty")
