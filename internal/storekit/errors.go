package storekit

import (
	"errors"
	"fmt"
)

// ErrTransactionNotPending is returned by PaymentQueue.Finish for a transaction
// that was already acknowledged or was never delivered.
var ErrTransactionNotPending = errors.New("transaction is not pending")

// ErrorCode classifies backend errors.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota
	ErrorClientInvalid
	ErrorPaymentCancelled
	ErrorPaymentInvalid
	ErrorPaymentNotAllowed
	ErrorProductNotAvailable
	ErrorNetwork
)

// Error is an error reported by a backend.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storekit error %d", e.Code)
	}
	return e.Message
}

// IsCancelled reports whether err is a user cancellation.
func IsCancelled(err error) bool {
	var skErr *Error
	return errors.As(err, &skErr) && skErr.Code == ErrorPaymentCancelled
}
