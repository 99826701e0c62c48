package storekit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCancelled(t *testing.T) {
	cancelled := &Error{Code: ErrorPaymentCancelled}

	assert.True(t, IsCancelled(cancelled))
	assert.True(t, IsCancelled(fmt.Errorf("add payment: %w", cancelled)))
	assert.False(t, IsCancelled(&Error{Code: ErrorNetwork, Message: "offline"}))
	assert.False(t, IsCancelled(errors.New("payment cancelled")))
	assert.False(t, IsCancelled(nil))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "offline", (&Error{Code: ErrorNetwork, Message: "offline"}).Error())
	assert.Equal(t, "storekit error 6", (&Error{Code: ErrorNetwork}).Error())
}

func TestTransaction_ProductID(t *testing.T) {
	tx := Transaction{ID: "t1", Payment: Payment{ProductID: "com.example.gold", Quantity: 1}}
	assert.Equal(t, "com.example.gold", tx.ProductID())
	assert.Equal(t, "purchased", StatePurchased.String())
}
