// Package notify carries state-change notifications from the catalog and the
// purchase coordinator to whoever presents them.
package notify

import (
	"context"
	"time"
)

// Kind names a notification.
type Kind string

const (
	KindProductRequestCompleted Kind = "product_request_completed"
	KindPurchaseUpdated         Kind = "purchase_updated"
	KindRestoreInitiated        Kind = "restore_initiated"
	KindPurchaseDeferred        Kind = "purchase_deferred"
	// KindResourceStatus reports a problem with the bundled identifiers file.
	KindResourceStatus Kind = "resource_status"
)

// Event is a single notification. Status holds the String() of the
// catalog or purchase status that changed, empty when none applies.
type Event struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	OccurredAt    time.Time `json:"occurred_at"`
	Status        string    `json:"status,omitempty"`
	Message       string    `json:"message,omitempty"`
	ProductID     string    `json:"product_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
}

// Publisher accepts notifications. Implementations keep the order of Publish calls.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Handler receives published events. It must not call Publish on the same hub.
type Handler func(ctx context.Context, e Event)
