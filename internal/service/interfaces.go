package service

import (
	"context"

	"github.com/shestoi/iapdemo/internal/catalog"
	"github.com/shestoi/iapdemo/internal/notify"
	"github.com/shestoi/iapdemo/internal/purchase"
	"github.com/shestoi/iapdemo/internal/storekit"
)

// Catalog is the part of catalog.Manager the storefront uses.
type Catalog interface {
	Query(ctx context.Context, ids []string) error
	Snapshot() catalog.State
	ProductByID(id string) (storekit.Product, bool)
	TitleForIdentifier(id string) (string, bool)
}

// Purchases is the part of purchase.Coordinator the storefront uses.
type Purchases interface {
	CanMakePayments() bool
	Buy(ctx context.Context, product storekit.Product) error
	Restore(ctx context.Context) error
	Snapshot() purchase.State
	Find(transactionID string) (purchase.Record, bool)
}

// MessageLog keeps the latest notifications.
type MessageLog interface {
	Recent(n int) []notify.Event
}

// IdentifierLoader reads product identifiers from path.
type IdentifierLoader func(path string) ([]string, error)
