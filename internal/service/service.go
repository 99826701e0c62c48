package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/catalog"
	"github.com/shestoi/iapdemo/internal/identifiers"
	"github.com/shestoi/iapdemo/internal/notify"
	"github.com/shestoi/iapdemo/internal/presentation"
	"github.com/shestoi/iapdemo/internal/purchase"
	"github.com/shestoi/iapdemo/platform/observability"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// ProductsView is what the products screen shows.
type ProductsView struct {
	Status   catalog.RequestStatus
	Message  string
	Sections []presentation.Section
}

// PurchasesView is what the purchases screen shows.
type PurchasesView struct {
	Status           purchase.Status
	Message          string
	RestoreRequested bool
	Sections         []presentation.Section
}

// TransactionView is the detail screen of one purchase.
type TransactionView struct {
	Record   purchase.Record
	Title    string
	Sections []presentation.Section
}

// Message is a notification with its display text.
type Message struct {
	Event notify.Event
	Text  string
}

// Storefront ties the identifier file, the catalog and the purchase coordinator
// together and renders their state for the API.
type Storefront struct {
	logger          *zap.Logger
	catalog         Catalog
	purchases       Purchases
	messages        MessageLog
	publisher       notify.Publisher
	loadIdentifiers IdentifierLoader
	identifiersPath string
}

func NewStorefront(
	logger *zap.Logger,
	catalog Catalog,
	purchases Purchases,
	messages MessageLog,
	publisher notify.Publisher,
	loadIdentifiers IdentifierLoader,
	identifiersPath string,
) *Storefront {
	return &Storefront{
		logger:          logger,
		catalog:         catalog,
		purchases:       purchases,
		messages:        messages,
		publisher:       publisher,
		loadIdentifiers: loadIdentifiers,
		identifiersPath: identifiersPath,
	}
}

// Refresh rereads the identifier file and queries the catalog.
// Payments being disabled returns purchase.ErrPaymentsNotAllowed. A missing or empty
// identifier file is not an error: it is announced and the query is skipped.
func (s *Storefront) Refresh(ctx context.Context) error {
	log := observability.L(ctx, s.logger)

	if !s.purchases.CanMakePayments() {
		log.Warn("payments are not allowed, skipping product request")
		s.publishResourceStatus(ctx, presentation.MessageCannotMakePayments)
		return purchase.ErrPaymentsNotAllowed
	}

	ids, err := s.loadIdentifiers(s.identifiersPath)
	if err != nil {
		log.Warn("failed to load product identifiers",
			zap.String("path", s.identifiersPath),
			zap.Error(err))
		s.publishResourceStatus(ctx, s.resourceMessage(err))
		ids = nil
	}

	if err := s.catalog.Query(ctx, ids); err != nil {
		if errors.Is(err, catalog.ErrNoIdentifiers) {
			log.Info("no product identifiers, product request skipped")
			return nil
		}
		return fmt.Errorf("query catalog: %w", err)
	}
	return nil
}

func (s *Storefront) resourceMessage(err error) string {
	name := filepath.Base(s.identifiersPath)
	switch {
	case errors.Is(err, identifiers.ErrResourceNotFound):
		return fmt.Sprintf(presentation.MessageResourceNotFound, name)
	case errors.Is(err, identifiers.ErrEmptyResource):
		return fmt.Sprintf(presentation.MessageResourceEmpty, name)
	default:
		return err.Error()
	}
}

func (s *Storefront) publishResourceStatus(ctx context.Context, message string) {
	s.publisher.Publish(ctx, notify.Event{
		Kind:    notify.KindResourceStatus,
		Message: message,
	})
}

func (s *Storefront) Products() ProductsView {
	state := s.catalog.Snapshot()
	return ProductsView{
		Status:  state.Status,
		Message: state.Message,
		Sections: presentation.SectionsFor(presentation.KindProducts, presentation.State{
			Products:           state.Products,
			InvalidIdentifiers: state.InvalidIdentifiers,
		}),
	}
}

func (s *Storefront) Purchases() PurchasesView {
	state := s.purchases.Snapshot()
	return PurchasesView{
		Status:           state.Status,
		Message:          state.Message,
		RestoreRequested: state.RestoreRequested,
		Sections: presentation.SectionsFor(presentation.KindPurchases, presentation.State{
			Purchased: state.Purchased,
			Restored:  state.Restored,
		}),
	}
}

func (s *Storefront) Transaction(transactionID string) (TransactionView, error) {
	record, ok := s.purchases.Find(transactionID)
	if !ok {
		return TransactionView{}, ErrTransactionNotFound
	}
	return TransactionView{
		Record:   record,
		Title:    presentation.PurchaseTitle(record, s.catalog.TitleForIdentifier),
		Sections: presentation.TransactionDetails(record, presentation.DateLong),
	}, nil
}

// Title returns the display title for a product identifier, falling back to the identifier.
func (s *Storefront) Title(productID string) string {
	if title, ok := s.catalog.TitleForIdentifier(productID); ok && title != "" {
		return title
	}
	return productID
}

// Buy purchases a product known to the catalog.
func (s *Storefront) Buy(ctx context.Context, productID string) error {
	product, ok := s.catalog.ProductByID(productID)
	if !ok {
		return ErrProductNotFound
	}
	return s.purchases.Buy(ctx, product)
}

func (s *Storefront) Restore(ctx context.Context) error {
	return s.purchases.Restore(ctx)
}

// Messages returns up to limit recent notifications, oldest first.
func (s *Storefront) Messages(limit int) []Message {
	events := s.messages.Recent(limit)
	out := make([]Message, 0, len(events))
	for _, e := range events {
		out = append(out, Message{Event: e, Text: presentation.Describe(e, s.catalog.TitleForIdentifier)})
	}
	return out
}
