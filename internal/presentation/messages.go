package presentation

import (
	"fmt"

	"github.com/shestoi/iapdemo/internal/catalog"
	"github.com/shestoi/iapdemo/internal/notify"
	"github.com/shestoi/iapdemo/internal/purchase"
)

const (
	MessageCannotMakePayments    = "In-app purchases are not allowed on this account."
	MessageDeferred              = "Allow the user to continue using your app while the purchase awaits approval."
	MessageNoRestorablePurchases = "There are no restorable purchases."
	MessageUseRestore            = "Only previously bought non-consumable products and auto-renewable subscriptions can be restored."
	MessageRestoreInitiated      = "Restoring purchases."
	MessageResourceNotFound      = "Could not find resource file: %s."
	MessageResourceEmpty         = "%s is empty. Add the identifiers of the products you want to sell."
	MessageProductsFound         = "All product identifiers are valid."
	MessageIdentifiersNotFound   = "No valid products were returned. Check the product identifiers."
	MessageMixedResponse         = "Some product identifiers are invalid."
)

// Describe renders a notification as a sentence for a message log.
// Product identifiers are replaced with titles where lookup knows them.
func Describe(e notify.Event, lookup TitleLookup) string {
	title := e.ProductID
	if lookup != nil && e.ProductID != "" {
		if t, ok := lookup(e.ProductID); ok && t != "" {
			title = t
		}
	}

	switch e.Kind {
	case notify.KindProductRequestCompleted:
		switch e.Status {
		case catalog.RequestFound.String():
			return MessageProductsFound
		case catalog.RequestIdentifiersNotFound.String():
			return MessageIdentifiersNotFound
		case catalog.RequestMixedResponse.String():
			return MessageMixedResponse
		}
		return fmt.Sprintf("Product request failed: %s", e.Message)
	case notify.KindPurchaseUpdated:
		switch e.Status {
		case purchase.StatusSucceeded.String():
			return fmt.Sprintf("Purchase of %s succeeded.", title)
		case purchase.StatusRestoreSucceeded.String():
			return fmt.Sprintf("Restored %s.", title)
		case purchase.StatusNoRestorablePurchases.String():
			return MessageNoRestorablePurchases + "\n" + MessageUseRestore
		case purchase.StatusRestoreFailed.String():
			return fmt.Sprintf("Restore failed: %s", e.Message)
		case purchase.StatusFailed.String():
			if e.Message == "" {
				return fmt.Sprintf("Purchase of %s was cancelled.", title)
			}
			return fmt.Sprintf("Purchase of %s failed: %s", title, e.Message)
		}
	case notify.KindPurchaseDeferred:
		return fmt.Sprintf("%s: %s", title, MessageDeferred)
	case notify.KindRestoreInitiated:
		return MessageRestoreInitiated
	case notify.KindResourceStatus:
		return e.Message
	}
	return e.Message
}
