package presentation

import (
	"github.com/shestoi/iapdemo/internal/purchase"
)

const (
	SectionProductIdentifier     = "Product Identifier"
	SectionTransactionIdentifier = "Transaction Identifier"
	SectionTransactionDate       = "Transaction Date"
	SectionDownload              = "Download"
	SectionOriginalTransaction   = "Original Transaction"
)

// Detail is one labelled row of a Download or Original Transaction section.
type Detail struct {
	Label string
	Value string
}

// TransactionDetails lists what is known about a completed transaction.
// Download appears for hosted content (first download only), Original Transaction for restorations.
// The Transaction Date of a restoration is the restore's own date.
func TransactionDetails(r purchase.Record, style DateStyle) []Section {
	date := r.Date
	if r.Restored && !r.RestoreDate.IsZero() {
		date = r.RestoreDate
	}

	sections := []Section{
		{Name: SectionProductIdentifier, Elements: []any{r.ProductID}},
		{Name: SectionTransactionIdentifier, Elements: []any{r.TransactionID}},
		{Name: SectionTransactionDate, Elements: []any{FormatDate(date, style)}},
	}

	if len(r.Downloads) > 0 {
		d := r.Downloads[0]
		sections = append(sections, Section{Name: SectionDownload, Elements: []any{
			Detail{Label: "Identifier", Value: d.ContentIdentifier},
			Detail{Label: "Version", Value: d.ContentVersion},
			Detail{Label: "Length", Value: FormatContentSize(d.ContentLength)},
		}})
	}

	if r.Restored && r.OriginalTransactionID != "" {
		sections = append(sections, Section{Name: SectionOriginalTransaction, Elements: []any{
			Detail{Label: "Transaction ID", Value: r.OriginalTransactionID},
			Detail{Label: "Transaction Date", Value: FormatDate(r.OriginalDate, style)},
		}})
	}
	return sections
}
