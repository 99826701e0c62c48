package presentation

import (
	"time"

	"github.com/docker/go-units"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shestoi/iapdemo/internal/purchase"
	"github.com/shestoi/iapdemo/internal/storekit"
)

// DateStyle picks the layout used by FormatDate.
type DateStyle int

const (
	DateShort DateStyle = iota
	DateLong
)

const (
	shortDateLayout = "1/2/06, 3:04 PM"
	longDateLayout  = "January 2, 2006 at 3:04:05 PM MST"
)

// FormatPrice renders the product price in its currency for the product's locale.
// Unknown locales fall back to en-US; unknown currencies print the bare amount and code.
func FormatPrice(p storekit.Product) string {
	tag, err := language.Parse(p.Locale)
	if err != nil {
		tag = language.AmericanEnglish
	}

	unit, err := currency.ParseISO(p.CurrencyCode)
	if err != nil {
		if p.CurrencyCode == "" {
			return p.Price.StringFixed(2)
		}
		return p.Price.StringFixed(2) + " " + p.CurrencyCode
	}

	amount, _ := p.Price.Float64()
	return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(amount)))
}

// FormatContentSize renders a download length, e.g. "2.048kB".
func FormatContentSize(bytes int64) string {
	return units.HumanSize(float64(bytes))
}

func FormatDate(t time.Time, style DateStyle) string {
	if t.IsZero() {
		return ""
	}
	if style == DateLong {
		return t.Format(longDateLayout)
	}
	return t.Format(shortDateLayout)
}

// TitleLookup resolves a product identifier to its display title.
type TitleLookup func(productID string) (string, bool)

// PurchaseTitle is the product title of r, or its product identifier when the product is unknown.
func PurchaseTitle(r purchase.Record, lookup TitleLookup) string {
	if lookup != nil {
		if title, ok := lookup(r.ProductID); ok && title != "" {
			return title
		}
	}
	return r.ProductID
}
