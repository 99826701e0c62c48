// Package presentation turns catalog and purchase state into named display sections
// and formats the values shown in them.
package presentation

import (
	"github.com/shestoi/iapdemo/internal/purchase"
	"github.com/shestoi/iapdemo/internal/storekit"
)

const (
	SectionAvailableProducts  = "Available Products"
	SectionInvalidIdentifiers = "Invalid Identifiers"
	SectionPurchased          = "Purchased"
	SectionRestored           = "Restored"
)

// Kind selects which pair of sections to build.
type Kind int

const (
	KindProducts Kind = iota
	KindPurchases
)

// Section is a named, ordered list of elements. Elements hold storekit.Product,
// string identifiers, purchase.Record or Detail values depending on the section.
type Section struct {
	Name     string
	Elements []any
}

// State is the input of SectionsFor.
type State struct {
	Products           []storekit.Product
	InvalidIdentifiers []string
	Purchased          []purchase.Record
	Restored           []purchase.Record
}

// SectionsFor builds both sections of kind. Empty sections are kept so that
// callers always see the same layout.
func SectionsFor(kind Kind, s State) []Section {
	switch kind {
	case KindProducts:
		return []Section{
			{Name: SectionAvailableProducts, Elements: toAny(s.Products)},
			{Name: SectionInvalidIdentifiers, Elements: toAny(s.InvalidIdentifiers)},
		}
	case KindPurchases:
		return []Section{
			{Name: SectionPurchased, Elements: toAny(s.Purchased)},
			{Name: SectionRestored, Elements: toAny(s.Restored)},
		}
	default:
		return nil
	}
}

// Find returns the first section called name.
func Find(sections []Section, name string) (Section, bool) {
	for _, s := range sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

func toAny[T any](items []T) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
