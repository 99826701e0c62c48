package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shestoi/iapdemo/internal/purchase"
	"github.com/shestoi/iapdemo/internal/storekit"
)

func TestSectionsFor_Products(t *testing.T) {
	a := storekit.Product{ID: "a"}
	b := storekit.Product{ID: "b"}

	sections := SectionsFor(KindProducts, State{
		Products:           []storekit.Product{a, b},
		InvalidIdentifiers: []string{"c"},
	})

	require.Len(t, sections, 2)
	assert.Equal(t, Section{Name: "Available Products", Elements: []any{a, b}}, sections[0])
	assert.Equal(t, Section{Name: "Invalid Identifiers", Elements: []any{"c"}}, sections[1])
}

func TestSectionsFor_EmptySectionsAreKept(t *testing.T) {
	for _, kind := range []Kind{KindProducts, KindPurchases} {
		sections := SectionsFor(kind, State{})
		require.Len(t, sections, 2)
		for _, s := range sections {
			assert.NotEmpty(t, s.Name)
			assert.NotNil(t, s.Elements)
			assert.Empty(t, s.Elements)
		}
	}
}

func TestSectionsFor_Purchases(t *testing.T) {
	p := purchase.Record{TransactionID: "t1", ProductID: "a"}
	r := purchase.Record{TransactionID: "t2", ProductID: "b", Restored: true}

	sections := SectionsFor(KindPurchases, State{Purchased: []purchase.Record{p}, Restored: []purchase.Record{r}})

	require.Len(t, sections, 2)
	assert.Equal(t, SectionPurchased, sections[0].Name)
	assert.Equal(t, []any{p}, sections[0].Elements)
	assert.Equal(t, SectionRestored, sections[1].Name)
	assert.Equal(t, []any{r}, sections[1].Elements)

	assert.Nil(t, SectionsFor(Kind(9), State{}))
}

func TestFind(t *testing.T) {
	sections := []Section{
		{Name: "Purchased", Elements: []any{"first"}},
		{Name: "Restored"},
		{Name: "Purchased", Elements: []any{"second"}},
	}

	s, ok := Find(sections, "Purchased")
	require.True(t, ok)
	assert.Equal(t, []any{"first"}, s.Elements)

	_, ok = Find(sections, "Download")
	assert.False(t, ok)
}
