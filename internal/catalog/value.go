package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryValue es el valor de stock acumulado de una categoría.
type CategoryValue struct {
	Category Category        `json:"category"`
	Value    decimal.Decimal `json:"value"`
}

// Valuation resume el valor del inventario (precio × stock).
type Valuation struct {
	Total      decimal.Decimal `json:"total"`
	ByCategory []CategoryValue `json:"by_category"`
}

// Valuate calcula el valor total y por categoría.
// ByCategory sale ordenado por nombre de categoría.
func Valuate(items []Item) Valuation {
	total := decimal.Zero
	byCategory := map[Category]decimal.Decimal{}

	for _, item := range items {
		value := item.Price.Mul(decimal.NewFromInt(int64(item.Stock)))
		total = total.Add(value)
		byCategory[item.Category] = byCategory[item.Category].Add(value)
	}

	breakdown := make([]CategoryValue, 0, len(byCategory))
	for category, value := range byCategory {
		breakdown = append(breakdown, CategoryValue{Category: category, Value: value})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Category < breakdown[j].Category
	})

	return Valuation{Total: total, ByCategory: breakdown}
}
