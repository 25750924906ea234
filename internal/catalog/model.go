package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category es una de las categorías fijas del inventario.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryGroceries   Category = "Groceries"
	CategoryBooks       Category = "Books"
	CategoryHomeKitchen Category = "Home & Kitchen"
)

// CategoryAll es el valor de filtro que desactiva el filtro por categoría.
const CategoryAll = "all"

const lowStockThreshold = 10

// Categories devuelve el set fijo en el orden en que se muestra.
func Categories() []Category {
	return []Category{
		CategoryElectronics,
		CategoryClothing,
		CategoryGroceries,
		CategoryBooks,
		CategoryHomeKitchen,
	}
}

// ParseCategory valida que el valor pertenezca al set fijo.
func ParseCategory(value string) (Category, bool) {
	for _, category := range Categories() {
		if string(category) == value {
			return category, true
		}
	}
	return "", false
}

// Item representa un producto del inventario.
// Price es decimal para no arrastrar errores de float en montos.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  Category        `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StockStatus clasifica el stock para la vista: "out", "low" u "ok".
func StockStatus(stock int) string {
	switch {
	case stock <= 0:
		return "out"
	case stock < lowStockThreshold:
		return "low"
	default:
		return "ok"
	}
}
