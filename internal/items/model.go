package items

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

// CreateItemInput representa el payload para crear un item.
// Nota: Price es string para validar el formato antes de pasarlo a decimal.
type CreateItemInput struct {
	Name     string `json:"name" validate:"required,min=3,max=50"`
	Category string `json:"category" validate:"required,category"`
	Price    string `json:"price" validate:"required,price"`
	Stock    int    `json:"stock" validate:"gte=0"`
}

// UpdateItemInput representa un PATCH: nil significa "no tocar".
type UpdateItemInput struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=3,max=50"`
	Category *string `json:"category,omitempty" validate:"omitempty,category"`
	Price    *string `json:"price,omitempty" validate:"omitempty,price"`
	Stock    *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

func (input UpdateItemInput) empty() bool {
	return input.Name == nil && input.Category == nil && input.Price == nil && input.Stock == nil
}

// newItem es lo que el repositorio inserta, ya validado y tipado.
type newItem struct {
	Name     string
	Category catalog.Category
	Price    decimal.Decimal
	Stock    int
}

// itemChanges es el update parcial ya validado.
type itemChanges struct {
	Name     *string
	Category *catalog.Category
	Price    *decimal.Decimal
	Stock    *int
}

// AuditEntry registra un cambio de precio o stock.
type AuditEntry struct {
	ItemID      string    `json:"item_id"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// ImportResult resume un import CSV.
type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}
