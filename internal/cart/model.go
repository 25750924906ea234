package cart

import (
	"time"

	"github.com/Lelo88/inventory-pricing-api/internal/pricing"
)

// Line es un item del carrito. El precio no se guarda: se resuelve al cotizar.
type Line struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Cart es el estado persistido de un carrito.
type Cart struct {
	ID         string    `json:"id"`
	Lines      []Line    `json:"lines"`
	CouponCode string    `json:"coupon_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (cart *Cart) line(itemID string) (int, bool) {
	for index, line := range cart.Lines {
		if line.ItemID == itemID {
			return index, true
		}
	}
	return -1, false
}

// Quote es una cotización: líneas con precio actual y totales.
// Unavailable lista ids que ya no existen en el inventario.
type Quote struct {
	CartID      string              `json:"cart_id,omitempty"`
	Lines       []pricing.Line      `json:"lines"`
	Totals      pricing.Totals      `json:"totals"`
	Unavailable []string            `json:"unavailable,omitempty"`
	Coupon      *pricing.Validation `json:"coupon_validation,omitempty"`
}

// Receipt es el resultado de un checkout.
type Receipt struct {
	CartID       string         `json:"cart_id"`
	Lines        []pricing.Line `json:"lines"`
	Totals       pricing.Totals `json:"totals"`
	CheckedOutAt time.Time      `json:"checked_out_at"`
}

// LineInput es una línea enviada por el cliente (quotes sin estado y altas).
type LineInput struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1,max=10000"`
}
