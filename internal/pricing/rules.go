package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

// BulkTier aplica Rate sobre el subtotal cuando la cantidad total
// alcanza MinQuantity. Solo aplica el tier más alto alcanzado.
type BulkTier struct {
	MinQuantity int
	Rate        decimal.Decimal
}

// TimeWindow es una franja diaria [StartHour, EndHour) en hora local.
type TimeWindow struct {
	StartHour int
	EndHour   int
	Rate      decimal.Decimal
	Label     string
}

// Contains indica si la hora cae dentro de la franja.
func (window TimeWindow) Contains(hour int) bool {
	return hour >= window.StartHour && hour < window.EndHour
}

// EligibilityKind enumera los predicados soportados para cupones.
type EligibilityKind string

const (
	EligibilityWeekendOnly EligibilityKind = "weekend_only"
	EligibilityMinQuantity EligibilityKind = "min_quantity"
)

// Eligibility es un predicado tipado; MinQuantity solo aplica a min_quantity.
type Eligibility struct {
	Kind        EligibilityKind
	MinQuantity int
}

// Coupon describe un código canjeable.
type Coupon struct {
	Code        string          `json:"code"`
	Rate        decimal.Decimal `json:"rate"`
	Description string          `json:"description"`
	Eligibility []Eligibility   `json:"-"`
}

// Rules es la tabla completa de reglas de descuento.
type Rules struct {
	BulkTiers     []BulkTier
	CategoryRates map[catalog.Category]decimal.Decimal
	TimeWindow    TimeWindow
	Coupons       map[string]Coupon
}

// DefaultRules devuelve la tabla de referencia de la tienda.
func DefaultRules() Rules {
	return Rules{
		BulkTiers: []BulkTier{
			{MinQuantity: 10, Rate: decimal.RequireFromString("0.10")},
			{MinQuantity: 5, Rate: decimal.RequireFromString("0.05")},
		},
		CategoryRates: map[catalog.Category]decimal.Decimal{
			catalog.CategoryElectronics: decimal.RequireFromString("0.08"),
			catalog.CategoryHomeKitchen: decimal.RequireFromString("0.12"),
		},
		TimeWindow: TimeWindow{
			StartHour: 18,
			EndHour:   20,
			Rate:      decimal.RequireFromString("0.05"),
			Label:     "Happy hour",
		},
		Coupons: map[string]Coupon{
			"SAVE20": {
				Code:        "SAVE20",
				Rate:        decimal.RequireFromString("0.20"),
				Description: "20% off entire purchase",
			},
			"BULK10": {
				Code:        "BULK10",
				Rate:        decimal.RequireFromString("0.10"),
				Description: "10% off on bulk purchases",
				Eligibility: []Eligibility{{Kind: EligibilityMinQuantity, MinQuantity: 5}},
			},
			"WEEKEND": {
				Code:        "WEEKEND",
				Rate:        decimal.RequireFromString("0.15"),
				Description: "15% off (weekends only)",
				Eligibility: []Eligibility{{Kind: EligibilityWeekendOnly}},
			},
			"NEWUSER": {
				Code:        "NEWUSER",
				Rate:        decimal.RequireFromString("0.05"),
				Description: "5% off first purchase",
			},
		},
	}
}
