package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

// Line es una entrada de carrito lista para cotizar.
type Line struct {
	ItemID    string           `json:"item_id"`
	Name      string           `json:"name"`
	Category  catalog.Category `json:"category"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Quantity  int              `json:"quantity"`
}

// Discounts desglosa los cuatro componentes de descuento.
type Discounts struct {
	Bulk      decimal.Decimal `json:"bulk"`
	Category  decimal.Decimal `json:"category"`
	TimeBased decimal.Decimal `json:"time_based"`
	Coupon    decimal.Decimal `json:"coupon"`
}

// Sum devuelve el descuento total.
func (discounts Discounts) Sum() decimal.Decimal {
	return discounts.Bulk.Add(discounts.Category).Add(discounts.TimeBased).Add(discounts.Coupon)
}

// CouponStatus informa qué pasó con el cupón activo en esta cotización.
// Un cupón puede seguir aplicado y no aportar descuento (Applicable=false).
type CouponStatus struct {
	Code       string `json:"code"`
	Applicable bool   `json:"applicable"`
	Reason     string `json:"reason,omitempty"`
}

// Totals es el resultado de ComputeTotals.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discounts      Discounts       `json:"discounts"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"item_count"`
	AppliedReasons []string        `json:"applied_reasons"`
	Coupon         *CouponStatus   `json:"coupon,omitempty"`
}

// Engine calcula totales y valida cupones sobre una tabla de reglas.
// Es inmutable y no lee el reloj: el llamador siempre pasa "now".
type Engine struct {
	rules    Rules
	location *time.Location
}

// NewEngine crea un engine. location define la hora local usada por la
// franja horaria y el fin de semana; nil equivale a UTC.
func NewEngine(rules Rules, location *time.Location) *Engine {
	if location == nil {
		location = time.UTC
	}
	return &Engine{rules: rules, location: location}
}

// Lookup busca un cupón por código ya normalizado o no.
func (engine *Engine) Lookup(code string) (Coupon, bool) {
	coupon, ok := engine.rules.Coupons[NormalizeCode(code)]
	return coupon, ok
}

// ComputeTotals calcula subtotal, descuentos y total de un carrito.
func (engine *Engine) ComputeTotals(lines []Line, coupon *Coupon, now time.Time) Totals {
	now = now.In(engine.location)

	subtotal := Subtotal(lines)
	quantity := TotalQuantity(lines)

	var (
		discounts Discounts
		reasons   = []string{}
	)

	if tier, ok := engine.bulkTier(quantity); ok {
		discounts.Bulk = roundCents(subtotal.Mul(tier.Rate))
		reasons = append(reasons, fmt.Sprintf("Bulk discount (%d+ items): -$%s", tier.MinQuantity, discounts.Bulk.StringFixed(2)))
	}

	categoryDiscount := decimal.Zero
	for _, line := range lines {
		rate, ok := engine.rules.CategoryRates[line.Category]
		if !ok {
			continue
		}
		categoryDiscount = categoryDiscount.Add(lineAmount(line).Mul(rate))
	}
	discounts.Category = roundCents(categoryDiscount)
	if discounts.Category.IsPositive() {
		reasons = append(reasons, fmt.Sprintf("Category discount: -$%s", discounts.Category.StringFixed(2)))
	}

	window := engine.rules.TimeWindow
	if window.Rate.IsPositive() && window.Contains(now.Hour()) {
		discounts.TimeBased = roundCents(subtotal.Mul(window.Rate))
		reasons = append(reasons, fmt.Sprintf("%s discount (%02d:00-%02d:00): -$%s",
			windowLabel(window), window.StartHour, window.EndHour, discounts.TimeBased.StringFixed(2)))
	}

	var status *CouponStatus
	if coupon != nil {
		status = &CouponStatus{Code: coupon.Code, Applicable: true}
		if reason, ok := engine.eligible(*coupon, quantity, now); !ok {
			status.Applicable = false
			status.Reason = reason
		} else {
			discounts.Coupon = roundCents(subtotal.Mul(coupon.Rate))
			reasons = append(reasons, fmt.Sprintf("Coupon (%s): -$%s", coupon.Code, discounts.Coupon.StringFixed(2)))
		}
	}

	totalDiscount := discounts.Sum()
	total := subtotal.Sub(totalDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:       subtotal,
		Discounts:      discounts,
		TotalDiscount:  totalDiscount,
		Total:          total,
		ItemCount:      quantity,
		AppliedReasons: reasons,
		Coupon:         status,
	}
}

// bulkTier devuelve el tier más alto alcanzado; los tiers son excluyentes.
func (engine *Engine) bulkTier(quantity int) (BulkTier, bool) {
	var (
		best  BulkTier
		found bool
	)
	for _, tier := range engine.rules.BulkTiers {
		if quantity >= tier.MinQuantity && (!found || tier.MinQuantity > best.MinQuantity) {
			best = tier
			found = true
		}
	}
	return best, found
}

// eligible evalúa todos los predicados del cupón; devuelve el mensaje del
// primero que falla.
func (engine *Engine) eligible(coupon Coupon, quantity int, now time.Time) (string, bool) {
	for _, predicate := range coupon.Eligibility {
		switch predicate.Kind {
		case EligibilityWeekendOnly:
			if !IsWeekend(now) {
				return fmt.Sprintf("%s coupon is only valid on weekends", coupon.Code), false
			}
		case EligibilityMinQuantity:
			if quantity < predicate.MinQuantity {
				return fmt.Sprintf("%s requires %d+ items in cart", coupon.Code, predicate.MinQuantity), false
			}
		}
	}
	return "", true
}

// Subtotal suma precio × cantidad.
func Subtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(lineAmount(line))
	}
	return subtotal
}

// TotalQuantity suma las cantidades de todas las líneas.
func TotalQuantity(lines []Line) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

// IsWeekend es true sábado y domingo.
func IsWeekend(now time.Time) bool {
	day := now.Weekday()
	return day == time.Saturday || day == time.Sunday
}

func lineAmount(line Line) decimal.Decimal {
	return line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

func roundCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

func windowLabel(window TimeWindow) string {
	if window.Label == "" {
		return "Time-based"
	}
	return window.Label
}
