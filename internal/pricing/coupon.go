package pricing

import (
	"regexp"
	"strings"
	"time"
)

// RejectReason clasifica por qué un cupón no se aceptó.
type RejectReason string

const (
	RejectEmpty         RejectReason = "empty_code"
	RejectInvalidFormat RejectReason = "invalid_format"
	RejectUnknown       RejectReason = "unknown_coupon"
	RejectNotEligible   RejectReason = "not_eligible"
)

var couponFormat = regexp.MustCompile(`^[A-Z0-9]{4,20}$`)

// Validation es el veredicto de ValidateCoupon. Si OK es false, Coupon
// queda vacío y Reason/Message explican el rechazo.
type Validation struct {
	OK      bool         `json:"ok"`
	Coupon  Coupon       `json:"coupon"`
	Reason  RejectReason `json:"reason,omitempty"`
	Message string       `json:"message,omitempty"`
}

// NormalizeCode recorta y pasa a mayúsculas.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCoupon valida formato, existencia y elegibilidad de un código.
// Nunca devuelve error: los rechazos son valores.
func (engine *Engine) ValidateCoupon(code string, lines []Line, now time.Time) Validation {
	code = NormalizeCode(code)

	if code == "" {
		return Validation{Reason: RejectEmpty, Message: "please enter a coupon code"}
	}
	if !couponFormat.MatchString(code) {
		return Validation{Reason: RejectInvalidFormat, Message: "invalid format"}
	}

	coupon, ok := engine.rules.Coupons[code]
	if !ok {
		return Validation{Reason: RejectUnknown, Message: "invalid coupon"}
	}

	if message, ok := engine.eligible(coupon, TotalQuantity(lines), now.In(engine.location)); !ok {
		return Validation{Reason: RejectNotEligible, Message: message}
	}

	return Validation{OK: true, Coupon: coupon}
}
