package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Lelo88/inventory-pricing-api/internal/httpx"
	"github.com/Lelo88/inventory-pricing-api/internal/logger"
	"github.com/Lelo88/inventory-pricing-api/internal/pricing"
)

// ServiceAPI define lo que el handler necesita del service.
type ServiceAPI interface {
	Create(ctx context.Context) (Cart, error)
	Get(ctx context.Context, cartID string) (Cart, error)
	AddItem(ctx context.Context, cartID, itemID string, quantity int) (Cart, error)
	SetQuantity(ctx context.Context, cartID, itemID string, quantity int) (Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID string) (Cart, error)
	ApplyCoupon(ctx context.Context, cartID, code string) (Cart, pricing.Validation, error)
	ClearCoupon(ctx context.Context, cartID string) (Cart, error)
	Quote(ctx context.Context, cartID string) (Quote, error)
	QuoteLines(ctx context.Context, inputs []LineInput, code string) (Quote, error)
	ValidateCoupon(ctx context.Context, code string, inputs []LineInput) (pricing.Validation, error)
	Checkout(ctx context.Context, cartID string) (Receipt, error)
}

// Handler HTTP para carritos, quotes y cupones.
type Handler struct {
	service ServiceAPI
	logger  *logger.Logger
}

// NewHandler crea el handler. logg puede ser nil.
func NewHandler(service ServiceAPI, logg *logger.Logger) *Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Handler{service: service, logger: logg}
}

type quantityInput struct {
	Quantity int `json:"quantity" validate:"min=1,max=10000"`
}

type couponInput struct {
	Code string `json:"code"`
}

type quoteInput struct {
	Lines      []LineInput `json:"lines" validate:"required,min=1,dive"`
	CouponCode string      `json:"coupon_code"`
}

type validateCouponInput struct {
	Code  string      `json:"code"`
	Lines []LineInput `json:"lines" validate:"dive"`
}

// Create maneja POST /carts.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	cart, err := handler.service.Create(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusCreated, cart)
}

// Get maneja GET /carts/{id}.
func (handler *Handler) Get(writer http.ResponseWriter, request *http.Request) {
	cartID, ok := parseCartID(writer, request)
	if !ok {
		return
	}

	cart, err := handler.service.Get(request.Context(), cartID)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, cart)
}

// AddItem maneja POST /carts/{id}/items.
func (handler *Handler) AddItem(writer http.ResponseWriter, request *http.Request) {
	cartID, ok := parseCartID(writer, request)
	if !ok {
		return
	}

	var input LineInput
	if err := httpx.DecodeJSON(request, &input); err != nil {
		httpx.FailDecode(writer, request, err)
		return
	}

	cart, err := handler.service.AddItem(request.Context(), cartID, input.ItemID, input.Quantity)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, cart)
}

// SetQuantity maneja PATCH /carts/{id}/items/{itemID}.
func (handler *Handler) SetQuantity(writer http.ResponseWriter, request *http.Request) {
	cartID, ok := parseCartID(writer, request)
	if !ok {
		return
	}

	var input quantityInput
	if err := httpx.DecodeJSON(request, &input); err != nil {
		httpx.FailDecode(writer, request, err)
		return
	}

	cart, err := handler.service.SetQuantity(request.Context(), cartID, chi.URLParam(request, "itemID"), input.Quantity)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, cart)
}

// RemoveItem maneja DELETE /carts/{id}/items/{itemID}.
func (handler *Handler) RemoveItem(writer http.ResponseWriter, request *http.Request) {
	cartID, ok := parseCartID(writer, request)
	if !ok {
		return
	}

	cart, err := handler.service.RemoveItem(request.Context(), cartID, chi.URLParam(request, "itemID"))
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, cart)
}

// ApplyCoupon maneja PUT /carts/{id}/coupon.
// Un rechazo responde 422 con el motivo como code; el cupón previo queda limpio.
func (handler *Handler) ApplyCoupon(writer http.ResponseWriter, request *http.Request) {
	cartID, ok := parseCartID(writer, request)
	if !ok {
		return
	}

	var input couponInput
	if err := httpx.DecodeJSON(request, &input); err != nil {
		httpx.FailDecode(writer, request, err)
		return
	}

	cart, validation, err := handler.service.ApplyCoupon(request.Context(), cartID, input.Code)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	if !validation.OK {
		httpx.Fail(writer, request, http.StatusUnprocessableEntity, string(validation.Reason), validation.Message)
		return
	}

	httpx.OK(writer, request, http.StatusOK, map[string]any{
		"cart":   cart,
		"coupon": validation.Coupon,
	})
}

// ClearCoupon maneja DELETE /carts/{id}/coupon.
func (handler *Handler) ClearCoupon(writer http.ResponseWriter, request *http.Request) {
	cartID, ok := parseCartID(writer, request)
	if !ok {
		return
	}

	cart, err := handler.service.ClearCoupon(request.Context(), cartID)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, cart)
}

// Quote maneja GET /carts/{id}/quote.
func (handler *Handler) Quote(writer http.ResponseWriter, request *http.Request) {
	cartID, ok := parseCartID(writer, request)
	if !ok {
		return
	}

	quote, err := handler.service.Quote(request.Context(), cartID)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, quote)
}

// Checkout maneja POST /carts/{id}/checkout.
func (handler *Handler) Checkout(writer http.ResponseWriter, request *http.Request) {
	cartID, ok := parseCartID(writer, request)
	if !ok {
		return
	}

	receipt, err := handler.service.Checkout(request.Context(), cartID)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, receipt)
}

// QuoteLines maneja POST /quotes (sin carrito persistido).
func (handler *Handler) QuoteLines(writer http.ResponseWriter, request *http.Request) {
	var input quoteInput
	if err := httpx.DecodeJSON(request, &input); err != nil {
		httpx.FailDecode(writer, request, err)
		return
	}

	quote, err := handler.service.QuoteLines(request.Context(), input.Lines, input.CouponCode)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, quote)
}

// ValidateCoupon maneja POST /coupons/validate. Siempre 200: el veredicto va en data.
func (handler *Handler) ValidateCoupon(writer http.ResponseWriter, request *http.Request) {
	var input validateCouponInput
	if err := httpx.DecodeJSON(request, &input); err != nil {
		httpx.FailDecode(writer, request, err)
		return
	}

	validation, err := handler.service.ValidateCoupon(request.Context(), input.Code, input.Lines)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.OK(writer, request, http.StatusOK, validation)
}

func parseCartID(writer http.ResponseWriter, request *http.Request) (string, bool) {
	id := chi.URLParam(request, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return "", false
	}
	return id, true
}

func (handler *Handler) fail(writer http.ResponseWriter, request *http.Request, err error) {
	switch {
	case errors.Is(err, ErrorNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, ErrorItemNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "item_not_found", "item not found")
	case errors.Is(err, ErrorLineNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "line_not_found", "item not in cart")
	case errors.Is(err, ErrorInvalidQuantity):
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 10000")
	case errors.Is(err, ErrorInsufficientStock):
		httpx.Fail(writer, request, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, ErrorEmptyCart):
		httpx.Fail(writer, request, http.StatusConflict, "empty_cart", "cart is empty")
	default:
		handler.logger.Error(request.Context(), "cart request failed", err)
		httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
