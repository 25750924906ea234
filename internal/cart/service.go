package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
	"github.com/Lelo88/inventory-pricing-api/internal/items"
	"github.com/Lelo88/inventory-pricing-api/internal/logger"
	"github.com/Lelo88/inventory-pricing-api/internal/metrics"
	"github.com/Lelo88/inventory-pricing-api/internal/pricing"
)

// Errores de dominio del carrito.
var (
	ErrorNotFound          = errors.New("cart not found")
	ErrorItemNotFound      = errors.New("item not found")
	ErrorLineNotFound      = errors.New("item not in cart")
	ErrorInvalidQuantity   = errors.New("quantity must be between 1 and 10000")
	ErrorInsufficientStock = errors.New("insufficient stock")
	ErrorEmptyCart         = errors.New("cart is empty")
)

// MaxLineQuantity es el tope de unidades por línea, también al sumar repetidas.
const MaxLineQuantity = 10000

// ItemReader resuelve items del inventario (lo implementa items.Service).
type ItemReader interface {
	Get(ctx context.Context, id string) (catalog.Item, error)
}

// Service maneja carritos y cotizaciones.
type Service struct {
	store   Store
	items   ItemReader
	engine  *pricing.Engine
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
	newID   func() string
}

// Option configura el Service.
type Option func(*Service)

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(service *Service) {
		if now != nil {
			service.now = now
		}
	}
}

// WithMetrics registra cotizaciones y rechazos de cupón en el collector.
func WithMetrics(collector *metrics.Metrics) Option {
	return func(service *Service) { service.metrics = collector }
}

// WithLogger cambia el logger; nil deja el Nop.
func WithLogger(logg *logger.Logger) Option {
	return func(service *Service) {
		if logg != nil {
			service.logger = logg
		}
	}
}

// WithIDGenerator reemplaza uuid.NewString al crear carritos (tests).
func WithIDGenerator(newID func() string) Option {
	return func(service *Service) {
		if newID != nil {
			service.newID = newID
		}
	}
}

// NewService crea el service de carritos.
func NewService(store Store, itemReader ItemReader, engine *pricing.Engine, opts ...Option) *Service {
	service := &Service{
		store:  store,
		items:  itemReader,
		engine: engine,
		logger: logger.Nop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Create abre un carrito vacío.
func (service *Service) Create(ctx context.Context) (Cart, error) {
	now := service.now().UTC()
	cart := Cart{ID: service.newID(), Lines: []Line{}, CreatedAt: now, UpdatedAt: now}
	if err := service.store.Save(ctx, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// Get devuelve el carrito o ErrorNotFound.
func (service *Service) Get(ctx context.Context, cartID string) (Cart, error) {
	return service.store.Load(ctx, cartID)
}

// AddItem suma quantity unidades. La cantidad acumulada no puede superar el stock.
func (service *Service) AddItem(ctx context.Context, cartID, itemID string, quantity int) (Cart, error) {
	if !validQuantity(quantity) {
		return Cart{}, ErrorInvalidQuantity
	}

	cart, err := service.store.Load(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	item, err := service.item(ctx, itemID)
	if err != nil {
		return Cart{}, err
	}

	index, found := cart.line(itemID)
	current := 0
	if found {
		current = cart.Lines[index].Quantity
	}
	// Se compara sin sumar para no desbordar.
	if quantity > item.Stock-current {
		return Cart{}, fmt.Errorf("%w: only %d units of %q available", ErrorInsufficientStock, item.Stock, item.Name)
	}

	if found {
		cart.Lines[index].Quantity = current + quantity
	} else {
		cart.Lines = append(cart.Lines, Line{ItemID: itemID, Quantity: quantity})
	}
	return service.save(ctx, cart)
}

// SetQuantity reemplaza la cantidad de una línea existente (1..stock).
func (service *Service) SetQuantity(ctx context.Context, cartID, itemID string, quantity int) (Cart, error) {
	if !validQuantity(quantity) {
		return Cart{}, ErrorInvalidQuantity
	}

	cart, err := service.store.Load(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	index, found := cart.line(itemID)
	if !found {
		return Cart{}, ErrorLineNotFound
	}
	item, err := service.item(ctx, itemID)
	if err != nil {
		return Cart{}, err
	}
	if quantity > item.Stock {
		return Cart{}, fmt.Errorf("%w: only %d units of %q available", ErrorInsufficientStock, item.Stock, item.Name)
	}

	cart.Lines[index].Quantity = quantity
	return service.save(ctx, cart)
}

// RemoveItem saca una línea del carrito.
func (service *Service) RemoveItem(ctx context.Context, cartID, itemID string) (Cart, error) {
	cart, err := service.store.Load(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	index, found := cart.line(itemID)
	if !found {
		return Cart{}, ErrorLineNotFound
	}

	cart.Lines = append(cart.Lines[:index], cart.Lines[index+1:]...)
	return service.save(ctx, cart)
}

// ApplyCoupon valida el código contra el carrito actual.
// Si se rechaza, el cupón activo se limpia y el rechazo vuelve como valor.
func (service *Service) ApplyCoupon(ctx context.Context, cartID, code string) (Cart, pricing.Validation, error) {
	cart, err := service.store.Load(ctx, cartID)
	if err != nil {
		return Cart{}, pricing.Validation{}, err
	}
	lines, _, err := service.resolve(ctx, cart.Lines)
	if err != nil {
		return Cart{}, pricing.Validation{}, err
	}

	validation := service.engine.ValidateCoupon(code, lines, service.now())
	if validation.OK {
		cart.CouponCode = validation.Coupon.Code
	} else {
		cart.CouponCode = ""
		service.metrics.ObserveCouponRejection(string(validation.Reason))
		service.logger.Event(service.logger.WithField(ctx, "cart_id", cartID), zerolog.InfoLevel).
			Str("reason", string(validation.Reason)).
			Msg("coupon rejected")
	}

	cart, err = service.save(ctx, cart)
	if err != nil {
		return Cart{}, pricing.Validation{}, err
	}
	return cart, validation, nil
}

// ClearCoupon quita el cupón activo (idempotente).
func (service *Service) ClearCoupon(ctx context.Context, cartID string) (Cart, error) {
	cart, err := service.store.Load(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	cart.CouponCode = ""
	return service.save(ctx, cart)
}

// Quote cotiza el carrito con los precios actuales del inventario.
func (service *Service) Quote(ctx context.Context, cartID string) (Quote, error) {
	cart, err := service.store.Load(ctx, cartID)
	if err != nil {
		return Quote{}, err
	}
	lines, unavailable, err := service.resolve(ctx, cart.Lines)
	if err != nil {
		return Quote{}, err
	}

	quote := service.quote(lines, cart.CouponCode)
	quote.CartID = cart.ID
	quote.Unavailable = unavailable
	service.logger.Debug(service.logger.WithField(ctx, "cart_id", cart.ID), "quote computed")
	return quote, nil
}

// QuoteLines cotiza líneas sueltas sin carrito persistido.
// Un código inválido no falla: se informa en Quote.Coupon.
func (service *Service) QuoteLines(ctx context.Context, inputs []LineInput, code string) (Quote, error) {
	merged, err := mergeInputs(inputs)
	if err != nil {
		return Quote{}, err
	}
	lines, unavailable, err := service.resolve(ctx, merged)
	if err != nil {
		return Quote{}, err
	}

	var validation *pricing.Validation
	if pricing.NormalizeCode(code) != "" {
		result := service.engine.ValidateCoupon(code, lines, service.now())
		validation = &result
		// Ineligible pero existente: se cotiza igual y aporta 0.
		if !result.OK && result.Reason != pricing.RejectNotEligible {
			code = ""
			service.metrics.ObserveCouponRejection(string(result.Reason))
		}
	}

	quote := service.quote(lines, code)
	quote.Unavailable = unavailable
	quote.Coupon = validation
	return quote, nil
}

// ValidateCoupon valida un código contra líneas sueltas.
func (service *Service) ValidateCoupon(ctx context.Context, code string, inputs []LineInput) (pricing.Validation, error) {
	merged, err := mergeInputs(inputs)
	if err != nil {
		return pricing.Validation{}, err
	}
	lines, _, err := service.resolve(ctx, merged)
	if err != nil {
		return pricing.Validation{}, err
	}
	validation := service.engine.ValidateCoupon(code, lines, service.now())
	if !validation.OK {
		service.metrics.ObserveCouponRejection(string(validation.Reason))
	}
	return validation, nil
}

// Checkout cotiza, verifica stock y vacía el carrito.
func (service *Service) Checkout(ctx context.Context, cartID string) (Receipt, error) {
	cart, err := service.store.Load(ctx, cartID)
	if err != nil {
		return Receipt{}, err
	}
	if len(cart.Lines) == 0 {
		return Receipt{}, ErrorEmptyCart
	}

	lines := make([]pricing.Line, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		item, err := service.item(ctx, line.ItemID)
		if err != nil {
			return Receipt{}, err
		}
		if !validQuantity(line.Quantity) {
			return Receipt{}, ErrorInvalidQuantity
		}
		if line.Quantity > item.Stock {
			return Receipt{}, fmt.Errorf("%w: only %d units of %q available", ErrorInsufficientStock, item.Stock, item.Name)
		}
		lines = append(lines, toPricingLine(item, line.Quantity))
	}

	quote := service.quote(lines, cart.CouponCode)
	receipt := Receipt{
		CartID:       cart.ID,
		Lines:        lines,
		Totals:       quote.Totals,
		CheckedOutAt: service.now().UTC(),
	}

	cart.Lines = []Line{}
	cart.CouponCode = ""
	if _, err := service.save(ctx, cart); err != nil {
		return Receipt{}, err
	}

	service.logger.Event(service.logger.WithField(ctx, "cart_id", cartID), zerolog.InfoLevel).
		Str("total", receipt.Totals.Total.StringFixed(2)).
		Int("items", receipt.Totals.ItemCount).
		Msg("cart checked out")
	return receipt, nil
}

func (service *Service) quote(lines []pricing.Line, code string) Quote {
	var coupon *pricing.Coupon
	if found, ok := service.engine.Lookup(code); ok {
		coupon = &found
	}

	totals := service.engine.ComputeTotals(lines, coupon, service.now())
	service.metrics.ObserveQuote(totals.Coupon != nil && totals.Coupon.Applicable)
	return Quote{Lines: lines, Totals: totals}
}

func (service *Service) save(ctx context.Context, cart Cart) (Cart, error) {
	cart.UpdatedAt = service.now().UTC()
	if err := service.store.Save(ctx, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

func (service *Service) item(ctx context.Context, itemID string) (catalog.Item, error) {
	if _, err := uuid.Parse(itemID); err != nil {
		return catalog.Item{}, ErrorItemNotFound
	}
	item, err := service.items.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, items.ErrorNotFound) {
			return catalog.Item{}, ErrorItemNotFound
		}
		return catalog.Item{}, err
	}
	return item, nil
}

// resolve trae precio, nombre y categoría actuales de cada línea.
// Los items borrados se devuelven aparte y no se cotizan.
func (service *Service) resolve(ctx context.Context, cartLines []Line) ([]pricing.Line, []string, error) {
	lines := make([]pricing.Line, 0, len(cartLines))
	var unavailable []string
	for _, line := range cartLines {
		item, err := service.item(ctx, line.ItemID)
		if err != nil {
			if errors.Is(err, ErrorItemNotFound) {
				unavailable = append(unavailable, line.ItemID)
				continue
			}
			return nil, nil, err
		}
		lines = append(lines, toPricingLine(item, line.Quantity))
	}
	return lines, unavailable, nil
}

func toPricingLine(item catalog.Item, quantity int) pricing.Line {
	return pricing.Line{
		ItemID:    item.ID,
		Name:      item.Name,
		Category:  item.Category,
		UnitPrice: item.Price,
		Quantity:  quantity,
	}
}

// mergeInputs junta líneas repetidas del mismo item.
// La suma de una línea tampoco puede pasar MaxLineQuantity.
func mergeInputs(inputs []LineInput) ([]Line, error) {
	lines := make([]Line, 0, len(inputs))
	positions := map[string]int{}
	for _, input := range inputs {
		if !validQuantity(input.Quantity) {
			return nil, ErrorInvalidQuantity
		}
		if index, ok := positions[input.ItemID]; ok {
			if input.Quantity > MaxLineQuantity-lines[index].Quantity {
				return nil, ErrorInvalidQuantity
			}
			lines[index].Quantity += input.Quantity
			continue
		}
		positions[input.ItemID] = len(lines)
		lines = append(lines, Line{ItemID: input.ItemID, Quantity: input.Quantity})
	}
	return lines, nil
}

func validQuantity(quantity int) bool {
	return quantity >= 1 && quantity <= MaxLineQuantity
}
