package items

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
	"github.com/Lelo88/inventory-pricing-api/internal/validation"
)

// Errores de dominio (no HTTP). El handler los traduce a status codes.
var (
	ErrorInvalidInput  = errors.New("invalid input")
	ErrorDuplicateName = errors.New("duplicate item name")
	ErrorNotFound      = errors.New("item not found")
	ErrorNothingToUndo = errors.New("nothing to undo")
)

const defaultUndoWindow = 10 * time.Second

// Caracteres que se quitan del nombre antes de guardarlo.
var nameSanitizer = strings.NewReplacer("&", "", "<", "", ">", "")

// RepositoryAPI es lo que el service necesita de la capa de datos.
type RepositoryAPI interface {
	Insert(ctx context.Context, input newItem) (catalog.Item, error)
	Restore(ctx context.Context, item catalog.Item) (catalog.Item, error)
	ListAll(ctx context.Context) ([]catalog.Item, error)
	GetByID(ctx context.Context, id string) (catalog.Item, error)
	Update(ctx context.Context, id string, changes itemChanges) (catalog.Item, error)
	Delete(ctx context.Context, id string) (catalog.Item, error)
}

// Service contiene reglas de negocio de items.
type Service struct {
	repository RepositoryAPI
	undo       *undoBuffer
	audit      *auditLog
	now        func() time.Time
}

// Option configura el Service.
type Option func(*Service)

// WithUndoWindow cambia cuánto tiempo se puede deshacer un delete.
func WithUndoWindow(window time.Duration) Option {
	return func(service *Service) {
		if window > 0 {
			service.undo.window = window
		}
	}
}

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(service *Service) {
		if now != nil {
			service.now = now
		}
	}
}

// NewService crea un service de items.
func NewService(repository RepositoryAPI, opts ...Option) *Service {
	service := &Service{
		repository: repository,
		undo:       &undoBuffer{window: defaultUndoWindow},
		audit:      newAuditLog(auditCapacity),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Create valida reglas y crea el item en DB.
func (service *Service) Create(ctx context.Context, itemInput CreateItemInput) (catalog.Item, error) {
	// Normalización mínima.
	itemInput.Name = sanitizeName(itemInput.Name)
	itemInput.Category = strings.TrimSpace(itemInput.Category)
	itemInput.Price = strings.TrimSpace(itemInput.Price)

	if err := validation.Struct(itemInput); err != nil {
		return catalog.Item{}, fmt.Errorf("%w: %w", ErrorInvalidInput, err)
	}

	price, err := decimal.NewFromString(itemInput.Price)
	if err != nil {
		return catalog.Item{}, ErrorInvalidInput
	}

	return service.repository.Insert(ctx, newItem{
		Name:     itemInput.Name,
		Category: catalog.Category(itemInput.Category),
		Price:    price,
		Stock:    itemInput.Stock,
	})
}

// List carga el inventario y aplica filtro, orden y paginado.
func (service *Service) List(ctx context.Context, criteria catalog.Criteria) (catalog.Page, error) {
	if criteria.Category != "" && criteria.Category != catalog.CategoryAll {
		if _, ok := catalog.ParseCategory(criteria.Category); !ok {
			return catalog.Page{}, ErrorInvalidInput
		}
	}

	snapshot, err := service.repository.ListAll(ctx)
	if err != nil {
		return catalog.Page{}, err
	}
	return catalog.View(snapshot, criteria), nil
}

// Get obtiene un item por ID.
// Nota: el service no valida formato UUID; eso es más de HTTP/entrada (handler).
func (service *Service) Get(ctx context.Context, id string) (catalog.Item, error) {
	return service.repository.GetByID(ctx, id)
}

// Update valida y actualiza parcialmente un item.
// Si cambió precio o stock queda una entrada en el audit log.
func (service *Service) Update(ctx context.Context, id string, itemInput UpdateItemInput) (catalog.Item, error) {
	// Debe venir al menos un campo.
	if itemInput.empty() {
		return catalog.Item{}, ErrorInvalidInput
	}

	if itemInput.Name != nil {
		name := sanitizeName(*itemInput.Name)
		itemInput.Name = &name
	}
	if itemInput.Category != nil {
		category := strings.TrimSpace(*itemInput.Category)
		itemInput.Category = &category
	}
	if itemInput.Price != nil {
		price := strings.TrimSpace(*itemInput.Price)
		itemInput.Price = &price
	}
	if err := validation.Struct(itemInput); err != nil {
		return catalog.Item{}, fmt.Errorf("%w: %w", ErrorInvalidInput, err)
	}

	changes := itemChanges{Name: itemInput.Name, Stock: itemInput.Stock}
	if itemInput.Category != nil {
		category := catalog.Category(*itemInput.Category)
		changes.Category = &category
	}
	if itemInput.Price != nil {
		price, err := decimal.NewFromString(*itemInput.Price)
		if err != nil {
			return catalog.Item{}, ErrorInvalidInput
		}
		changes.Price = &price
	}

	// Leemos antes para poder auditar el diff.
	before, err := service.repository.GetByID(ctx, id)
	if err != nil {
		return catalog.Item{}, err
	}

	after, err := service.repository.Update(ctx, id, changes)
	if err != nil {
		return catalog.Item{}, err
	}

	service.audit.record(before, after, service.now())
	return after, nil
}

// Delete elimina un item y lo guarda para un posible Undo.
// Un delete nuevo reemplaza al anterior.
func (service *Service) Delete(ctx context.Context, id string) error {
	deleted, err := service.repository.Delete(ctx, id)
	if err != nil {
		return err
	}
	service.undo.put(deleted, service.now())
	return nil
}

// Undo restaura el último item borrado si la ventana sigue abierta.
// Si el Restore falla el item sigue pendiente y se puede reintentar.
func (service *Service) Undo(ctx context.Context) (catalog.Item, error) {
	deleted, deletedAt, ok := service.undo.peek(service.now())
	if !ok {
		return catalog.Item{}, ErrorNothingToUndo
	}

	restored, err := service.repository.Restore(ctx, deleted)
	if err != nil {
		return catalog.Item{}, err
	}
	service.undo.clear(deleted.ID, deletedAt)
	return restored, nil
}

// Audit devuelve las últimas entradas, la más reciente primero.
func (service *Service) Audit() []AuditEntry {
	return service.audit.entries()
}

// Value calcula el valor de inventario total y por categoría.
func (service *Service) Value(ctx context.Context) (catalog.Valuation, error) {
	snapshot, err := service.repository.ListAll(ctx)
	if err != nil {
		return catalog.Valuation{}, err
	}
	return catalog.Valuate(snapshot), nil
}

// Snapshot devuelve el inventario completo (exports).
func (service *Service) Snapshot(ctx context.Context) ([]catalog.Item, error) {
	return service.repository.ListAll(ctx)
}

// Import inserta items parseados de un export.
// Si el id es un UUID se conserva; si no, la DB genera uno nuevo.
// Los errores por fila se acumulan y el resto se sigue importando.
func (service *Service) Import(ctx context.Context, batch []catalog.Item) (int, error) {
	var (
		imported int
		errs     error
	)

	for _, item := range batch {
		item.Name = sanitizeName(item.Name)
		if err := checkImported(item); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("item %q: %w", item.Name, err))
			continue
		}

		var err error
		if _, parseErr := uuid.Parse(item.ID); parseErr == nil {
			_, err = service.repository.Restore(ctx, item)
		} else {
			_, err = service.repository.Insert(ctx, newItem{
				Name:     item.Name,
				Category: item.Category,
				Price:    item.Price,
				Stock:    item.Stock,
			})
		}
		if err != nil {
			if ctx.Err() != nil {
				return imported, multierr.Append(errs, ctx.Err())
			}
			errs = multierr.Append(errs, fmt.Errorf("item %q: %w", item.Name, err))
			continue
		}
		imported++
	}

	return imported, errs
}

func checkImported(item catalog.Item) error {
	nameLength := len([]rune(item.Name))
	switch {
	case nameLength < 3 || nameLength > 50:
		return fmt.Errorf("%w: name must be between 3 and 50 characters", ErrorInvalidInput)
	case !item.Price.IsPositive() || !item.Price.Equal(item.Price.Round(2)):
		return fmt.Errorf("%w: price must be a positive number with up to 2 decimals", ErrorInvalidInput)
	case item.Stock < 0:
		return fmt.Errorf("%w: stock must be greater than or equal to 0", ErrorInvalidInput)
	}
	if _, ok := catalog.ParseCategory(string(item.Category)); !ok {
		return fmt.Errorf("%w: unknown category %q", ErrorInvalidInput, item.Category)
	}
	return nil
}

func sanitizeName(name string) string {
	return strings.TrimSpace(nameSanitizer.Replace(name))
}
