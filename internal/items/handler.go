package items

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
	"github.com/Lelo88/inventory-pricing-api/internal/exchange"
	"github.com/Lelo88/inventory-pricing-api/internal/httpx"
	"github.com/Lelo88/inventory-pricing-api/internal/logger"
	"github.com/Lelo88/inventory-pricing-api/internal/validation"
)

// Tamaño máximo aceptado para POST /items/import.
const maxImportBytes = 10 << 20

// ServiceAPI define lo que el handler necesita.
// Permite testear handlers con stubs sin tocar DB.
type ServiceAPI interface {
	Create(ctx context.Context, in CreateItemInput) (catalog.Item, error)
	List(ctx context.Context, criteria catalog.Criteria) (catalog.Page, error)
	Get(ctx context.Context, id string) (catalog.Item, error)
	Update(ctx context.Context, id string, in UpdateItemInput) (catalog.Item, error)
	Delete(ctx context.Context, id string) error
	Undo(ctx context.Context) (catalog.Item, error)
	Audit() []AuditEntry
	Value(ctx context.Context) (catalog.Valuation, error)
	Snapshot(ctx context.Context) ([]catalog.Item, error)
	Import(ctx context.Context, batch []catalog.Item) (int, error)
}

// Handler HTTP para items.
// Solo traduce HTTP <-> dominio (service).
type Handler struct {
	service ServiceAPI
	logger  *logger.Logger
}

// NewHandler crea un handler de items. logg puede ser nil.
func NewHandler(service ServiceAPI, logg *logger.Logger) *Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Handler{service: service, logger: logg}
}

// itemView agrega el estado de stock calculado.
type itemView struct {
	catalog.Item
	StockStatus string `json:"stock_status"`
}

func toView(item catalog.Item) itemView {
	return itemView{Item: item, StockStatus: catalog.StockStatus(item.Stock)}
}

type pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Create maneja POST /items.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	var itemInput CreateItemInput
	if err := httpx.DecodeJSON(request, &itemInput); err != nil {
		httpx.FailDecode(writer, request, err)
		return
	}

	item, err := handler.service.Create(request.Context(), itemInput)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusCreated, toView(item))
}

// List maneja GET /items con búsqueda, filtro, orden y paginación.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	page, limit, err := parsePagination(request)
	if err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_pagination", "invalid pagination parameters")
		return
	}

	query := request.URL.Query()
	category := strings.TrimSpace(query.Get("category"))
	if category != "" && !strings.EqualFold(category, catalog.CategoryAll) {
		if _, ok := catalog.ParseCategory(category); !ok {
			httpx.Fail(writer, request, http.StatusBadRequest, "invalid_category", "unknown category")
			return
		}
	} else {
		category = catalog.CategoryAll
	}

	result, err := handler.service.List(request.Context(), catalog.Criteria{
		Query:         query.Get("query"),
		Category:      category,
		SortKey:       catalog.ParseSortKey(query.Get("sort")),
		SortDirection: catalog.ParseSortDirection(query.Get("direction")),
		Page:          page,
		PageSize:      limit,
	})
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	views := make([]itemView, 0, len(result.Items))
	for _, item := range result.Items {
		views = append(views, toView(item))
	}

	httpx.OK(writer, request, http.StatusOK, map[string]any{
		"items": views,
		"pagination": pagination{
			Page:       result.Page,
			Limit:      result.PageSize,
			Total:      result.TotalCount,
			TotalPages: result.TotalPages,
		},
		"sort": map[string]string{
			"key":       string(result.SortKey),
			"direction": string(result.SortDirection),
		},
	})
}

// parsePagination parsea page y limit con defaults y límites razonables.
func parsePagination(request *http.Request) (int, int, error) {
	const (
		defaultPage = 1
		maxLimit    = 100
	)

	query := request.URL.Query()

	page := defaultPage
	limit := catalog.DefaultPageSize

	if value := strings.TrimSpace(query.Get("page")); value != "" {
		pageNumber, err := strconv.Atoi(value)
		if err != nil {
			return 0, 0, err
		}
		if pageNumber < 1 {
			return 0, 0, ErrorInvalidInput
		}
		page = pageNumber
	}

	if value := strings.TrimSpace(query.Get("limit")); value != "" {
		limitNumber, err := strconv.Atoi(value)
		if err != nil {
			return 0, 0, err
		}
		if limitNumber < 1 {
			return 0, 0, ErrorInvalidInput
		}
		if limitNumber > maxLimit {
			limitNumber = maxLimit
		}
		limit = limitNumber
	}

	return page, limit, nil
}

// GetByID maneja GET /items/{id}.
// Valida que el id sea UUID porque en DB es uuid; esto evita errores innecesarios.
func (handler *Handler) GetByID(writer http.ResponseWriter, request *http.Request) {
	id, ok := itemID(writer, request)
	if !ok {
		return
	}

	item, err := handler.service.Get(request.Context(), id)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, toView(item))
}

// Patch maneja PATCH /items/{id}.
func (handler *Handler) Patch(writer http.ResponseWriter, request *http.Request) {
	id, ok := itemID(writer, request)
	if !ok {
		return
	}

	var itemInput UpdateItemInput
	if err := httpx.DecodeJSON(request, &itemInput); err != nil {
		httpx.FailDecode(writer, request, err)
		return
	}

	item, err := handler.service.Update(request.Context(), id, itemInput)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, toView(item))
}

// Delete maneja DELETE /items/{id}.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	id, ok := itemID(writer, request)
	if !ok {
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		handler.fail(writer, request, err)
		return
	}

	// 204 No Content: respuesta vacía.
	writer.WriteHeader(http.StatusNoContent)
}

// Undo maneja POST /items/undo.
func (handler *Handler) Undo(writer http.ResponseWriter, request *http.Request) {
	item, err := handler.service.Undo(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, toView(item))
}

// Audit maneja GET /items/audit.
func (handler *Handler) Audit(writer http.ResponseWriter, request *http.Request) {
	httpx.OK(writer, request, http.StatusOK, handler.service.Audit())
}

// Value maneja GET /items/value.
func (handler *Handler) Value(writer http.ResponseWriter, request *http.Request) {
	valuation, err := handler.service.Value(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, valuation)
}

// ValueCSV maneja GET /items/value.csv.
func (handler *Handler) ValueCSV(writer http.ResponseWriter, request *http.Request) {
	valuation, err := handler.service.Value(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	var buffer bytes.Buffer
	if err := exchange.WriteValueCSV(&buffer, valuation); err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.Attachment(writer, "text/csv; charset=utf-8", "inventory-value.csv", buffer.Bytes())
}

// ExportCSV maneja GET /items/export.csv.
func (handler *Handler) ExportCSV(writer http.ResponseWriter, request *http.Request) {
	snapshot, err := handler.service.Snapshot(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	var buffer bytes.Buffer
	if err := exchange.WriteItemsCSV(&buffer, snapshot); err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.Attachment(writer, "text/csv; charset=utf-8", "inventory.csv", buffer.Bytes())
}

// ExportJSON maneja GET /items/export.json.
func (handler *Handler) ExportJSON(writer http.ResponseWriter, request *http.Request) {
	snapshot, err := handler.service.Snapshot(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	var buffer bytes.Buffer
	if err := exchange.WriteItemsJSON(&buffer, snapshot); err != nil {
		handler.fail(writer, request, err)
		return
	}
	httpx.Attachment(writer, "application/json; charset=utf-8", "inventory.json", buffer.Bytes())
}

// Import maneja POST /items/import con un CSV en el body.
// Las filas inválidas no frenan el import; se informan en la respuesta.
func (handler *Handler) Import(writer http.ResponseWriter, request *http.Request) {
	body := http.MaxBytesReader(writer, request.Body, maxImportBytes)

	batch, parseErr := exchange.ReadItemsCSV(body)
	if errors.Is(parseErr, exchange.ErrInvalidHeader) {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_csv", "csv header must be id,name,category,price,stock")
		return
	}
	if parseErr != nil && batch == nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_csv", "could not read csv body")
		return
	}

	imported, importErr := handler.service.Import(request.Context(), batch)

	result := ImportResult{Imported: imported}
	for _, err := range multierr.Errors(multierr.Append(parseErr, importErr)) {
		result.Errors = append(result.Errors, err.Error())
	}
	result.Failed = len(result.Errors)

	if result.Failed > 0 {
		handler.logger.Event(request.Context(), zerolog.WarnLevel).
			Int("imported", result.Imported).
			Int("failed", result.Failed).
			Msg("items import finished with errors")
	}

	httpx.OK(writer, request, http.StatusOK, result)
}

func itemID(writer http.ResponseWriter, request *http.Request) (string, bool) {
	id := chi.URLParam(request, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return "", false
	}
	return id, true
}

// fail traduce errores de dominio a respuestas HTTP.
func (handler *Handler) fail(writer http.ResponseWriter, request *http.Request, err error) {
	var fieldErrors *validation.Errors
	switch {
	case errors.As(err, &fieldErrors):
		httpx.FailWithDetails(writer, request, http.StatusBadRequest, "invalid_input", "invalid input data", fieldErrors.Fields)
	case errors.Is(err, ErrorInvalidInput):
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_input", "invalid input data")
	case errors.Is(err, ErrorNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "not_found", "item not found")
	case errors.Is(err, ErrorDuplicateName):
		httpx.Fail(writer, request, http.StatusConflict, "conflict", "item name already exists in category")
	case errors.Is(err, ErrorNothingToUndo):
		httpx.Fail(writer, request, http.StatusConflict, "nothing_to_undo", "no recent deletion to undo")
	default:
		// No filtramos detalles internos.
		handler.logger.Error(request.Context(), "items request failed", err)
		httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
