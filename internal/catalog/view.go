package catalog

import (
	"slices"
	"strings"
)

// SortKey es uno de los campos por los que se puede ordenar.
type SortKey string

const (
	SortByID       SortKey = "id"
	SortByName     SortKey = "name"
	SortByCategory SortKey = "category"
	SortByPrice    SortKey = "price"
	SortByStock    SortKey = "stock"
)

// SortDirection indica el sentido del orden.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

const (
	DefaultSortKey   = SortByName
	DefaultDirection = Ascending
	DefaultPageSize  = 10
)

// Criteria agrupa búsqueda, filtro, orden y paginación.
type Criteria struct {
	Query         string
	Category      string
	SortKey       SortKey
	SortDirection SortDirection
	Page          int
	PageSize      int
}

// Page es la vista derivada que consume la capa HTTP.
type Page struct {
	Items         []Item        `json:"items"`
	TotalCount    int           `json:"total_count"`
	TotalPages    int           `json:"total_pages"`
	Page          int           `json:"page"`
	PageSize      int           `json:"page_size"`
	SortKey       SortKey       `json:"sort_key"`
	SortDirection SortDirection `json:"sort_direction"`
}

// ParseSortKey devuelve la clave si es conocida, o el default.
func ParseSortKey(value string) SortKey {
	key := SortKey(strings.ToLower(strings.TrimSpace(value)))
	switch key {
	case SortByID, SortByName, SortByCategory, SortByPrice, SortByStock:
		return key
	default:
		return DefaultSortKey
	}
}

// ParseSortDirection devuelve "desc" solo si se pidió explícitamente.
func ParseSortDirection(value string) SortDirection {
	if SortDirection(strings.ToLower(strings.TrimSpace(value))) == Descending {
		return Descending
	}
	return DefaultDirection
}

// Normalize aplica defaults a los criterios. No clampa la página; eso
// depende del total y lo hace View.
func (criteria Criteria) Normalize() Criteria {
	criteria.Query = strings.TrimSpace(criteria.Query)
	criteria.Category = strings.TrimSpace(criteria.Category)
	if criteria.Category == "" {
		criteria.Category = CategoryAll
	}
	criteria.SortKey = ParseSortKey(string(criteria.SortKey))
	criteria.SortDirection = ParseSortDirection(string(criteria.SortDirection))
	if criteria.PageSize < 1 {
		criteria.PageSize = DefaultPageSize
	}
	if criteria.Page < 1 {
		criteria.Page = 1
	}
	return criteria
}

// View filtra, ordena y pagina un snapshot de items.
// No modifica el slice recibido.
func View(items []Item, criteria Criteria) Page {
	criteria = criteria.Normalize()

	filtered := Filter(items, criteria.Query, criteria.Category)
	Sort(filtered, criteria.SortKey, criteria.SortDirection)

	totalCount := len(filtered)
	totalPages := (totalCount + criteria.PageSize - 1) / criteria.PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	page := criteria.Page
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * criteria.PageSize
	end := min(start+criteria.PageSize, totalCount)
	if start > end {
		start = end
	}

	return Page{
		Items:         filtered[start:end],
		TotalCount:    totalCount,
		TotalPages:    totalPages,
		Page:          page,
		PageSize:      criteria.PageSize,
		SortKey:       criteria.SortKey,
		SortDirection: criteria.SortDirection,
	}
}

// Filter devuelve una copia con los items que pasan categoría y búsqueda.
// La búsqueda es substring case-insensitive sobre nombre o id.
func Filter(items []Item, query, category string) []Item {
	query = strings.ToLower(strings.TrimSpace(query))
	filterByCategory := category != "" && category != CategoryAll

	out := make([]Item, 0, len(items))
	for _, item := range items {
		if filterByCategory && string(item.Category) != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(item.Name), query) &&
			!strings.Contains(strings.ToLower(item.ID), query) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Sort ordena in place de forma estable.
func Sort(items []Item, key SortKey, direction SortDirection) {
	sign := 1
	if direction == Descending {
		sign = -1
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		return sign * compareBy(key, a, b)
	})
}

func compareBy(key SortKey, a, b Item) int {
	switch key {
	case SortByPrice:
		return a.Price.Cmp(b.Price)
	case SortByStock:
		return compareInt(a.Stock, b.Stock)
	case SortByID:
		return strings.Compare(strings.ToLower(a.ID), strings.ToLower(b.ID))
	case SortByCategory:
		return strings.Compare(strings.ToLower(string(a.Category)), strings.ToLower(string(b.Category)))
	case SortByName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	default:
		return 0
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
