package exchange

import (
	"encoding/json"
	"io"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

// WriteItemsJSON escribe el inventario como array JSON indentado.
func WriteItemsJSON(writer io.Writer, items []catalog.Item) error {
	if items == nil {
		items = []catalog.Item{}
	}
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}
