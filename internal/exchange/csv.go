package exchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

var itemsHeader = []string{"id", "name", "category", "price", "stock"}

// ErrInvalidHeader indica que el CSV no tiene el header esperado.
var ErrInvalidHeader = errors.New("invalid csv header")

// WriteItemsCSV escribe id,name,category,price,stock con el precio a 2 decimales.
func WriteItemsCSV(writer io.Writer, items []catalog.Item) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(itemsHeader); err != nil {
		return err
	}
	for _, item := range items {
		record := []string{
			item.ID,
			item.Name,
			string(item.Category),
			item.Price.StringFixed(2),
			strconv.Itoa(item.Stock),
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// ReadItemsCSV parsea el formato de WriteItemsCSV.
// Las filas inválidas no cortan la lectura: se devuelven las válidas junto
// con un error combinado (multierr) que tiene un error por fila.
func ReadItemsCSV(reader io.Reader) ([]catalog.Item, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrInvalidHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !sameHeader(header) {
		return nil, ErrInvalidHeader
	}

	var (
		items []catalog.Item
		errs  error
	)
	for row := 1; ; row++ {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", row, err))
			continue
		}
		item, err := parseRecord(record)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", row, err))
			continue
		}
		items = append(items, item)
	}

	return items, errs
}

func sameHeader(header []string) bool {
	if len(header) != len(itemsHeader) {
		return false
	}
	for i, column := range header {
		column = strings.TrimPrefix(column, "\ufeff")
		if strings.ToLower(strings.TrimSpace(column)) != itemsHeader[i] {
			return false
		}
	}
	return true
}

func parseRecord(record []string) (catalog.Item, error) {
	if len(record) != len(itemsHeader) {
		return catalog.Item{}, fmt.Errorf("expected %d fields, got %d", len(itemsHeader), len(record))
	}

	category, ok := catalog.ParseCategory(strings.TrimSpace(record[2]))
	if !ok {
		return catalog.Item{}, fmt.Errorf("unknown category %q", record[2])
	}

	price, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil || !price.IsPositive() {
		return catalog.Item{}, fmt.Errorf("invalid price %q", record[3])
	}

	stock, err := strconv.Atoi(strings.TrimSpace(record[4]))
	if err != nil || stock < 0 {
		return catalog.Item{}, fmt.Errorf("invalid stock %q", record[4])
	}

	return catalog.Item{
		ID:       strings.TrimSpace(record[0]),
		Name:     strings.TrimSpace(record[1]),
		Category: category,
		Price:    price,
		Stock:    stock,
	}, nil
}

// WriteValueCSV escribe category,value con una primera fila "All" para el total.
func WriteValueCSV(writer io.Writer, valuation catalog.Valuation) error {
	csvWriter := csv.NewWriter(writer)
	records := [][]string{
		{"category", "value"},
		{"All", valuation.Total.StringFixed(2)},
	}
	for _, entry := range valuation.ByCategory {
		records = append(records, []string{string(entry.Category), entry.Value.StringFixed(2)})
	}
	return csvWriter.WriteAll(records)
}
