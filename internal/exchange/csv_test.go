package exchange

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

func sampleItems() []catalog.Item {
	return []catalog.Item{
		{ID: "P1", Name: "Wireless Headphones", Category: catalog.CategoryElectronics, Price: decimal.RequireFromString("79.99"), Stock: 15},
		{ID: "P2", Name: `Dish Towels, "Set of 5"`, Category: catalog.CategoryHomeKitchen, Price: decimal.RequireFromString("24.9"), Stock: 0},
		{ID: "P3", Name: "Cookware\nSet", Category: catalog.CategoryHomeKitchen, Price: decimal.RequireFromString("150"), Stock: 5},
	}
}

type tuple struct {
	ID       string
	Name     string
	Category catalog.Category
	Price    string
	Stock    int
}

func tuples(items []catalog.Item) []tuple {
	out := make([]tuple, 0, len(items))
	for _, item := range items {
		out = append(out, tuple{item.ID, item.Name, item.Category, item.Price.StringFixed(2), item.Stock})
	}
	return out
}

func TestWriteItemsCSV(t *testing.T) {
	var buffer bytes.Buffer

	require.NoError(t, WriteItemsCSV(&buffer, sampleItems()[:2]))

	require.Equal(t,
		"id,name,category,price,stock\n"+
			"P1,Wireless Headphones,Electronics,79.99,15\n"+
			"P2,\"Dish Towels, \"\"Set of 5\"\"\",Home & Kitchen,24.90,0\n",
		buffer.String())
}

func TestItemsCSV_RoundTrip(t *testing.T) {
	var buffer bytes.Buffer
	require.NoError(t, WriteItemsCSV(&buffer, sampleItems()))

	parsed, err := ReadItemsCSV(&buffer)

	require.NoError(t, err)
	require.Equal(t, tuples(sampleItems()), tuples(parsed))
}

func TestReadItemsCSV_CollectsRowErrors(t *testing.T) {
	input := strings.Join([]string{
		"id,name,category,price,stock",
		"A1,Good Item,Books,10.00,3",
		"A2,Bad Category,Toys,10.00,3",
		"A3,Bad Price,Books,-1,3",
		"A4,Bad Stock,Books,1.00,many",
		"A5,Too,Few",
		"A6,Another Good,Clothing,5,0",
	}, "\n")

	items, err := ReadItemsCSV(strings.NewReader(input))

	require.Len(t, items, 2)
	require.Equal(t, "A1", items[0].ID)
	require.Equal(t, "A6", items[1].ID)

	errs := multierr.Errors(err)
	require.Len(t, errs, 4)
	require.Contains(t, errs[0].Error(), `row 2: unknown category "Toys"`)
	require.Contains(t, errs[1].Error(), "invalid price")
	require.Contains(t, errs[2].Error(), "invalid stock")
	require.Contains(t, errs[3].Error(), "expected 5 fields")
}

func TestReadItemsCSV_InvalidHeader(t *testing.T) {
	_, err := ReadItemsCSV(strings.NewReader("name,price\nx,1\n"))
	require.ErrorIs(t, err, ErrInvalidHeader)

	_, err = ReadItemsCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestWriteValueCSV(t *testing.T) {
	var buffer bytes.Buffer

	valuation := catalog.Valuate(sampleItems())
	require.NoError(t, WriteValueCSV(&buffer, valuation))

	require.Equal(t,
		"category,value\n"+
			"All,1949.85\n"+
			"Electronics,1199.85\n"+
			"Home & Kitchen,750.00\n",
		buffer.String())
}

func TestWriteItemsJSON(t *testing.T) {
	var buffer bytes.Buffer

	require.NoError(t, WriteItemsJSON(&buffer, nil))
	require.Equal(t, "[]\n", buffer.String())

	buffer.Reset()
	require.NoError(t, WriteItemsJSON(&buffer, sampleItems()[:1]))
	require.Contains(t, buffer.String(), `  {`+"\n"+`    "id": "P1",`)
	require.Contains(t, buffer.String(), `"price": "79.99"`)
}
