package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

var (
	// Miércoles 10:00, fuera de happy hour.
	weekdayMorning = time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)
	// Miércoles 18:30, dentro de happy hour.
	weekdayEvening = time.Date(2024, time.January, 3, 18, 30, 0, 0, time.UTC)
	// Sábado 12:00.
	saturdayNoon = time.Date(2024, time.January, 6, 12, 0, 0, 0, time.UTC)
)

func line(category catalog.Category, price string, quantity int) Line {
	return Line{
		ItemID:    string(category) + price,
		Name:      "item",
		Category:  category,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  quantity,
	}
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Equal(t, want, got.StringFixed(2))
}

func TestComputeTotals_EmptyCart(t *testing.T) {
	engine := NewEngine(DefaultRules(), time.UTC)

	totals := engine.ComputeTotals(nil, nil, weekdayMorning)

	requireAmount(t, "0.00", totals.Subtotal)
	requireAmount(t, "0.00", totals.TotalDiscount)
	requireAmount(t, "0.00", totals.Total)
	require.Empty(t, totals.AppliedReasons)
	require.Nil(t, totals.Coupon)
}

func TestComputeTotals_BulkTiersAreExclusive(t *testing.T) {
	engine := NewEngine(DefaultRules(), time.UTC)

	tests := []struct {
		name     string
		quantity int
		want     string
	}{
		{"below first tier", 4, "0.00"},
		{"first tier", 5, "2.50"},
		{"between tiers", 9, "4.50"},
		{"top tier only", 12, "12.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := engine.ComputeTotals([]Line{line(catalog.CategoryBooks, "10.00", tt.quantity)}, nil, weekdayMorning)

			// subtotal = 10 × quantity; 12 unidades → 10% de 120.
			requireAmount(t, tt.want, totals.Discounts.Bulk)
		})
	}
}

func TestComputeTotals_CategoryDiscountIsPerItem(t *testing.T) {
	engine := NewEngine(DefaultRules(), time.UTC)

	totals := engine.ComputeTotals([]Line{
		line(catalog.CategoryElectronics, "100.00", 1),
		line(catalog.CategoryHomeKitchen, "100.00", 1),
	}, nil, weekdayMorning)

	requireAmount(t, "200.00", totals.Subtotal)
	requireAmount(t, "20.00", totals.Discounts.Category)
	requireAmount(t, "0.00", totals.Discounts.Bulk)
	requireAmount(t, "180.00", totals.Total)
	require.Equal(t, []string{"Category discount: -$20.00"}, totals.AppliedReasons)
}

func TestComputeTotals_UnratedCategoryGetsNoDiscount(t *testing.T) {
	engine := NewEngine(DefaultRules(), time.UTC)

	totals := engine.ComputeTotals([]Line{line(catalog.CategoryClothing, "50.00", 2)}, nil, weekdayMorning)

	requireAmount(t, "0.00", totals.Discounts.Category)
	requireAmount(t, "100.00", totals.Total)
}

func TestComputeTotals_TimeWindow(t *testing.T) {
	engine := NewEngine(DefaultRules(), time.UTC)
	lines := []Line{line(catalog.CategoryBooks, "40.00", 1)}

	inside := engine.ComputeTotals(lines, nil, weekdayEvening)
	requireAmount(t, "2.00", inside.Discounts.TimeBased)

	boundary := engine.ComputeTotals(lines, nil, time.Date(2024, time.January, 3, 20, 0, 0, 0, time.UTC))
	requireAmount(t, "0.00", boundary.Discounts.TimeBased)

	outside := engine.ComputeTotals(lines, nil, weekdayMorning)
	requireAmount(t, "0.00", outside.Discounts.TimeBased)
}

func TestComputeTotals_TimeWindowUsesEngineLocation(t *testing.T) {
	location := time.FixedZone("UTC-3", -3*60*60)
	engine := NewEngine(DefaultRules(), location)

	// 21:30 UTC son 18:30 en UTC-3.
	now := time.Date(2024, time.January, 3, 21, 30, 0, 0, time.UTC)
	totals := engine.ComputeTotals([]Line{line(catalog.CategoryBooks, "100.00", 1)}, nil, now)

	requireAmount(t, "5.00", totals.Discounts.TimeBased)
}

func TestComputeTotals_Coupon(t *testing.T) {
	engine := NewEngine(DefaultRules(), time.UTC)
	save20, _ := engine.Lookup("save20")
	weekend, _ := engine.Lookup("WEEKEND")
	bulk10, _ := engine.Lookup("BULK10")

	t.Run("eligible coupon applies on subtotal", func(t *testing.T) {
		totals := engine.ComputeTotals([]Line{line(catalog.CategoryBooks, "50.00", 2)}, &save20, weekdayMorning)

		requireAmount(t, "20.00", totals.Discounts.Coupon)
		require.NotNil(t, totals.Coupon)
		require.True(t, totals.Coupon.Applicable)
		require.Equal(t, []string{"Coupon (SAVE20): -$20.00"}, totals.AppliedReasons)
	})

	t.Run("weekend coupon on weekday contributes nothing", func(t *testing.T) {
		totals := engine.ComputeTotals([]Line{line(catalog.CategoryBooks, "50.00", 2)}, &weekend, weekdayMorning)

		requireAmount(t, "0.00", totals.Discounts.Coupon)
		requireAmount(t, "100.00", totals.Total)
		require.NotNil(t, totals.Coupon)
		require.Equal(t, "WEEKEND", totals.Coupon.Code)
		require.False(t, totals.Coupon.Applicable)
		require.Equal(t, "WEEKEND coupon is only valid on weekends", totals.Coupon.Reason)
		require.Empty(t, totals.AppliedReasons)
	})

	t.Run("weekend coupon on saturday", func(t *testing.T) {
		totals := engine.ComputeTotals([]Line{line(catalog.CategoryBooks, "50.00", 2)}, &weekend, saturdayNoon)

		requireAmount(t, "15.00", totals.Discounts.Coupon)
		require.True(t, totals.Coupon.Applicable)
	})

	t.Run("min quantity coupon re-evaluated against cart", func(t *testing.T) {
		totals := engine.ComputeTotals([]Line{line(catalog.CategoryBooks, "10.00", 4)}, &bulk10, weekdayMorning)

		require.False(t, totals.Coupon.Applicable)
		require.Equal(t, "BULK10 requires 5+ items in cart", totals.Coupon.Reason)
	})
}

func TestComputeTotals_ReasonsOrderAndTotalInvariant(t *testing.T) {
	engine := NewEngine(DefaultRules(), time.UTC)
	save20, _ := engine.Lookup("SAVE20")

	lines := []Line{
		line(catalog.CategoryElectronics, "79.99", 6),
		line(catalog.CategoryHomeKitchen, "34.99", 5),
	}
	totals := engine.ComputeTotals(lines, &save20, weekdayEvening)

	require.Len(t, totals.AppliedReasons, 4)
	require.Contains(t, totals.AppliedReasons[0], "Bulk discount (10+ items)")
	require.Contains(t, totals.AppliedReasons[1], "Category discount")
	require.Contains(t, totals.AppliedReasons[2], "Happy hour discount (18:00-20:00)")
	require.Contains(t, totals.AppliedReasons[3], "Coupon (SAVE20)")

	require.True(t, totals.TotalDiscount.Equal(totals.Discounts.Sum()))
	require.True(t, totals.Total.Equal(totals.Subtotal.Sub(totals.TotalDiscount)))
	require.Equal(t, 11, totals.ItemCount)
}

func TestComputeTotals_TotalNeverNegative(t *testing.T) {
	rules := DefaultRules()
	rules.Coupons["ALLFREE"] = Coupon{Code: "ALLFREE", Rate: decimal.NewFromInt(1)}
	engine := NewEngine(rules, time.UTC)
	free, _ := engine.Lookup("ALLFREE")

	totals := engine.ComputeTotals([]Line{line(catalog.CategoryElectronics, "100.00", 12)}, &free, weekdayEvening)

	require.True(t, totals.TotalDiscount.GreaterThan(totals.Subtotal))
	requireAmount(t, "0.00", totals.Total)
	require.False(t, totals.Total.IsNegative())
}
