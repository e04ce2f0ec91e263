package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyvernpos/pos-services/internal/saleslog"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func appendSale(t *testing.T, dir string, rec saleslog.SaleRecord) {
	t.Helper()
	require.NoError(t, saleslog.NewWriter(dir).Append(rec))
}

func TestGenerateAcrossDaysWithGaps(t *testing.T) {
	dir := t.TempDir()

	appendSale(t, dir, saleslog.SaleRecord{
		Timestamp:   time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		Method:      saleslog.MethodCash,
		TotalAmount: dec(t, "40.00"),
		Items: []saleslog.Item{
			{Name: "Hot Drinks > Coffee", Price: dec(t, "25.00")},
			{Name: "Bakery > Muffin", Price: dec(t, "15.00")},
		},
	})
	// no sales on the 26th
	appendSale(t, dir, saleslog.SaleRecord{
		Timestamp:      time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
		Method:         saleslog.MethodWyvern,
		CardID:         "04A1B2C3",
		TotalAmount:    dec(t, "50.00"),
		DiscountAmount: dec(t, "5.00"),
		Items: []saleslog.Item{
			{Name: "Hot Drinks > Coffee", Price: dec(t, "50.00")},
		},
	})
	// outside the range
	appendSale(t, dir, saleslog.SaleRecord{
		Timestamp:   time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Method:      saleslog.MethodCard,
		TotalAmount: dec(t, "99.00"),
		Items:       []saleslog.Item{{Name: "Juice", Price: dec(t, "99.00")}},
	})

	rep, err := NewAggregator(dir).Generate(day(t, "2026-08-25"), day(t, "2026-08-27"))
	require.NoError(t, err)

	assert.Equal(t, "2026-08-25", rep.StartDate)
	assert.Equal(t, "2026-08-27", rep.EndDate)
	assert.True(t, rep.TotalSales.Equal(dec(t, "90.00")))
	assert.True(t, rep.TotalDiscounts.Equal(dec(t, "5.00")))
	assert.True(t, rep.NetSales.Equal(dec(t, "85.00")))

	assert.Equal(t, 1, rep.Methods[saleslog.MethodCash].Count)
	assert.True(t, rep.Methods[saleslog.MethodCash].Total.Equal(dec(t, "40.00")))
	assert.Equal(t, 1, rep.Methods[saleslog.MethodWyvern].Count)
	assert.Equal(t, 0, rep.Methods[saleslog.MethodCard].Count)

	assert.Equal(t, 3, rep.TotalItems)
	assert.Equal(t, 1, rep.ItemCounts["Hot Drinks > Coffee (cash)"])
	assert.Equal(t, 1, rep.ItemCounts["Hot Drinks > Coffee (wyvern)"])
	assert.Equal(t, 1, rep.ItemCounts["Bakery > Muffin (cash)"])
}

func TestGenerateEmptyRange(t *testing.T) {
	rep, err := NewAggregator(t.TempDir()).Generate(day(t, "2026-08-01"), day(t, "2026-08-07"))
	require.NoError(t, err)

	assert.True(t, rep.TotalSales.IsZero())
	assert.True(t, rep.NetSales.IsZero())
	assert.Equal(t, 0, rep.TotalItems)
	assert.Empty(t, rep.ItemCounts)
	assert.Equal(t, 0, rep.Methods[saleslog.MethodCash].Count)
}

func TestGenerateRejectsReversedRange(t *testing.T) {
	_, err := NewAggregator(t.TempDir()).Generate(day(t, "2026-08-07"), day(t, "2026-08-01"))
	require.Error(t, err)
}

func TestGenerateSingleDay(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		appendSale(t, dir, saleslog.SaleRecord{
			Timestamp:   time.Date(2026, 8, 25, 10+i, 0, 0, 0, time.UTC),
			Method:      saleslog.MethodCard,
			TotalAmount: dec(t, "10.00"),
			Items:       []saleslog.Item{{Name: "Tea", Price: dec(t, "10.00")}},
		})
	}

	rep, err := NewAggregator(dir).Generate(day(t, "2026-08-25"), day(t, "2026-08-25"))
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Methods[saleslog.MethodCard].Count)
	assert.True(t, rep.TotalSales.Equal(dec(t, "20.00")))
	assert.Equal(t, 2, rep.ItemCounts["Tea (card)"])
}
