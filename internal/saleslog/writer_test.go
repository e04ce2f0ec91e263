package saleslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func sampleRecord(t *testing.T) SaleRecord {
	t.Helper()
	return SaleRecord{
		Timestamp:   time.Date(2026, 8, 28, 14, 5, 9, 0, time.UTC),
		Method:      MethodCash,
		TotalAmount: dec(t, "40.00"),
		Items: []Item{
			{Name: "Hot Drinks > Coffee > Latte", Price: dec(t, "25.00")},
			{Name: "Bakery > Muffin", Price: dec(t, "15.00")},
		},
	}
}

func TestFileNameUsesCalendarDay(t *testing.T) {
	assert.Equal(t, "transactions_2026-08-28.log", FileName(sampleRecord(t)))
}

func TestAppendWritesBlock(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	require.NoError(t, w.Append(sampleRecord(t)))

	data, err := os.ReadFile(filepath.Join(dir, "transactions_2026-08-28.log"))
	require.NoError(t, err)

	want := "Timestamp: 2026-08-28 14:05:09\n" +
		"Payment Method: cash\n" +
		"Total Amount: R40.00\n" +
		"Items:\n" +
		"- Hot Drinks > Coffee > Latte - R25.00\n" +
		"- Bakery > Muffin - R15.00\n" +
		strings.Repeat("=", 80) + "\n"
	assert.Equal(t, want, string(data))
}

func TestAppendWalletSaleWithDiscount(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	rec := sampleRecord(t)
	rec.Method = MethodWyvern
	rec.CardID = "04A1B2C3"
	rec.DiscountAmount = dec(t, "4.00")
	require.NoError(t, w.Append(rec))

	data, err := os.ReadFile(filepath.Join(dir, FileName(rec)))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Payment Method: wyvern_card_04A1B2C3\n")
	assert.Contains(t, content, "Discount Amount: R4.00\n")
	assert.Contains(t, content, "Amount After Discount: R36.00\n")
	// discount lines sit between total and items
	assert.Less(t,
		strings.Index(content, "Total Amount:"),
		strings.Index(content, "Discount Amount:"))
	assert.Less(t,
		strings.Index(content, "Amount After Discount:"),
		strings.Index(content, "Items:"))
}

func TestAppendAccumulatesBlocksInOrder(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	first := sampleRecord(t)
	second := sampleRecord(t)
	second.Timestamp = first.Timestamp.Add(45 * time.Minute)
	second.Method = MethodCard

	require.NoError(t, w.Append(first))
	require.NoError(t, w.Append(second))

	data, err := os.ReadFile(filepath.Join(dir, "transactions_2026-08-28.log"))
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(string(data), Separator))
	assert.Less(t,
		strings.Index(string(data), "14:05:09"),
		strings.Index(string(data), "14:50:09"))
}

func TestAppendSplitsAcrossDayFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	today := sampleRecord(t)
	tomorrow := sampleRecord(t)
	tomorrow.Timestamp = today.Timestamp.AddDate(0, 0, 1)

	require.NoError(t, w.Append(today))
	require.NoError(t, w.Append(tomorrow))

	_, err := os.Stat(filepath.Join(dir, "transactions_2026-08-28.log"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "transactions_2026-08-29.log"))
	require.NoError(t, err)
}
