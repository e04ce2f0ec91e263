package saleslog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is the second-resolution timestamp written to the day logs.
const TimeLayout = "2006-01-02 15:04:05"

// Separator closes every sale block in a day log file.
var Separator = strings.Repeat("=", 80)

const (
	MethodCash   = "cash"
	MethodCard   = "card"
	MethodWyvern = "wyvern"
)

const wyvernCardPrefix = "wyvern_card_"

// Item is one ordered line of a sale, name qualified by its menu hierarchy.
type Item struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// SaleRecord is one completed checkout as written to the append-only day log.
// Wallet payments carry the tag id in CardID with Method set to "wyvern".
type SaleRecord struct {
	Timestamp      time.Time
	Method         string
	CardID         string
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	Items          []Item
}

// MethodKey renders the payment method the way the log file and the central
// store carry it: wallet sales re-compose to wyvern_card_<id>.
func (r SaleRecord) MethodKey() string {
	if r.Method == MethodWyvern {
		return wyvernCardPrefix + r.CardID
	}
	return r.Method
}

// HasDiscount reports whether a discount applied to this sale.
func (r SaleRecord) HasDiscount() bool {
	return r.DiscountAmount.IsPositive()
}

// AmountAfterDiscount is the amount actually charged.
func (r SaleRecord) AmountAfterDiscount() decimal.Decimal {
	return r.TotalAmount.Sub(r.DiscountAmount)
}

func normalizeMethod(raw string) (method, cardID string) {
	if strings.HasPrefix(raw, wyvernCardPrefix) {
		return MethodWyvern, strings.TrimPrefix(raw, wyvernCardPrefix)
	}
	return raw, ""
}
