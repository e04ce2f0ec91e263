package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger transaction types. The stored balance of a user is always the sum
// of that user's transaction amounts.
const (
	TxDeposit  = "deposit"
	TxLoad     = "load"
	TxPurchase = "purchase"
)

// LedgerTransaction is one immutable audit entry. Amount is signed:
// positive credits the balance, negative debits it.
type LedgerTransaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Receipt is the value object emitted when a wallet checkout completes.
type Receipt struct {
	Total          decimal.Decimal `json:"total"`
	DiscountRate   decimal.Decimal `json:"discount_rate"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	NewBalance     decimal.Decimal `json:"new_balance"`
}
