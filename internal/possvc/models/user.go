package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents the users table in the terminal ledger database.
type User struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone,omitempty"`
	Email        string          `json:"email,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RFIDTag associates one physical tag with a user. A tag value is globally
// unique: at most one user per tag at any time.
type RFIDTag struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RFID      string    `json:"rfid"`
	CreatedAt time.Time `json:"created_at"`
}
