package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/wyvernpos/pos-services/internal/possvc/models"
)

// ErrDuplicateTag indicates the RFID tag is already bound to a user.
var ErrDuplicateTag = errors.New("rfid tag already exists")

// ErrTagNotFound indicates the tag is not bound to the given user.
var ErrTagNotFound = errors.New("rfid tag not found")

// ErrUserNotFound indicates no user row for the given id or tag.
var ErrUserNotFound = errors.New("user not found")

// RegisterParams carries the fields of a new wallet registration.
type RegisterParams struct {
	Name           string
	Phone          string
	Email          string
	Tag            string
	DiscountRate   decimal.Decimal
	OpeningBalance decimal.Decimal
}

// UserUpdate carries optional profile changes; nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	Phone        *string
	Email        *string
	DiscountRate *decimal.Decimal
}

// Ledger captures the persistence operations of the stored-value ledger.
// Balance mutation is atomic with its audit entry: no implementation may
// change a balance without appending exactly one transaction row, nor the
// other way round.
type Ledger interface {
	RegisterUser(ctx context.Context, p RegisterParams) (models.User, error)
	GetUserByTag(ctx context.Context, tag string) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]models.User, error)

	ApplyDelta(ctx context.Context, userID int64, amount decimal.Decimal, txType, description string) (decimal.Decimal, error)

	AddTag(ctx context.Context, userID int64, tag string) error
	RemoveTag(ctx context.Context, userID int64, tag string) error
	TagsForUser(ctx context.Context, userID int64) ([]models.RFIDTag, error)

	History(ctx context.Context, userID int64, limit int) ([]models.LedgerTransaction, error)
	AuditedBalance(ctx context.Context, userID int64) (decimal.Decimal, error)

	WipeAll(ctx context.Context) error
}
