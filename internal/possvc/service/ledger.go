package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wyvernpos/pos-services/internal/possvc/models"
	"github.com/wyvernpos/pos-services/internal/possvc/store"
)

var hundred = decimal.NewFromInt(100)

type LedgerService struct {
	ledger store.Ledger
}

func NewLedgerService(ledger store.Ledger) *LedgerService {
	return &LedgerService{ledger: ledger}
}

func (s *LedgerService) RegisterUser(ctx context.Context, p store.RegisterParams) (models.User, error) {
	if p.Name == "" {
		return models.User{}, errors.New("name is required")
	}
	if p.Tag == "" {
		return models.User{}, errors.New("rfid tag is required")
	}
	if p.DiscountRate.IsNegative() || p.DiscountRate.GreaterThan(hundred) {
		return models.User{}, errors.New("discount rate must be between 0 and 100")
	}
	if p.OpeningBalance.IsNegative() {
		return models.User{}, errors.New("opening balance cannot be negative")
	}
	return s.ledger.RegisterUser(ctx, p)
}

// LoadMoney credits the wallet and records one load transaction.
func (s *LedgerService) LoadMoney(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, errors.New("load amount must be positive")
	}
	desc := fmt.Sprintf("Balance load of R%s", amount.StringFixed(2))
	return s.ledger.ApplyDelta(ctx, userID, amount, models.TxLoad, desc)
}

func (s *LedgerService) GetUserByTag(ctx context.Context, tag string) (models.User, error) {
	return s.ledger.GetUserByTag(ctx, tag)
}

func (s *LedgerService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return s.ledger.GetUserByID(ctx, id)
}

func (s *LedgerService) UpdateUser(ctx context.Context, id int64, upd store.UserUpdate) error {
	if upd.DiscountRate != nil &&
		(upd.DiscountRate.IsNegative() || upd.DiscountRate.GreaterThan(hundred)) {
		return errors.New("discount rate must be between 0 and 100")
	}
	return s.ledger.UpdateUser(ctx, id, upd)
}

func (s *LedgerService) DeleteUser(ctx context.Context, id int64) error {
	return s.ledger.DeleteUser(ctx, id)
}

func (s *LedgerService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.ledger.ListUsers(ctx)
}

func (s *LedgerService) AddTag(ctx context.Context, userID int64, tag string) error {
	if tag == "" {
		return errors.New("rfid tag is required")
	}
	return s.ledger.AddTag(ctx, userID, tag)
}

func (s *LedgerService) RemoveTag(ctx context.Context, userID int64, tag string) error {
	return s.ledger.RemoveTag(ctx, userID, tag)
}

func (s *LedgerService) TagsForUser(ctx context.Context, userID int64) ([]models.RFIDTag, error) {
	return s.ledger.TagsForUser(ctx, userID)
}

func (s *LedgerService) History(ctx context.Context, userID int64, limit int) ([]models.LedgerTransaction, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.ledger.History(ctx, userID, limit)
}

func (s *LedgerService) AuditedBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.ledger.AuditedBalance(ctx, userID)
}

func (s *LedgerService) WipeAll(ctx context.Context) error {
	return s.ledger.WipeAll(ctx)
}
