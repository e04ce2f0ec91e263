package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/wyvernpos/pos-services/internal/possvc/models"
	"github.com/wyvernpos/pos-services/internal/possvc/store"
)

// memLedger is an in-memory Ledger used by the service tests. It keeps the
// same atomicity contract: every balance change appends exactly one
// transaction row.
type memLedger struct {
	users     map[int64]models.User
	tags      map[string]int64
	txs       []models.LedgerTransaction
	nextID    int64
	failApply bool
}

func newMemLedger() *memLedger {
	return &memLedger{
		users: map[int64]models.User{},
		tags:  map[string]int64{},
	}
}

func (m *memLedger) RegisterUser(ctx context.Context, p store.RegisterParams) (models.User, error) {
	if _, dup := m.tags[p.Tag]; dup {
		return models.User{}, store.ErrDuplicateTag
	}
	m.nextID++
	u := models.User{
		ID:           m.nextID,
		Name:         p.Name,
		Phone:        p.Phone,
		Email:        p.Email,
		Balance:      p.OpeningBalance,
		DiscountRate: p.DiscountRate,
	}
	m.users[u.ID] = u
	m.tags[p.Tag] = u.ID
	if p.OpeningBalance.IsPositive() {
		m.txs = append(m.txs, models.LedgerTransaction{
			UserID: u.ID, Amount: p.OpeningBalance,
			Type: models.TxDeposit, Description: "Opening balance",
		})
	}
	return u, nil
}

func (m *memLedger) GetUserByTag(ctx context.Context, tag string) (models.User, error) {
	id, ok := m.tags[tag]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *memLedger) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (m *memLedger) UpdateUser(ctx context.Context, id int64, upd store.UserUpdate) error {
	u, ok := m.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.DiscountRate != nil {
		u.DiscountRate = *upd.DiscountRate
	}
	m.users[id] = u
	return nil
}

func (m *memLedger) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(m.users, id)
	for tag, uid := range m.tags {
		if uid == id {
			delete(m.tags, tag)
		}
	}
	return nil
}

func (m *memLedger) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *memLedger) ApplyDelta(ctx context.Context, userID int64, amount decimal.Decimal, txType, description string) (decimal.Decimal, error) {
	if m.failApply {
		return decimal.Zero, errors.New("ledger write failed")
	}
	u, ok := m.users[userID]
	if !ok {
		return decimal.Zero, store.ErrUserNotFound
	}
	u.Balance = u.Balance.Add(amount)
	m.users[userID] = u
	m.txs = append(m.txs, models.LedgerTransaction{
		UserID: userID, Amount: amount, Type: txType, Description: description,
	})
	return u.Balance, nil
}

func (m *memLedger) AddTag(ctx context.Context, userID int64, tag string) error {
	if _, dup := m.tags[tag]; dup {
		return store.ErrDuplicateTag
	}
	m.tags[tag] = userID
	return nil
}

func (m *memLedger) RemoveTag(ctx context.Context, userID int64, tag string) error {
	if uid, ok := m.tags[tag]; !ok || uid != userID {
		return store.ErrTagNotFound
	}
	delete(m.tags, tag)
	return nil
}

func (m *memLedger) TagsForUser(ctx context.Context, userID int64) ([]models.RFIDTag, error) {
	var tags []models.RFIDTag
	for tag, uid := range m.tags {
		if uid == userID {
			tags = append(tags, models.RFIDTag{UserID: uid, RFID: tag})
		}
	}
	return tags, nil
}

func (m *memLedger) History(ctx context.Context, userID int64, limit int) ([]models.LedgerTransaction, error) {
	var history []models.LedgerTransaction
	for i := len(m.txs) - 1; i >= 0 && len(history) < limit; i-- {
		if m.txs[i].UserID == userID {
			history = append(history, m.txs[i])
		}
	}
	return history, nil
}

func (m *memLedger) AuditedBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, tx := range m.txs {
		if tx.UserID == userID {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (m *memLedger) WipeAll(ctx context.Context) error {
	m.users = map[int64]models.User{}
	m.tags = map[string]int64{}
	m.txs = nil
	m.nextID = 0
	return nil
}

var _ store.Ledger = (*memLedger)(nil)
