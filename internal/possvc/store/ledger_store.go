package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wyvernpos/pos-services/internal/possvc/models"
)

// Ensure LedgerStore satisfies the Ledger interface at compile time.
var _ Ledger = (*LedgerStore)(nil)

type LedgerStore struct {
	db *pgxpool.Pool
}

func NewLedgerStore(db *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{db: db}
}

// Migrate creates the ledger tables if they don't exist.
func (s *LedgerStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			balance NUMERIC(10,2) NOT NULL DEFAULT 0.00,
			discount_rate NUMERIC(5,2) NOT NULL DEFAULT 0.00,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS rfid_tags (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			rfid TEXT UNIQUE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount NUMERIC(10,2) NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ledger migrations: %w", err)
		}
	}
	return nil
}

// RegisterUser creates the user row, its first tag, and - when an opening
// balance is given - one deposit transaction, all in a single unit of work.
func (s *LedgerStore) RegisterUser(ctx context.Context, p RegisterParams) (models.User, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	u := models.User{
		Name:         p.Name,
		Phone:        p.Phone,
		Email:        p.Email,
		Balance:      p.OpeningBalance,
		DiscountRate: p.DiscountRate,
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO users (name, phone, email, balance, discount_rate)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `, p.Name, p.Phone, p.Email, p.OpeningBalance, p.DiscountRate).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO rfid_tags (user_id, rfid) VALUES ($1, $2)
    `, u.ID, p.Tag)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateTag
		}
		return models.User{}, fmt.Errorf("insert rfid tag: %w", err)
	}

	if p.OpeningBalance.IsPositive() {
		_, err = tx.Exec(ctx, `
            INSERT INTO transactions (user_id, amount, type, description)
            VALUES ($1, $2, $3, $4)
        `, u.ID, p.OpeningBalance, models.TxDeposit, "Opening balance")
		if err != nil {
			return models.User{}, fmt.Errorf("insert opening deposit: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, fmt.Errorf("commit tx: %w", err)
	}
	return u, nil
}

func (s *LedgerStore) GetUserByTag(ctx context.Context, tag string) (models.User, error) {
	row := s.db.QueryRow(ctx, `
        SELECT u.id, u.name, u.phone, u.email, u.balance, u.discount_rate, u.created_at
        FROM users u
        JOIN rfid_tags r ON u.id = r.user_id
        WHERE r.rfid = $1
    `, tag)
	return scanUser(row)
}

func (s *LedgerStore) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, name, phone, email, balance, discount_rate, created_at
        FROM users
        WHERE id = $1
    `, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.Email, &u.Balance, &u.DiscountRate, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("scan user row: %w", err)
	}
	return u, nil
}

func (s *LedgerStore) UpdateUser(ctx context.Context, id int64, upd UserUpdate) error {
	set := ""
	args := []interface{}{}
	add := func(col string, v interface{}) {
		if set != "" {
			set += ", "
		}
		args = append(args, v)
		set += fmt.Sprintf("%s = $%d", col, len(args))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.DiscountRate != nil {
		add("discount_rate", *upd.DiscountRate)
	}
	if set == "" {
		return nil
	}

	args = append(args, id)
	ct, err := s.db.Exec(ctx, fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", set, len(args)), args...)
	if err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes the user and cascades to its tags. Transaction rows
// are kept: the audit trail outlives the account.
func (s *LedgerStore) DeleteUser(ctx context.Context, id int64) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *LedgerStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, phone, email, balance, discount_rate, created_at
        FROM users
        ORDER BY name
    `)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Phone, &u.Email, &u.Balance, &u.DiscountRate, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ApplyDelta mutates the balance and appends exactly one transaction row in
// a single unit of work. The UPDATE takes a row lock on the user, so
// concurrent deltas for the same user serialize.
func (s *LedgerStore) ApplyDelta(ctx context.Context, userID int64, amount decimal.Decimal, txType, description string) (decimal.Decimal, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var newBalance decimal.Decimal
	err = tx.QueryRow(ctx, `
        UPDATE users
        SET balance = balance + $1
        WHERE id = $2
        RETURNING balance
    `, amount, userID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO transactions (user_id, amount, type, description)
        VALUES ($1, $2, $3, $4)
    `, userID, amount, txType, description)
	if err != nil {
		return decimal.Zero, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit tx: %w", err)
	}
	return newBalance, nil
}

func (s *LedgerStore) AddTag(ctx context.Context, userID int64, tag string) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO rfid_tags (user_id, rfid) VALUES ($1, $2)
    `, userID, tag)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTag
		}
		return fmt.Errorf("insert rfid tag: %w", err)
	}
	return nil
}

func (s *LedgerStore) RemoveTag(ctx context.Context, userID int64, tag string) error {
	ct, err := s.db.Exec(ctx, `
        DELETE FROM rfid_tags WHERE user_id = $1 AND rfid = $2
    `, userID, tag)
	if err != nil {
		return fmt.Errorf("delete rfid tag: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrTagNotFound
	}
	return nil
}

func (s *LedgerStore) TagsForUser(ctx context.Context, userID int64) ([]models.RFIDTag, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, user_id, rfid, created_at
        FROM rfid_tags
        WHERE user_id = $1
        ORDER BY created_at
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("select rfid tags: %w", err)
	}
	defer rows.Close()

	var tags []models.RFIDTag
	for rows.Next() {
		var t models.RFIDTag
		if err := rows.Scan(&t.ID, &t.UserID, &t.RFID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rfid row: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *LedgerStore) History(ctx context.Context, userID int64, limit int) ([]models.LedgerTransaction, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, user_id, amount, type, description, timestamp
        FROM transactions
        WHERE user_id = $1
        ORDER BY timestamp DESC, id DESC
        LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var history []models.LedgerTransaction
	for rows.Next() {
		var t models.LedgerTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		history = append(history, t)
	}
	return history, rows.Err()
}

// AuditedBalance recomputes the balance from the transaction rows. Derived
// read for audit display only; the users row stays the source of truth for
// authorization.
func (s *LedgerStore) AuditedBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.QueryRow(ctx, `
        SELECT COALESCE(SUM(amount), 0)
        FROM transactions
        WHERE user_id = $1
    `, userID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	return sum, nil
}

// WipeAll clears every ledger table and its id sequence in one transaction.
// Operator tooling only.
func (s *LedgerStore) WipeAll(ctx context.Context) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
        TRUNCATE transactions, rfid_tags, users RESTART IDENTITY CASCADE
    `); err != nil {
		return fmt.Errorf("truncate ledger tables: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
