package central

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wyvernpos/pos-services/internal/saleslog"
)

// SaleRow is the central mirror of one sale block plus its terminal id.
// Rows are append-only and never updated after insert.
type SaleRow struct {
	TerminalID     string
	Timestamp      time.Time
	PaymentMethod  string
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.NullDecimal
	Items          []saleslog.Item
}

// RowFromRecord builds the central row for a parsed sale block.
func RowFromRecord(terminalID string, rec saleslog.SaleRecord) SaleRow {
	row := SaleRow{
		TerminalID:    terminalID,
		Timestamp:     rec.Timestamp,
		PaymentMethod: rec.MethodKey(),
		TotalAmount:   rec.TotalAmount,
		Items:         rec.Items,
	}
	if rec.HasDiscount() {
		row.DiscountAmount = decimal.NullDecimal{Decimal: rec.DiscountAmount, Valid: true}
	}
	return row
}

// Store is the central sale sink. UpsertSales applies one whole batch in a
// single unit of work: rows whose dedup key (terminal_id, timestamp,
// payment_method) already exists are skipped, the rest inserted. Any
// failure rolls the entire batch back.
type Store interface {
	UpsertSales(ctx context.Context, rows []SaleRow) (inserted int, err error)
}

// Ensure PGStore satisfies the Store interface at compile time.
var _ Store = (*PGStore)(nil)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Migrate creates the central sales table. The uniqueness constraint on the
// dedup key is the second line of defense against racing uploaders.
func (s *PGStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS sales (
            id BIGSERIAL PRIMARY KEY,
            terminal_id VARCHAR(50) NOT NULL,
            timestamp TIMESTAMPTZ NOT NULL,
            payment_method VARCHAR(50) NOT NULL,
            total_amount NUMERIC(10,2) NOT NULL,
            discount_amount NUMERIC(10,2),
            items JSONB NOT NULL,
            synced_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            UNIQUE (terminal_id, timestamp, payment_method)
        )
    `)
	if err != nil {
		return fmt.Errorf("apply central migrations: %w", err)
	}
	return nil
}

func (s *PGStore) UpsertSales(ctx context.Context, rows []SaleRow) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, row := range rows {
		var exists bool
		err := tx.QueryRow(ctx, `
            SELECT EXISTS(
                SELECT 1 FROM sales
                WHERE terminal_id = $1 AND timestamp = $2 AND payment_method = $3
            )
        `, row.TerminalID, row.Timestamp, row.PaymentMethod).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("dedup check: %w", err)
		}
		if exists {
			continue
		}

		items, err := json.Marshal(row.Items)
		if err != nil {
			return 0, fmt.Errorf("marshal items: %w", err)
		}

		_, err = tx.Exec(ctx, `
            INSERT INTO sales
                (terminal_id, timestamp, payment_method, total_amount, discount_amount, items)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, row.TerminalID, row.Timestamp, row.PaymentMethod,
			row.TotalAmount, row.DiscountAmount, items)
		if err != nil {
			return 0, fmt.Errorf("insert sale row: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}
