package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/wyvernpos/pos-services/internal/possvc/models"
	"github.com/wyvernpos/pos-services/internal/possvc/store"
	"github.com/wyvernpos/pos-services/internal/saleslog"
)

// SalePublisher announces completed sales to downstream services. A nil
// publisher is allowed; the sale log stays authoritative either way.
type SalePublisher interface {
	PublishSaleCompleted(rec saleslog.SaleRecord)
}

// CheckoutService completes sales: for wallet payments the ledger debit
// happens before the sale block is appended, and a declined payment writes
// nothing.
type CheckoutService struct {
	ledger store.Ledger
	writer *saleslog.Writer
	pub    SalePublisher
	now    func() time.Time
}

func NewCheckoutService(ledger store.Ledger, writer *saleslog.Writer, pub SalePublisher) *CheckoutService {
	return &CheckoutService{ledger: ledger, writer: writer, pub: pub, now: time.Now}
}

func orderTotal(items []saleslog.Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}

// CompleteSale finishes a cash or card checkout: no ledger involvement,
// one sale block appended.
func (s *CheckoutService) CompleteSale(method string, items []saleslog.Item) (saleslog.SaleRecord, error) {
	if method != saleslog.MethodCash && method != saleslog.MethodCard {
		return saleslog.SaleRecord{}, errors.New("payment method must be cash or card")
	}
	if len(items) == 0 {
		return saleslog.SaleRecord{}, errors.New("order is empty")
	}

	rec := saleslog.SaleRecord{
		Timestamp:   s.now(),
		Method:      method,
		TotalAmount: orderTotal(items),
		Items:       items,
	}
	if err := s.writer.Append(rec); err != nil {
		return saleslog.SaleRecord{}, err
	}
	s.publish(rec)
	return rec, nil
}

// CompleteWalletSale runs the full authorization protocol for a tag. The
// returned authorizer state tells the operator why a declined attempt
// failed; a new attempt must be explicitly initiated.
func (s *CheckoutService) CompleteWalletSale(ctx context.Context, tag string, items []saleslog.Item) (models.Receipt, saleslog.SaleRecord, error) {
	if len(items) == 0 {
		return models.Receipt{}, saleslog.SaleRecord{}, errors.New("order is empty")
	}

	auth := NewPaymentAuthorizer(s.ledger)
	if err := auth.Present(ctx, tag); err != nil {
		return models.Receipt{}, saleslog.SaleRecord{}, err
	}
	if err := auth.Evaluate(orderTotal(items)); err != nil {
		return models.Receipt{}, saleslog.SaleRecord{}, err
	}
	receipt, err := auth.Settle(ctx, items)
	if err != nil {
		return models.Receipt{}, saleslog.SaleRecord{}, err
	}

	rec := saleslog.SaleRecord{
		Timestamp:      s.now(),
		Method:         saleslog.MethodWyvern,
		CardID:         tag,
		TotalAmount:    receipt.Total,
		DiscountAmount: receipt.DiscountAmount,
		Items:          items,
	}
	if err := s.writer.Append(rec); err != nil {
		// funds already moved; the ledger row is the audit trail
		log.Errorf("settled sale could not be appended to day log: %v", err)
		return receipt, saleslog.SaleRecord{}, err
	}
	s.publish(rec)
	return receipt, rec, nil
}

func (s *CheckoutService) publish(rec saleslog.SaleRecord) {
	if s.pub != nil {
		s.pub.PublishSaleCompleted(rec)
	}
}
