package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/wyvernpos/pos-services/internal/possvc/models"
	"github.com/wyvernpos/pos-services/internal/possvc/store"
	"github.com/wyvernpos/pos-services/internal/saleslog"
)

// Authorizer states. An authorizer handles exactly one checkout attempt;
// Completed and Declined are terminal.
type PaymentState string

const (
	StateIdle          PaymentState = "idle"
	StateCardPresented PaymentState = "card_presented"
	StateAuthorized    PaymentState = "authorized"
	StateCompleted     PaymentState = "completed"
	StateDeclined      PaymentState = "declined"
)

type DeclineReason string

const (
	DeclineCardNotRegistered   DeclineReason = "card_not_registered"
	DeclineInsufficientBalance DeclineReason = "insufficient_balance"
	DeclineLedgerError         DeclineReason = "ledger_error"
)

// ErrCardNotRegistered is surfaced when the presented tag has no user.
var ErrCardNotRegistered = errors.New("card is not registered")

// InsufficientBalanceError carries the current balance so the operator can
// tell the customer how short they are.
type InsufficientBalanceError struct {
	Balance decimal.Decimal
	Due     decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: R%s available, R%s due",
		e.Balance.StringFixed(2), e.Due.StringFixed(2))
}

// PaymentAuthorizer decides whether one wallet checkout succeeds. It moves
// Idle -> CardPresented -> Authorized -> Completed, or to Declined at any
// decision point. A declined or errored attempt never moves funds and is
// never retried automatically.
type PaymentAuthorizer struct {
	ledger store.Ledger

	state  PaymentState
	reason DeclineReason

	tag      string
	user     models.User
	total    decimal.Decimal
	discount decimal.Decimal
	due      decimal.Decimal
}

func NewPaymentAuthorizer(ledger store.Ledger) *PaymentAuthorizer {
	return &PaymentAuthorizer{ledger: ledger, state: StateIdle}
}

func (a *PaymentAuthorizer) State() PaymentState { return a.state }
func (a *PaymentAuthorizer) Reason() DeclineReason { return a.reason }
func (a *PaymentAuthorizer) User() models.User { return a.user }
func (a *PaymentAuthorizer) AmountDue() decimal.Decimal { return a.due }

func (a *PaymentAuthorizer) decline(reason DeclineReason) {
	a.state = StateDeclined
	a.reason = reason
}

// Present looks up the wallet behind the tag.
func (a *PaymentAuthorizer) Present(ctx context.Context, tag string) error {
	if a.state != StateIdle {
		return fmt.Errorf("present: authorizer is %s, not idle", a.state)
	}

	user, err := a.ledger.GetUserByTag(ctx, tag)
	if errors.Is(err, store.ErrUserNotFound) {
		a.decline(DeclineCardNotRegistered)
		log.Warnf("payment declined: tag %s not registered", tag)
		return ErrCardNotRegistered
	}
	if err != nil {
		a.decline(DeclineLedgerError)
		return fmt.Errorf("look up tag %s: %w", tag, err)
	}

	a.tag = tag
	a.user = user
	a.state = StateCardPresented
	return nil
}

// Evaluate applies the user's discount and checks the balance covers the
// amount due. balance == due authorizes.
func (a *PaymentAuthorizer) Evaluate(total decimal.Decimal) error {
	if a.state != StateCardPresented {
		return fmt.Errorf("evaluate: authorizer is %s, not card_presented", a.state)
	}

	a.total = total
	a.discount = total.Mul(a.user.DiscountRate).Div(hundred).Round(2)
	a.due = total.Sub(a.discount)

	if a.user.Balance.LessThan(a.due) {
		a.decline(DeclineInsufficientBalance)
		log.Warnf("payment declined: user %d balance R%s below due R%s",
			a.user.ID, a.user.Balance.StringFixed(2), a.due.StringFixed(2))
		return &InsufficientBalanceError{Balance: a.user.Balance, Due: a.due}
	}

	a.state = StateAuthorized
	return nil
}

// Settle debits the ledger. On success the checkout is Completed and the
// caller appends the sale block; on ledger failure nothing may be logged.
// At most one ApplyDelta call happens per attempt.
func (a *PaymentAuthorizer) Settle(ctx context.Context, items []saleslog.Item) (models.Receipt, error) {
	if a.state != StateAuthorized {
		return models.Receipt{}, fmt.Errorf("settle: authorizer is %s, not authorized", a.state)
	}

	newBalance, err := a.ledger.ApplyDelta(ctx, a.user.ID, a.due.Neg(),
		models.TxPurchase, purchaseDescription(a.tag, items))
	if err != nil {
		a.decline(DeclineLedgerError)
		return models.Receipt{}, fmt.Errorf("settle purchase for user %d: %w", a.user.ID, err)
	}

	a.state = StateCompleted
	return models.Receipt{
		Total:          a.total,
		DiscountRate:   a.user.DiscountRate,
		DiscountAmount: a.discount,
		AmountDue:      a.due,
		NewBalance:     newBalance,
	}, nil
}

func purchaseDescription(tag string, items []saleslog.Item) string {
	var b strings.Builder
	b.WriteString("Wyvern card purchase")
	b.WriteString("\nCard ID: " + tag)
	b.WriteString("\nOrder Summary:")
	for _, item := range items {
		fmt.Fprintf(&b, "\n%s - R%s", item.Name, item.Price.StringFixed(2))
	}
	return b.String()
}
