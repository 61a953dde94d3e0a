package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/finance"
	"parish/internal/domain/member"

	"github.com/google/uuid"
)

// PaymentStore defines the finance store interface needed by the payment
// orchestrator.
type PaymentStore interface {
	SavePayment(ctx context.Context, p finance.Payment) error
	SaveTransaction(ctx context.Context, t finance.Transaction) error
}

// PaymentMemberStore defines the member store interface needed by the payment
// orchestrator.
type PaymentMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// RecordPaymentInput carries input for the payment orchestrator.
type RecordPaymentInput struct {
	MemberID   string
	Fund       string
	Amount     int64 // minor units
	Currency   string
	Method     string
	Reference  string
	ReceivedAt time.Time
	RecordedBy string // account ID of the operator
}

// RecordPaymentDeps holds dependencies for RecordPayment.
type RecordPaymentDeps struct {
	FinanceStore PaymentStore
	MemberStore  PaymentMemberStore
	Now          func() time.Time
}

// ExecuteRecordPayment records money received from a member and the matching
// inflow on the fund's ledger.
// PRE: Member exists; amount is positive; method is a known method
// POST: Payment and its ledger transaction persisted, linked by PaymentID
func ExecuteRecordPayment(ctx context.Context, input RecordPaymentInput, deps RecordPaymentDeps) (finance.Payment, error) {
	if _, err := deps.MemberStore.GetByID(ctx, input.MemberID); err != nil {
		return finance.Payment{}, errors.New("member not found")
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	receivedAt := input.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = now
	}

	p := finance.Payment{
		ID:         uuid.New().String(),
		MemberID:   input.MemberID,
		Fund:       input.Fund,
		Amount:     input.Amount,
		Currency:   input.Currency,
		Method:     input.Method,
		Reference:  input.Reference,
		ReceivedAt: receivedAt,
		RecordedBy: input.RecordedBy,
	}
	if err := p.Validate(); err != nil {
		return finance.Payment{}, err
	}

	t := finance.Transaction{
		ID:        uuid.New().String(),
		Fund:      p.Fund,
		Direction: finance.DirectionIn,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Memo:      paymentMemo(p),
		PaymentID: p.ID,
		At:        receivedAt,
	}
	if err := t.Validate(); err != nil {
		return finance.Payment{}, err
	}

	if err := deps.FinanceStore.SavePayment(ctx, p); err != nil {
		return finance.Payment{}, err
	}
	if err := deps.FinanceStore.SaveTransaction(ctx, t); err != nil {
		return finance.Payment{}, err
	}

	slog.Info("finance_event", "event", "payment_recorded", "payment_id", p.ID,
		"fund", p.Fund, "amount", p.Money().Display(), "method", p.Method)
	return p, nil
}

func paymentMemo(p finance.Payment) string {
	if p.Reference != "" {
		return p.Method + " payment " + p.Reference
	}
	return p.Method + " payment"
}

// RecordExpenseInput carries input for recording money going out of a fund.
type RecordExpenseInput struct {
	Fund     string
	Amount   int64 // minor units
	Currency string
	Memo     string
	At       time.Time
}

// RecordExpenseDeps holds dependencies for RecordExpense.
type RecordExpenseDeps struct {
	FinanceStore PaymentStore
	Now          func() time.Time
}

// ExecuteRecordExpense records an outflow on a fund's ledger. Expenses have no
// payment row; they exist only as transactions.
// PRE: Amount is positive
// POST: Outflow transaction persisted
func ExecuteRecordExpense(ctx context.Context, input RecordExpenseInput, deps RecordExpenseDeps) (finance.Transaction, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	at := input.At
	if at.IsZero() {
		at = now
	}

	t := finance.Transaction{
		ID:        uuid.New().String(),
		Fund:      input.Fund,
		Direction: finance.DirectionOut,
		Amount:    input.Amount,
		Currency:  input.Currency,
		Memo:      input.Memo,
		At:        at,
	}
	if err := t.Validate(); err != nil {
		return finance.Transaction{}, err
	}
	if err := deps.FinanceStore.SaveTransaction(ctx, t); err != nil {
		return finance.Transaction{}, err
	}

	slog.Info("finance_event", "event", "expense_recorded", "transaction_id", t.ID,
		"fund", t.Fund, "amount", t.Money().Display())
	return t, nil
}
