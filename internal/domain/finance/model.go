package finance

import (
	"errors"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
)

// Payment method constants.
const (
	MethodCash     = "cash"
	MethodCard     = "card"
	MethodTransfer = "transfer"
	MethodOnline   = "online"
)

// Transaction direction constants.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Well-known funds. Funds are free-form strings; these are the seeded ones.
const (
	FundGeneral     = "general"
	FundMissions    = "missions"
	FundBuilding    = "building"
	FundBenevolence = "benevolence"
)

// Domain errors
var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrCurrencyMismatch  = errors.New("amounts are in different currencies")
	ErrEmptyFund         = errors.New("fund is required")
)

// Payment is money received from (or on behalf of) a member: an offering,
// pledge payment, or event fee. Amounts are integer minor units.
type Payment struct {
	ID         string
	MemberID   string
	Fund       string
	Amount     int64
	Currency   string
	Method     string
	Reference  string
	ReceivedAt time.Time
	RecordedBy string
}

// Transaction is one ledger entry against a fund.
type Transaction struct {
	ID        string
	Fund      string
	Direction string
	Amount    int64
	Currency  string
	Memo      string
	PaymentID string
	At        time.Time
}

// Budget allocates an amount to a fund for a period (inclusive dates).
type Budget struct {
	ID          string
	Fund        string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Amount      int64
	Currency    string
}

// Validate checks if the Payment has valid data.
// PRE: Payment struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (p *Payment) Validate() error {
	if p.MemberID == "" {
		return errors.New("payment must be associated with a member")
	}
	if strings.TrimSpace(p.Fund) == "" {
		return ErrEmptyFund
	}
	if p.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if p.Currency == "" {
		return errors.New("payment currency is required")
	}
	switch p.Method {
	case MethodCash, MethodCard, MethodTransfer, MethodOnline:
	default:
		return errors.New("method must be 'cash', 'card', 'transfer', or 'online'")
	}
	if p.ReceivedAt.IsZero() {
		return errors.New("received time must be set")
	}
	return nil
}

// Money returns the payment amount as a money value.
// INVARIANT: Payment is not mutated
func (p *Payment) Money() *money.Money {
	return money.New(p.Amount, p.Currency)
}

// Validate checks if the Transaction has valid data.
// PRE: Transaction struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Fund) == "" {
		return ErrEmptyFund
	}
	if t.Direction != DirectionIn && t.Direction != DirectionOut {
		return errors.New("direction must be 'in' or 'out'")
	}
	if t.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if t.Currency == "" {
		return errors.New("transaction currency is required")
	}
	if t.At.IsZero() {
		return errors.New("transaction time must be set")
	}
	return nil
}

// Money returns the transaction amount as a money value.
// INVARIANT: Transaction is not mutated
func (t *Transaction) Money() *money.Money {
	return money.New(t.Amount, t.Currency)
}

// Signed returns the amount signed by direction: inflows positive, outflows
// negative.
// INVARIANT: Transaction is not mutated
func (t *Transaction) Signed() *money.Money {
	if t.Direction == DirectionOut {
		return money.New(-t.Amount, t.Currency)
	}
	return money.New(t.Amount, t.Currency)
}

// Validate checks if the Budget has valid data.
// PRE: Budget struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (b *Budget) Validate() error {
	if strings.TrimSpace(b.Fund) == "" {
		return ErrEmptyFund
	}
	if b.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if b.Currency == "" {
		return errors.New("budget currency is required")
	}
	if b.PeriodStart.IsZero() || b.PeriodEnd.IsZero() {
		return errors.New("budget period must be set")
	}
	if b.PeriodEnd.Before(b.PeriodStart) {
		return errors.New("budget period end cannot be before start")
	}
	return nil
}

// Allocated returns the budgeted amount as a money value.
// INVARIANT: Budget is not mutated
func (b *Budget) Allocated() *money.Money {
	return money.New(b.Amount, b.Currency)
}

// Covers returns true if the instant falls inside the budget period
// (inclusive of both endpoints).
// INVARIANT: Budget is not mutated
func (b *Budget) Covers(at time.Time) bool {
	return !at.Before(b.PeriodStart) && !at.After(b.PeriodEnd)
}

// NetActual sums signed transaction amounts. All transactions must share one
// currency; a mismatch is an error rather than a silent wrong answer.
func NetActual(currencyCode string, txns []Transaction) (*money.Money, error) {
	total := money.New(0, currencyCode)
	for i := range txns {
		next, err := total.Add(txns[i].Signed())
		if err != nil {
			return nil, ErrCurrencyMismatch
		}
		total = next
	}
	return total, nil
}

// Remaining computes what is left of a budget after the period's activity:
// outflows reduce it, inflows restore it. Negative means overspent.
func Remaining(b *Budget, txns []Transaction) (*money.Money, error) {
	actual, err := NetActual(b.Currency, txns)
	if err != nil {
		return nil, err
	}
	remaining, err := b.Allocated().Add(actual)
	if err != nil {
		return nil, ErrCurrencyMismatch
	}
	return remaining, nil
}
