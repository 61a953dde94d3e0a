package finance

import (
	"context"

	domain "parish/internal/domain/finance"
)

// Store persists Payment, Transaction, and Budget state.
type Store interface {
	GetPayment(ctx context.Context, id string) (domain.Payment, error)
	SavePayment(ctx context.Context, p domain.Payment) error
	ListPayments(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error)

	SaveTransaction(ctx context.Context, t domain.Transaction) error
	ListTransactions(ctx context.Context, fund string, start, end string) ([]domain.Transaction, error)

	GetBudget(ctx context.Context, id string) (domain.Budget, error)
	SaveBudget(ctx context.Context, b domain.Budget) error
	ListBudgets(ctx context.Context, fund string) ([]domain.Budget, error)
}

// PaymentFilter carries filtering parameters for ListPayments.
type PaymentFilter struct {
	Limit    int
	Offset   int
	MemberID string
	Fund     string
	Start    string // RFC3339, inclusive
	End      string // RFC3339, exclusive
}
