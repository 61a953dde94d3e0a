package orchestrators

import (
	"context"
	"errors"
	"time"

	"parish/internal/domain/finance"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

// BudgetStore defines the finance store interface needed by budget
// orchestrators.
type BudgetStore interface {
	GetBudget(ctx context.Context, id string) (finance.Budget, error)
	SaveBudget(ctx context.Context, b finance.Budget) error
	ListBudgets(ctx context.Context, fund string) ([]finance.Budget, error)
	ListTransactions(ctx context.Context, fund string, start, end string) ([]finance.Transaction, error)
}

// SetBudgetInput carries input for the budget orchestrator.
type SetBudgetInput struct {
	Fund        string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Amount      int64 // minor units
	Currency    string
}

// SetBudgetDeps holds dependencies for SetBudget.
type SetBudgetDeps struct {
	FinanceStore BudgetStore
}

// ExecuteSetBudget allocates an amount to a fund for a period. A budget whose
// period overlaps an existing one for the same fund is rejected.
// PRE: Amount is positive; period end is not before start
// POST: Budget persisted
func ExecuteSetBudget(ctx context.Context, input SetBudgetInput, deps SetBudgetDeps) (finance.Budget, error) {
	b := finance.Budget{
		ID:          uuid.New().String(),
		Fund:        input.Fund,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		Amount:      input.Amount,
		Currency:    input.Currency,
	}
	if err := b.Validate(); err != nil {
		return finance.Budget{}, err
	}

	existing, err := deps.FinanceStore.ListBudgets(ctx, input.Fund)
	if err != nil {
		return finance.Budget{}, err
	}
	for _, other := range existing {
		if b.Covers(other.PeriodStart) || b.Covers(other.PeriodEnd) || other.Covers(b.PeriodStart) {
			return finance.Budget{}, errors.New("budget period overlaps an existing budget for this fund")
		}
	}

	if err := deps.FinanceStore.SaveBudget(ctx, b); err != nil {
		return finance.Budget{}, err
	}
	return b, nil
}

// BudgetLine is one fund budget with its actual spend position.
type BudgetLine struct {
	Budget    finance.Budget
	Allocated *money.Money
	Actual    *money.Money // net of inflows and outflows over the period
	Remaining *money.Money
	Overspent bool
}

// BudgetReportInput carries input for the budget report orchestrator.
type BudgetReportInput struct {
	Fund string // empty reports every fund with a budget
}

// BudgetReportDeps holds dependencies for BudgetReport.
type BudgetReportDeps struct {
	FinanceStore BudgetStore
}

// ExecuteBudgetReport computes allocated, net actual, and remaining for each
// budget on a fund. A currency mismatch inside a fund's ledger fails that
// line rather than producing a silently wrong total.
// PRE: none
// POST: One line per budget, ordered as the store returns them
func ExecuteBudgetReport(ctx context.Context, input BudgetReportInput, deps BudgetReportDeps) ([]BudgetLine, error) {
	budgets, err := deps.FinanceStore.ListBudgets(ctx, input.Fund)
	if err != nil {
		return nil, err
	}

	lines := make([]BudgetLine, 0, len(budgets))
	for _, b := range budgets {
		// The ledger query's end bound is exclusive; the budget period is
		// inclusive of its endpoint.
		txns, err := deps.FinanceStore.ListTransactions(ctx, b.Fund,
			b.PeriodStart.Format(time.RFC3339),
			b.PeriodEnd.Add(time.Nanosecond).Format(time.RFC3339Nano))
		if err != nil {
			return nil, err
		}
		actual, err := finance.NetActual(b.Currency, txns)
		if err != nil {
			return nil, err
		}
		remaining, err := finance.Remaining(&b, txns)
		if err != nil {
			return nil, err
		}
		lines = append(lines, BudgetLine{
			Budget:    b,
			Allocated: b.Allocated(),
			Actual:    actual,
			Remaining: remaining,
			Overspent: remaining.IsNegative(),
		})
	}
	return lines, nil
}
