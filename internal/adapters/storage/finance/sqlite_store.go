package finance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/finance"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const paymentColumns = "id, member_id, amount, currency, fund, method, reference, received_at, recorded_by"
const txnColumns = "id, fund, direction, amount, currency, memo, payment_id, occurred_at"
const budgetColumns = "id, fund, period_start, period_end, amount, currency"

// SQLiteStore implements the finance Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new finance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetPayment retrieves a Payment by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payment WHERE id = ?", id)
	p, err := scanPayment(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Payment{}, fmt.Errorf("payment not found: %w", err)
	}
	return p, err
}

// SavePayment persists a Payment.
// PRE: payment has been validated
// POST: Payment is persisted (insert or update)
func (s *SQLiteStore) SavePayment(ctx context.Context, p domain.Payment) error {
	var memberID interface{}
	if p.MemberID != "" {
		memberID = p.MemberID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payment (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   member_id=excluded.member_id, amount=excluded.amount, currency=excluded.currency,
		   fund=excluded.fund, method=excluded.method, reference=excluded.reference,
		   received_at=excluded.received_at`,
		p.ID, memberID, p.Amount, p.Currency, p.Fund, p.Method, p.Reference,
		p.ReceivedAt.Format(dateLayout), p.RecordedBy)
	return err
}

// ListPayments retrieves Payments based on the filter, newest first.
// PRE: filter has valid parameters
// POST: Returns matching payments
func (s *SQLiteStore) ListPayments(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payment WHERE 1=1"
	var args []any

	if filter.MemberID != "" {
		query += " AND member_id = ?"
		args = append(args, filter.MemberID)
	}
	if filter.Fund != "" {
		query += " AND fund = ?"
		args = append(args, filter.Fund)
	}
	if filter.Start != "" {
		query += " AND received_at >= ?"
		args = append(args, filter.Start)
	}
	if filter.End != "" {
		query += " AND received_at < ?"
		args = append(args, filter.End)
	}
	query += " ORDER BY received_at DESC LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// SaveTransaction persists a ledger Transaction.
// PRE: transaction has been validated
// POST: Transaction is persisted (insert or update)
func (s *SQLiteStore) SaveTransaction(ctx context.Context, t domain.Transaction) error {
	var paymentID interface{}
	if t.PaymentID != "" {
		paymentID = t.PaymentID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger_txn (`+txnColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   fund=excluded.fund, direction=excluded.direction, amount=excluded.amount,
		   currency=excluded.currency, memo=excluded.memo, occurred_at=excluded.occurred_at`,
		t.ID, t.Fund, t.Direction, t.Amount, t.Currency, t.Memo, paymentID,
		t.At.Format(dateLayout))
	return err
}

// ListTransactions returns a fund's ledger entries inside [start, end).
// PRE: fund is non-empty; empty start/end means unbounded
// POST: Returns transactions oldest first
func (s *SQLiteStore) ListTransactions(ctx context.Context, fund string, start, end string) ([]domain.Transaction, error) {
	query := "SELECT " + txnColumns + " FROM ledger_txn WHERE fund = ?"
	args := []any{fund}
	if start != "" {
		query += " AND occurred_at >= ?"
		args = append(args, start)
	}
	if end != "" {
		query += " AND occurred_at < ?"
		args = append(args, end)
	}
	query += " ORDER BY occurred_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var paymentID sql.NullString
		var occurredAt string
		if err := rows.Scan(&t.ID, &t.Fund, &t.Direction, &t.Amount, &t.Currency, &t.Memo, &paymentID, &occurredAt); err != nil {
			return nil, err
		}
		t.PaymentID = paymentID.String
		t.At, _ = time.Parse(dateLayout, occurredAt)
		results = append(results, t)
	}
	return results, rows.Err()
}

// GetBudget retrieves a Budget by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetBudget(ctx context.Context, id string) (domain.Budget, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+budgetColumns+" FROM budget WHERE id = ?", id)
	b, err := scanBudget(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Budget{}, fmt.Errorf("budget not found: %w", err)
	}
	return b, err
}

// SaveBudget persists a Budget.
// PRE: budget has been validated
// POST: Budget is persisted (insert or update)
func (s *SQLiteStore) SaveBudget(ctx context.Context, b domain.Budget) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budget (`+budgetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   fund=excluded.fund, period_start=excluded.period_start,
		   period_end=excluded.period_end, amount=excluded.amount, currency=excluded.currency`,
		b.ID, b.Fund, b.PeriodStart.Format(dateLayout), b.PeriodEnd.Format(dateLayout),
		b.Amount, b.Currency)
	return err
}

// ListBudgets returns budgets, optionally filtered by fund, newest first.
// PRE: none
// POST: Returns matching budgets
func (s *SQLiteStore) ListBudgets(ctx context.Context, fund string) ([]domain.Budget, error) {
	query := "SELECT " + budgetColumns + " FROM budget"
	var args []any
	if fund != "" {
		query += " WHERE fund = ?"
		args = append(args, fund)
	}
	query += " ORDER BY period_start DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

// scanPayment extracts a Payment from a row scanner function.
func scanPayment(scan func(dest ...interface{}) error) (domain.Payment, error) {
	var p domain.Payment
	var memberID sql.NullString
	var receivedAt string
	err := scan(&p.ID, &memberID, &p.Amount, &p.Currency, &p.Fund, &p.Method, &p.Reference, &receivedAt, &p.RecordedBy)
	if err != nil {
		return domain.Payment{}, err
	}
	p.MemberID = memberID.String
	p.ReceivedAt, _ = time.Parse(dateLayout, receivedAt)
	return p, nil
}

// scanBudget extracts a Budget from a row scanner function.
func scanBudget(scan func(dest ...interface{}) error) (domain.Budget, error) {
	var b domain.Budget
	var start, end string
	err := scan(&b.ID, &b.Fund, &start, &end, &b.Amount, &b.Currency)
	if err != nil {
		return domain.Budget{}, err
	}
	b.PeriodStart, _ = time.Parse(dateLayout, start)
	b.PeriodEnd, _ = time.Parse(dateLayout, end)
	return b, nil
}
