package web

import (
	"net/http"
	"time"

	financestore "parish/internal/adapters/storage/finance"
	"parish/internal/application/orchestrators"
	"parish/internal/domain/audit"
)

// handlePayments handles GET /api/finance/payments (list) and POST (record).
func handlePayments(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case "GET":
		payments, err := stores.FinanceStore.ListPayments(ctx, financestore.PaymentFilter{
			MemberID: r.URL.Query().Get("member_id"),
			Fund:     r.URL.Query().Get("fund"),
			Start:    r.URL.Query().Get("start"),
			End:      r.URL.Query().Get("end"),
			Limit:    queryInt(r, "limit", 100, 500),
		})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payments)

	case "POST":
		var body struct {
			MemberID   string `json:"member_id"`
			Fund       string `json:"fund"`
			Amount     int64  `json:"amount"` // minor units
			Currency   string `json:"currency"`
			Method     string `json:"method"`
			Reference  string `json:"reference"`
			ReceivedAt string `json:"received_at"` // RFC3339, empty = now
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		var receivedAt time.Time
		if body.ReceivedAt != "" {
			var err error
			receivedAt, err = time.Parse(time.RFC3339, body.ReceivedAt)
			if err != nil {
				http.Error(w, "received_at must be RFC3339", http.StatusBadRequest)
				return
			}
		}

		payment, err := orchestrators.ExecuteRecordPayment(ctx, orchestrators.RecordPaymentInput{
			MemberID:   body.MemberID,
			Fund:       body.Fund,
			Amount:     body.Amount,
			Currency:   body.Currency,
			Method:     body.Method,
			Reference:  body.Reference,
			ReceivedAt: receivedAt,
			RecordedBy: sess.AccountID,
		}, orchestrators.RecordPaymentDeps{
			FinanceStore: stores.FinanceStore,
			MemberStore:  stores.MemberStore,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategoryFinance, audit.ActionCreate).
			WithResource("payment", payment.ID))
		writeJSON(w, http.StatusCreated, payment)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleExpenses handles POST /api/finance/expenses.
func handleExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	var body struct {
		Fund     string `json:"fund"`
		Amount   int64  `json:"amount"` // minor units
		Currency string `json:"currency"`
		Memo     string `json:"memo"`
		At       string `json:"at"` // RFC3339, empty = now
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	var at time.Time
	if body.At != "" {
		var err error
		at, err = time.Parse(time.RFC3339, body.At)
		if err != nil {
			http.Error(w, "at must be RFC3339", http.StatusBadRequest)
			return
		}
	}

	txn, err := orchestrators.ExecuteRecordExpense(r.Context(), orchestrators.RecordExpenseInput{
		Fund:     body.Fund,
		Amount:   body.Amount,
		Currency: body.Currency,
		Memo:     body.Memo,
		At:       at,
	}, orchestrators.RecordExpenseDeps{FinanceStore: stores.FinanceStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, auditActor(sess, audit.CategoryFinance, audit.ActionCreate).
		WithResource("transaction", txn.ID).WithDescription("expense recorded"))
	writeJSON(w, http.StatusCreated, txn)
}

// handleBudgets handles POST /api/finance/budgets (set a fund's budget) and
// GET (budget-versus-actual report).
func handleBudgets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		if _, ok := requireStaff(w, r); !ok {
			return
		}
		lines, err := orchestrators.ExecuteBudgetReport(ctx, orchestrators.BudgetReportInput{
			Fund: r.URL.Query().Get("fund"),
		}, orchestrators.BudgetReportDeps{FinanceStore: stores.FinanceStore})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, lines)

	case "POST":
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}
		var body struct {
			Fund        string `json:"fund"`
			PeriodStart string `json:"period_start"` // RFC3339
			PeriodEnd   string `json:"period_end"`   // RFC3339
			Amount      int64  `json:"amount"`       // minor units
			Currency    string `json:"currency"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		periodStart, err := time.Parse(time.RFC3339, body.PeriodStart)
		if err != nil {
			http.Error(w, "period_start must be RFC3339", http.StatusBadRequest)
			return
		}
		periodEnd, err := time.Parse(time.RFC3339, body.PeriodEnd)
		if err != nil {
			http.Error(w, "period_end must be RFC3339", http.StatusBadRequest)
			return
		}

		budget, err := orchestrators.ExecuteSetBudget(ctx, orchestrators.SetBudgetInput{
			Fund:        body.Fund,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			Amount:      body.Amount,
			Currency:    body.Currency,
		}, orchestrators.SetBudgetDeps{FinanceStore: stores.FinanceStore})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		recordAudit(r, auditActor(sess, audit.CategoryFinance, audit.ActionCreate).
			WithResource("budget", budget.ID))
		writeJSON(w, http.StatusCreated, budget)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
