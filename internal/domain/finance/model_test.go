package finance_test

import (
	"testing"
	"time"

	"parish/internal/domain/finance"
)

var (
	periodStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
)

// TestPaymentValidation tests validation of Payment.
func TestPaymentValidation(t *testing.T) {
	valid := finance.Payment{
		ID:         "p1",
		MemberID:   "m1",
		Fund:       finance.FundGeneral,
		Amount:     2500,
		Currency:   "NZD",
		Method:     finance.MethodCash,
		ReceivedAt: periodStart,
	}

	tests := []struct {
		name    string
		mutate  func(*finance.Payment)
		wantErr bool
	}{
		{"valid", func(*finance.Payment) {}, false},
		{"no member", func(p *finance.Payment) { p.MemberID = "" }, true},
		{"no fund", func(p *finance.Payment) { p.Fund = " " }, true},
		{"zero amount", func(p *finance.Payment) { p.Amount = 0 }, true},
		{"negative amount", func(p *finance.Payment) { p.Amount = -100 }, true},
		{"no currency", func(p *finance.Payment) { p.Currency = "" }, true},
		{"bad method", func(p *finance.Payment) { p.Method = "barter" }, true},
		{"no received time", func(p *finance.Payment) { p.ReceivedAt = time.Time{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Payment.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestTransactionSigned tests direction-signed amounts.
func TestTransactionSigned(t *testing.T) {
	in := finance.Transaction{Fund: "general", Direction: finance.DirectionIn, Amount: 1000, Currency: "NZD", At: periodStart}
	out := finance.Transaction{Fund: "general", Direction: finance.DirectionOut, Amount: 400, Currency: "NZD", At: periodStart}

	if got := in.Signed().Amount(); got != 1000 {
		t.Errorf("inflow signed = %d, want 1000", got)
	}
	if got := out.Signed().Amount(); got != -400 {
		t.Errorf("outflow signed = %d, want -400", got)
	}
}

// TestBudgetRemaining tests remaining-after-activity in exact minor units,
// and rejection of mixed currencies.
func TestBudgetRemaining(t *testing.T) {
	b := finance.Budget{
		ID:          "b1",
		Fund:        finance.FundMissions,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Amount:      100_000,
		Currency:    "NZD",
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Budget.Validate(): %v", err)
	}

	txns := []finance.Transaction{
		{Fund: "missions", Direction: finance.DirectionIn, Amount: 5_000, Currency: "NZD", At: periodStart},
		{Fund: "missions", Direction: finance.DirectionOut, Amount: 30_000, Currency: "NZD", At: periodStart},
	}
	remaining, err := finance.Remaining(&b, txns)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	// allocated 100000 + (5000 - 30000) = 75000
	if got := remaining.Amount(); got != 75_000 {
		t.Errorf("remaining = %d, want 75000", got)
	}

	mixed := append(txns, finance.Transaction{
		Fund: "missions", Direction: finance.DirectionIn, Amount: 100, Currency: "USD", At: periodStart,
	})
	if _, err := finance.Remaining(&b, mixed); err != finance.ErrCurrencyMismatch {
		t.Errorf("mixed currencies error = %v, want ErrCurrencyMismatch", err)
	}
}

// TestBudgetCovers tests period containment, inclusive of endpoints.
func TestBudgetCovers(t *testing.T) {
	b := finance.Budget{Fund: "general", PeriodStart: periodStart, PeriodEnd: periodEnd, Amount: 1, Currency: "NZD"}
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"period start", periodStart, true},
		{"period end", periodEnd, true},
		{"inside", periodStart.AddDate(0, 6, 0), true},
		{"before", periodStart.Add(-time.Hour), false},
		{"after", periodEnd.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Covers(tt.at); got != tt.want {
				t.Errorf("Covers(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}
