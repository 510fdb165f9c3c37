package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func summaryFixture() []core.Transaction {
	return []core.Transaction{
		{ID: "t1", Description: "Salary", Amount: core.Money{Cents: 250000}, Type: core.Income, Date: core.NewDate(2024, 6, 1)},
		{ID: "t2", Description: "Rent", Amount: core.Money{Cents: 95000}, Type: core.Expense, Date: core.NewDate(2024, 6, 3)},
		{ID: "t3", Description: "Groceries", Amount: core.Money{Cents: 12050}, Type: core.Expense, Date: core.NewDate(2024, 5, 20)},
		{ID: "t4", Description: "Freelance", Amount: core.Money{Cents: 40000}, Type: core.Income, Date: core.NewDate(2024, 4, 10)},
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	s := Summarize(summaryFixture(), now)

	if s.TotalIncome.Cents != 290000 {
		t.Errorf("TotalIncome = %d, want 290000", s.TotalIncome.Cents)
	}
	if s.TotalExpenses.Cents != 107050 {
		t.Errorf("TotalExpenses = %d, want 107050", s.TotalExpenses.Cents)
	}
	if s.Balance != 182950 {
		t.Errorf("Balance = %d, want 182950", s.Balance)
	}
	if s.MonthlyIncome.Cents != 250000 {
		t.Errorf("MonthlyIncome = %d, want 250000", s.MonthlyIncome.Cents)
	}
	if s.MonthlyExpenses.Cents != 95000 {
		t.Errorf("MonthlyExpenses = %d, want 95000", s.MonthlyExpenses.Cents)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, time.Now())
	if s.Balance != 0 || s.TotalIncome.Cents != 0 || s.TotalExpenses.Cents != 0 {
		t.Errorf("non-zero summary for no transactions: %+v", s)
	}
}

func TestFilterTransactions(t *testing.T) {
	txs := summaryFixture()

	tests := []struct {
		name    string
		filters core.TransactionFilters
		wantIDs []string
	}{
		{"no filters", core.TransactionFilters{}, []string{"t1", "t2", "t3", "t4"}},
		{"search is case insensitive", core.TransactionFilters{Search: "rEnT"}, []string{"t2"}},
		{"search matches substring", core.TransactionFilters{Search: "e"}, []string{"t2", "t3", "t4"}},
		{"by type", core.TransactionFilters{Type: core.Income}, []string{"t1", "t4"}},
		{"start date inclusive", core.TransactionFilters{StartDate: core.NewDate(2024, 5, 20)}, []string{"t1", "t2", "t3"}},
		{"end date inclusive", core.TransactionFilters{EndDate: core.NewDate(2024, 5, 20)}, []string{"t3", "t4"}},
		{"date range", core.TransactionFilters{StartDate: core.NewDate(2024, 6, 1), EndDate: core.NewDate(2024, 6, 2)}, []string{"t1"}},
		{"combined", core.TransactionFilters{Type: core.Expense, Search: "groc"}, []string{"t3"}},
		{"no match", core.TransactionFilters{Search: "vacation"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTransactions(txs, tt.filters)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d transactions, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("result[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestFilterByCategory(t *testing.T) {
	txs := []core.Transaction{
		{ID: "t1", Description: "Coffee", CategoryID: "cat-food"},
		{ID: "t2", Description: "Bus", CategoryID: "cat-transport"},
	}
	got := FilterTransactions(txs, core.TransactionFilters{CategoryID: "cat-food"})
	if len(got) != 1 || got[0].ID != "t1" {
		t.Errorf("category filter returned %v", got)
	}
}

func TestSummaryServiceCaches(t *testing.T) {
	store := &fakeLocalStore{cols: core.Collections{Transactions: summaryFixture()}}
	clock := &core.FixedClock{Instant: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
	svc := NewSummaryService(store, clock, time.Minute)

	first, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if first.TotalIncome.Cents != 290000 {
		t.Errorf("TotalIncome = %d, want 290000", first.TotalIncome.Cents)
	}

	// A second call inside the TTL must not hit the store.
	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	store.mu.Lock()
	calls := store.listCalls
	store.mu.Unlock()
	if calls != 1 {
		t.Errorf("store hit %d times, want 1", calls)
	}

	svc.Invalidate()
	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	store.mu.Lock()
	calls = store.listCalls
	store.mu.Unlock()
	if calls != 2 {
		t.Errorf("store hit %d times after invalidation, want 2", calls)
	}
}
