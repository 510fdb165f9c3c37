package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// FilterTransactions applies the filters to the listing. Zero-valued
// filter fields are ignored; date bounds are inclusive.
func FilterTransactions(txs []core.Transaction, f core.TransactionFilters) []core.Transaction {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if search != "" && !strings.Contains(strings.ToLower(tx.Description), search) {
			continue
		}
		if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if !f.StartDate.IsZero() && tx.Date.Before(f.StartDate.Time) {
			continue
		}
		if !f.EndDate.IsZero() && tx.Date.After(f.EndDate.Time) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Summarize totals income and expenses over the whole history and over
// the calendar month containing now.
func Summarize(txs []core.Transaction, now time.Time) core.FinancialSummary {
	var s core.FinancialSummary
	year, month := now.Year(), int(now.Month())
	for _, tx := range txs {
		inMonth := tx.Date.Year() == year && tx.Date.Month() == month
		switch tx.Type {
		case core.Income:
			s.TotalIncome.Cents += tx.Amount.Cents
			if inMonth {
				s.MonthlyIncome.Cents += tx.Amount.Cents
			}
		case core.Expense:
			s.TotalExpenses.Cents += tx.Amount.Cents
			if inMonth {
				s.MonthlyExpenses.Cents += tx.Amount.Cents
			}
		}
	}
	s.Balance = s.TotalIncome.Cents - s.TotalExpenses.Cents
	return s
}

const summaryKey = "summary"

// SummaryService serves the financial summary with a short-lived cache in
// front of the local store.
type SummaryService struct {
	store LocalStore
	clock core.Clock
	cache *cache.Cache[string, core.FinancialSummary]
}

func NewSummaryService(store LocalStore, clock core.Clock, ttl time.Duration) *SummaryService {
	return &SummaryService{
		store: store,
		clock: clock,
		cache: cache.New[string, core.FinancialSummary](ttl),
	}
}

func (s *SummaryService) Summary(ctx context.Context) (core.FinancialSummary, error) {
	if cached, ok := s.cache.Get(summaryKey); ok {
		return cached, nil
	}
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("load transactions for summary: %w", err)
	}
	summary := Summarize(txs, s.clock.Now())
	s.cache.Set(summaryKey, summary)
	return summary, nil
}

// Invalidate drops the cached summary; writers call it after a change.
func (s *SummaryService) Invalidate() {
	s.cache.Invalidate(summaryKey)
}
