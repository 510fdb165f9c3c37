package services

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/core"
)

// fakeLocalStore is an in-memory LocalStore with injectable failures.
type fakeLocalStore struct {
	mu   sync.Mutex
	cols core.Collections

	listErr    error
	saveErr    error
	deleteErr  error
	replaceErr error

	listCalls    int
	replaceCalls int
}

func (f *fakeLocalStore) ListTransactions(context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Transaction(nil), f.cols.Transactions...), nil
}

func (f *fakeLocalStore) ListCategories(context.Context) ([]core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Category(nil), f.cols.Categories...), nil
}

func (f *fakeLocalStore) ListRules(context.Context) ([]core.RecurringRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.RecurringRule(nil), f.cols.Rules...), nil
}

func (f *fakeLocalStore) SaveTransaction(_ context.Context, t core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for i, existing := range f.cols.Transactions {
		if existing.ID == t.ID {
			f.cols.Transactions[i] = t
			return nil
		}
	}
	f.cols.Transactions = append(f.cols.Transactions, t)
	return nil
}

func (f *fakeLocalStore) SaveCategory(_ context.Context, c core.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for i, existing := range f.cols.Categories {
		if existing.ID == c.ID {
			f.cols.Categories[i] = c
			return nil
		}
	}
	f.cols.Categories = append(f.cols.Categories, c)
	return nil
}

func (f *fakeLocalStore) SaveRule(_ context.Context, r core.RecurringRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for i, existing := range f.cols.Rules {
		if existing.ID == r.ID {
			f.cols.Rules[i] = r
			return nil
		}
	}
	f.cols.Rules = append(f.cols.Rules, r)
	return nil
}

func (f *fakeLocalStore) DeleteTransaction(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, t := range f.cols.Transactions {
		if t.ID == id {
			f.cols.Transactions = append(f.cols.Transactions[:i], f.cols.Transactions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeLocalStore) DeleteCategory(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, c := range f.cols.Categories {
		if c.ID == id {
			f.cols.Categories = append(f.cols.Categories[:i], f.cols.Categories[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeLocalStore) DeleteRule(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, r := range f.cols.Rules {
		if r.ID == id {
			f.cols.Rules = append(f.cols.Rules[:i], f.cols.Rules[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeLocalStore) ReplaceAll(_ context.Context, cols core.Collections) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.cols = cols
	return nil
}

func (f *fakeLocalStore) UpdateRuleLastGenerated(_ context.Context, ruleID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.cols.Rules {
		if r.ID == ruleID {
			f.cols.Rules[i].LastGenerated = at
			return nil
		}
	}
	return nil
}

func (f *fakeLocalStore) snapshot() core.Collections {
	f.mu.Lock()
	defer f.mu.Unlock()
	return core.Collections{
		Transactions: append([]core.Transaction(nil), f.cols.Transactions...),
		Categories:   append([]core.Category(nil), f.cols.Categories...),
		Rules:        append([]core.RecurringRule(nil), f.cols.Rules...),
	}
}

type publishedChange struct {
	collection string
	id         string
	op         string
}

// fakePublisher records change notifications.
type fakePublisher struct {
	mu      sync.Mutex
	changes []publishedChange
	err     error
}

func (f *fakePublisher) PublishChange(_ context.Context, collection, id, op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, publishedChange{collection, id, op})
	return nil
}

func (f *fakePublisher) published() []publishedChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedChange(nil), f.changes...)
}
