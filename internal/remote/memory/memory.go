// Package memory provides an in-process remote store used by tests and
// local development when no cloud backend is configured.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
)

type Store struct {
	mu           sync.Mutex
	transactions map[string]map[string]core.Transaction
	categories   map[string]map[string]core.Category
	rules        map[string]map[string]core.RecurringRule

	// Injectable failures for exercising error paths.
	UpsertErr error
	SelectErr error
	DeleteErr error
}

func NewStore() *Store {
	return &Store{
		transactions: make(map[string]map[string]core.Transaction),
		categories:   make(map[string]map[string]core.Category),
		rules:        make(map[string]map[string]core.RecurringRule),
	}
}

func (s *Store) UpsertTransactions(_ context.Context, userID string, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	bucket := s.transactions[userID]
	if bucket == nil {
		bucket = make(map[string]core.Transaction)
		s.transactions[userID] = bucket
	}
	for _, t := range txs {
		bucket[t.ID] = t
	}
	return nil
}

func (s *Store) UpsertCategories(_ context.Context, userID string, cats []core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	bucket := s.categories[userID]
	if bucket == nil {
		bucket = make(map[string]core.Category)
		s.categories[userID] = bucket
	}
	for _, c := range cats {
		bucket[c.ID] = c
	}
	return nil
}

func (s *Store) UpsertRules(_ context.Context, userID string, rules []core.RecurringRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	bucket := s.rules[userID]
	if bucket == nil {
		bucket = make(map[string]core.RecurringRule)
		s.rules[userID] = bucket
	}
	for _, r := range rules {
		bucket[r.ID] = r
	}
	return nil
}

func (s *Store) SelectTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SelectErr != nil {
		return nil, s.SelectErr
	}
	out := make([]core.Transaction, 0, len(s.transactions[userID]))
	for _, t := range s.transactions[userID] {
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) SelectCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SelectErr != nil {
		return nil, s.SelectErr
	}
	out := make([]core.Category, 0, len(s.categories[userID]))
	for _, c := range s.categories[userID] {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) SelectRules(_ context.Context, userID string) ([]core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SelectErr != nil {
		return nil, s.SelectErr
	}
	out := make([]core.RecurringRule, 0, len(s.rules[userID]))
	for _, r := range s.rules[userID] {
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.transactions[userID], id)
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.categories[userID], id)
	return nil
}

func (s *Store) DeleteRule(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.rules[userID], id)
	return nil
}
