package services

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// LocalStore is the on-device persistence port backing the tracker.
type LocalStore interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListRules(ctx context.Context) ([]core.RecurringRule, error)

	SaveTransaction(ctx context.Context, t core.Transaction) error
	SaveCategory(ctx context.Context, c core.Category) error
	SaveRule(ctx context.Context, r core.RecurringRule) error

	DeleteTransaction(ctx context.Context, id string) error
	DeleteCategory(ctx context.Context, id string) error
	DeleteRule(ctx context.Context, id string) error

	// ReplaceAll swaps the stored collections for the merged result of a
	// full sync in a single transaction.
	ReplaceAll(ctx context.Context, cols core.Collections) error

	UpdateRuleLastGenerated(ctx context.Context, ruleID string, at time.Time) error
}

// Publisher notifies other processes that a local collection changed.
// op is "upsert" or "delete".
type Publisher interface {
	PublishChange(ctx context.Context, collection, id, op string) error
}
