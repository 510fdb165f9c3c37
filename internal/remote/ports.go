// Package remote defines the outbound port for the cloud backend that
// mirrors the local collections, plus its adapters.
package remote

import (
	"context"

	"fintrack/internal/core"
)

// Store is the per-user remote persistence port. Every operation is scoped
// by an opaque user identifier; upserts are keyed by (id, user) uniqueness.
type Store interface {
	UpsertTransactions(ctx context.Context, userID string, txs []core.Transaction) error
	UpsertCategories(ctx context.Context, userID string, cats []core.Category) error
	UpsertRules(ctx context.Context, userID string, rules []core.RecurringRule) error

	SelectTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	SelectCategories(ctx context.Context, userID string) ([]core.Category, error)
	SelectRules(ctx context.Context, userID string) ([]core.RecurringRule, error)

	DeleteTransaction(ctx context.Context, userID, id string) error
	DeleteCategory(ctx context.Context, userID, id string) error
	DeleteRule(ctx context.Context, userID, id string) error
}
