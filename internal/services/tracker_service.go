package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Collection names used in change notifications.
const (
	CollectionTransactions = "transactions"
	CollectionCategories   = "categories"
	CollectionRules        = "recurring_rules"
)

// Change operations.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// Tracker implements the transaction, category and rule operations of the
// finance tracker. Writes go to the local store first; change
// notifications and the debounced upload are best-effort side effects.
type Tracker struct {
	store LocalStore
	sync  *SyncManager
	pub   Publisher
	clock core.Clock
	newID func() string
}

func NewTracker(store LocalStore, sync *SyncManager, pub Publisher, clock core.Clock) *Tracker {
	return &Tracker{
		store: store,
		sync:  sync,
		pub:   pub,
		clock: clock,
		newID: uuid.NewString,
	}
}

func (t *Tracker) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("invalid transaction: %w", err)
	}
	now := t.clock.Now()
	if tx.ID == "" {
		tx.ID = t.newID()
	}
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if err := t.store.SaveTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	t.changed(ctx, CollectionTransactions, tx.ID, OpUpsert)
	return tx, nil
}

func (t *Tracker) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		return core.Transaction{}, fmt.Errorf("update transaction: missing id")
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("invalid transaction: %w", err)
	}
	tx.UpdatedAt = t.clock.Now()

	if err := t.store.SaveTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	t.changed(ctx, CollectionTransactions, tx.ID, OpUpsert)
	return tx, nil
}

// DeleteTransaction removes the transaction remotely first, then locally.
// A remote failure is logged and does not block the local delete; the
// next full sync reconciles the leftover row.
func (t *Tracker) DeleteTransaction(ctx context.Context, id string) error {
	if err := t.sync.DeleteTransaction(ctx, id); err != nil {
		slog.WarnContext(ctx, "Remote transaction delete failed", "id", id, "error", err)
	}
	if err := t.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	t.changed(ctx, CollectionTransactions, id, OpDelete)
	return nil
}

func (t *Tracker) ListTransactions(ctx context.Context, filters core.TransactionFilters) ([]core.Transaction, error) {
	txs, err := t.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return FilterTransactions(txs, filters), nil
}

func (t *Tracker) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("invalid category: %w", err)
	}
	if c.ID == "" {
		c.ID = t.newID()
	}
	if err := t.store.SaveCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	t.changed(ctx, CollectionCategories, c.ID, OpUpsert)
	return c, nil
}

func (t *Tracker) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == "" {
		return core.Category{}, fmt.Errorf("update category: missing id")
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("invalid category: %w", err)
	}
	if err := t.store.SaveCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	t.changed(ctx, CollectionCategories, c.ID, OpUpsert)
	return c, nil
}

func (t *Tracker) DeleteCategory(ctx context.Context, id string) error {
	if err := t.sync.DeleteCategory(ctx, id); err != nil {
		slog.WarnContext(ctx, "Remote category delete failed", "id", id, "error", err)
	}
	if err := t.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	t.changed(ctx, CollectionCategories, id, OpDelete)
	return nil
}

func (t *Tracker) ListCategories(ctx context.Context) ([]core.Category, error) {
	cats, err := t.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (t *Tracker) AddRule(ctx context.Context, r core.RecurringRule) (core.RecurringRule, error) {
	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, fmt.Errorf("invalid recurring rule: %w", err)
	}
	now := t.clock.Now()
	if r.ID == "" {
		r.ID = t.newID()
	}
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := t.store.SaveRule(ctx, r); err != nil {
		return core.RecurringRule{}, fmt.Errorf("save recurring rule: %w", err)
	}
	t.changed(ctx, CollectionRules, r.ID, OpUpsert)
	return r, nil
}

func (t *Tracker) UpdateRule(ctx context.Context, r core.RecurringRule) (core.RecurringRule, error) {
	if r.ID == "" {
		return core.RecurringRule{}, fmt.Errorf("update recurring rule: missing id")
	}
	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, fmt.Errorf("invalid recurring rule: %w", err)
	}
	r.UpdatedAt = t.clock.Now()

	if err := t.store.SaveRule(ctx, r); err != nil {
		return core.RecurringRule{}, fmt.Errorf("save recurring rule: %w", err)
	}
	t.changed(ctx, CollectionRules, r.ID, OpUpsert)
	return r, nil
}

func (t *Tracker) DeleteRule(ctx context.Context, id string) error {
	if err := t.sync.DeleteRule(ctx, id); err != nil {
		slog.WarnContext(ctx, "Remote rule delete failed", "id", id, "error", err)
	}
	if err := t.store.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("delete recurring rule: %w", err)
	}
	t.changed(ctx, CollectionRules, id, OpDelete)
	return nil
}

func (t *Tracker) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	rules, err := t.store.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	return rules, nil
}

// changed fans out a local write: the change message for other processes
// and the debounced upload. Both are best-effort.
func (t *Tracker) changed(ctx context.Context, collection, id, op string) {
	if t.pub != nil {
		if err := t.pub.PublishChange(ctx, collection, id, op); err != nil {
			slog.WarnContext(ctx, "Failed to publish change", "collection", collection, "id", id, "error", err)
		}
	}
	t.sync.ScheduleUpload()
}
