package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RecurringProcessor materializes due recurring rules into stored
// transactions. It is driven on a timer by the recurring worker and once
// at tracker startup.
type RecurringProcessor struct {
	store  LocalStore
	engine *GenerationEngine
	sync   *SyncManager
	pub    Publisher
}

func NewRecurringProcessor(store LocalStore, engine *GenerationEngine, sync *SyncManager, pub Publisher) *RecurringProcessor {
	return &RecurringProcessor{store: store, engine: engine, sync: sync, pub: pub}
}

// ProcessDue evaluates every rule against now and commits whatever fired:
// the generated transactions plus the per-rule last-generated watermark.
// It returns the number of transactions created.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	rules, err := p.store.ListRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("load recurring rules: %w", err)
	}
	if len(rules) == 0 {
		return 0, nil
	}
	existing, err := p.store.ListTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}

	result, err := p.engine.Generate(rules, existing, now)
	if err != nil {
		return 0, fmt.Errorf("generate recurring transactions: %w", err)
	}
	if len(result.NewTransactions) == 0 {
		return 0, nil
	}

	for _, tx := range result.NewTransactions {
		if err := p.store.SaveTransaction(ctx, tx); err != nil {
			return 0, fmt.Errorf("save generated transaction: %w", err)
		}
		p.publish(ctx, CollectionTransactions, tx.ID)
	}
	for ruleID, at := range result.RuleUpdates {
		if err := p.store.UpdateRuleLastGenerated(ctx, ruleID, at); err != nil {
			return 0, fmt.Errorf("update rule %s: %w", ruleID, err)
		}
		p.publish(ctx, CollectionRules, ruleID)
	}

	p.sync.ScheduleUpload()
	slog.InfoContext(ctx, "Generated recurring transactions", "count", len(result.NewTransactions))
	return len(result.NewTransactions), nil
}

func (p *RecurringProcessor) publish(ctx context.Context, collection, id string) {
	if p.pub == nil {
		return
	}
	if err := p.pub.PublishChange(ctx, collection, id, OpUpsert); err != nil {
		slog.WarnContext(ctx, "Failed to publish change", "collection", collection, "id", id, "error", err)
	}
}
