package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// RecurringMarker is the suffix appended to the description of every
// transaction materialized from a recurring rule.
const RecurringMarker = " (Recurring)"

// GenerationResult carries everything a single generation run produced.
// Nothing is persisted here; the caller commits both parts.
type GenerationResult struct {
	NewTransactions []core.Transaction

	// RuleUpdates maps rule ID to the instant generation fired. This is the
	// evaluation instant, not the effective date of the transaction.
	RuleUpdates map[string]time.Time
}

// GenerationEngine materializes transactions from recurring rules.
// It is pure: inputs are never mutated and nothing is stored.
type GenerationEngine struct {
	newID func() string
}

func NewGenerationEngine() *GenerationEngine {
	return &GenerationEngine{newID: uuid.NewString}
}

// Generate evaluates every rule against now and returns the transactions
// that are due plus the lastGenerated stamps for the rules that fired.
//
// A rule produces at most one transaction per calendar month of its
// effective date: candidates whose (rule, period) pair already exists in
// existing, or was produced earlier in the same run, are discarded. The
// existing check is a linear scan since the transaction store exposes no
// query capability beyond full iteration.
func (g *GenerationEngine) Generate(rules []core.RecurringRule, existing []core.Transaction, now time.Time) (GenerationResult, error) {
	result := GenerationResult{
		RuleUpdates: make(map[string]time.Time),
	}
	produced := make(map[string]struct{})

	for _, rule := range rules {
		decision, err := Evaluate(rule, now)
		if err != nil {
			return GenerationResult{}, fmt.Errorf("evaluate rule %s: %w", rule.ID, err)
		}
		if !decision.Fire {
			continue
		}

		periodKey := decision.EffectiveDate.PeriodKey()
		if alreadyGenerated(existing, rule.ID, periodKey) {
			slog.Debug("Skipping duplicate generation",
				"rule_id", rule.ID,
				"period", periodKey)
			continue
		}
		if _, ok := produced[rule.ID+"/"+periodKey]; ok {
			continue
		}
		produced[rule.ID+"/"+periodKey] = struct{}{}

		result.NewTransactions = append(result.NewTransactions, core.Transaction{
			ID:          g.newID(),
			Description: rule.Description + RecurringMarker,
			Amount:      rule.Amount,
			CategoryID:  rule.CategoryID,
			Date:        decision.EffectiveDate,
			Type:        rule.Type,
			RuleID:      rule.ID,
			PeriodKey:   periodKey,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		result.RuleUpdates[rule.ID] = now
	}

	return result, nil
}

func alreadyGenerated(existing []core.Transaction, ruleID, periodKey string) bool {
	for _, t := range existing {
		if t.RuleID == ruleID && t.PeriodKey == periodKey {
			return true
		}
	}
	return false
}
