// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring-rule scheduling.
// Each frequency type (monthly, weekly, yearly, custom) has its own checker
// that decides whether the rule fires now and which calendar date the
// generated transaction carries.

package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Decision is the outcome of evaluating a rule against an instant.
// EffectiveDate is meaningful only when Fire is true.
type Decision struct {
	Fire          bool
	EffectiveDate core.Date
}

// FireChecker is the strategy interface for a single frequency type.
type FireChecker interface {
	// Check decides whether the rule fires at now. The rule's activity flag
	// and start/end window have already been checked by Evaluate.
	Check(rule core.RecurringRule, now time.Time) Decision
}

// Evaluate applies the shared preconditions and then dispatches to the
// frequency's checker. Inactive rules, rules whose start date is still in
// the future, and rules whose end date has passed never fire.
func Evaluate(rule core.RecurringRule, now time.Time) (Decision, error) {
	if !rule.IsActive {
		return Decision{}, nil
	}
	if rule.StartDate.After(now) {
		return Decision{}, nil
	}
	if !rule.EndDate.IsZero() && now.After(rule.EndDate.Time) {
		return Decision{}, nil
	}

	checker, err := GetFireChecker(rule.Frequency)
	if err != nil {
		return Decision{}, err
	}
	return checker.Check(rule, now), nil
}

// MonthlyChecker fires once per calendar month.
type MonthlyChecker struct{}

func (MonthlyChecker) Check(rule core.RecurringRule, now time.Time) Decision {
	last := rule.LastGenerated
	if !last.IsZero() && last.Year() == now.Year() && last.Month() == now.Month() {
		return Decision{}
	}
	day := clampDay(targetDay(rule))
	return Decision{
		Fire:          true,
		EffectiveDate: core.NewDate(now.Year(), int(now.Month()), day),
	}
}

// WeeklyChecker fires once at least 7 days have elapsed since the last fire.
// The effective date is now itself: the rule's DayOfWeek is never consulted,
// matching the long-standing behavior the rest of the system expects.
// TODO: decide whether weekly generation should snap to DayOfWeek; until
// then it only labels the rule in listings.
type WeeklyChecker struct{}

func (WeeklyChecker) Check(rule core.RecurringRule, now time.Time) Decision {
	last := rule.LastGenerated
	if !last.IsZero() && now.Sub(last) < 7*24*time.Hour {
		return Decision{}
	}
	return Decision{Fire: true, EffectiveDate: core.DateOf(now)}
}

// YearlyChecker fires once per calendar year, dated at the start date's
// month and day in the current year.
type YearlyChecker struct{}

func (YearlyChecker) Check(rule core.RecurringRule, now time.Time) Decision {
	last := rule.LastGenerated
	if !last.IsZero() && now.Year() <= last.Year() {
		return Decision{}
	}
	return Decision{
		Fire:          true,
		EffectiveDate: core.NewDate(now.Year(), rule.StartDate.Month(), rule.StartDate.Day()),
	}
}

// IntervalChecker fires every IntervalMonths calendar months. The first fire
// is dated inside the start month; afterwards the next scheduled month is
// the month of the last fire plus the interval, and the rule fires as soon
// as now reaches that month.
type IntervalChecker struct{}

func (IntervalChecker) Check(rule core.RecurringRule, now time.Time) Decision {
	day := clampDay(targetDay(rule))
	last := rule.LastGenerated

	if last.IsZero() {
		return Decision{
			Fire:          true,
			EffectiveDate: core.NewDate(rule.StartDate.Year(), rule.StartDate.Month(), day),
		}
	}

	dueYear, dueMonth := addMonths(last.Year(), int(last.Month()), rule.IntervalMonths)
	if now.Year() < dueYear || (now.Year() == dueYear && int(now.Month()) < dueMonth) {
		return Decision{}
	}
	return Decision{
		Fire:          true,
		EffectiveDate: core.NewDate(dueYear, dueMonth, day),
	}
}

func targetDay(rule core.RecurringRule) int {
	if rule.DayOfMonth > 0 {
		return rule.DayOfMonth
	}
	return rule.StartDate.Day()
}

func clampDay(day int) int {
	if day > core.MaxGenerationDay {
		return core.MaxGenerationDay
	}
	if day < 1 {
		return 1
	}
	return day
}

func addMonths(year, month, delta int) (int, int) {
	total := year*12 + (month - 1) + delta
	return total / 12, total%12 + 1
}

// fireStrategies maps frequency types to their checkers.
var fireStrategies = map[core.Frequency]FireChecker{
	core.Monthly: MonthlyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Yearly:  YearlyChecker{},
	core.Custom:  IntervalChecker{},
}

// GetFireChecker returns the checker for a frequency type.
func GetFireChecker(frequency core.Frequency) (FireChecker, error) {
	checker, ok := fireStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return checker, nil
}

// RegisterFireChecker registers a checker for a new frequency type,
// allowing extension without touching the dispatch table.
func RegisterFireChecker(frequency core.Frequency, checker FireChecker) {
	fireStrategies[frequency] = checker
}
