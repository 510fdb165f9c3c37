package postgrest

import (
	"time"

	"fintrack/internal/core"
)

// Wire rows use the backend's flattened snake_case schema; the in-memory
// model is camel-cased. This file owns the translation in both directions.

type transactionRow struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	CategoryID  string  `json:"category_id"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	RuleID      string  `json:"rule_id,omitempty"`
	PeriodKey   string  `json:"period_key,omitempty"`
	UserID      string  `json:"user_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type categoryRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
	UserID string `json:"user_id"`
}

type ruleRow struct {
	ID             string  `json:"id"`
	Description    string  `json:"description"`
	Amount         float64 `json:"amount"`
	CategoryID     string  `json:"category_id"`
	Type           string  `json:"type"`
	Frequency      string  `json:"frequency"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date"`
	DayOfMonth     *int    `json:"day_of_month"`
	DayOfWeek      *int    `json:"day_of_week"`
	IntervalMonths *int    `json:"interval_months"`
	IsActive       bool    `json:"is_active"`
	LastGenerated  *string `json:"last_generated"`
	UserID         string  `json:"user_id"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func transactionToRow(t core.Transaction, userID string) transactionRow {
	return transactionRow{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount.Units(),
		CategoryID:  t.CategoryID,
		Date:        t.Date.String(),
		Type:        string(t.Type),
		RuleID:      t.RuleID,
		PeriodKey:   t.PeriodKey,
		UserID:      userID,
		CreatedAt:   core.Timestamp(t.CreatedAt),
		UpdatedAt:   core.Timestamp(t.UpdatedAt),
	}
}

func transactionFromRow(r transactionRow) core.Transaction {
	date, _ := core.ParseDate(r.Date)
	return core.Transaction{
		ID:          r.ID,
		Description: r.Description,
		Amount:      core.MoneyFromFloat(r.Amount),
		CategoryID:  r.CategoryID,
		Date:        date,
		Type:        core.TransactionType(r.Type),
		RuleID:      r.RuleID,
		PeriodKey:   r.PeriodKey,
		CreatedAt:   parseTimestamp(r.CreatedAt),
		UpdatedAt:   parseTimestamp(r.UpdatedAt),
	}
}

func categoryToRow(c core.Category, userID string) categoryRow {
	return categoryRow{
		ID:     c.ID,
		Name:   c.Name,
		Color:  c.Color,
		Icon:   c.Icon,
		UserID: userID,
	}
}

func categoryFromRow(r categoryRow) core.Category {
	return core.Category{
		ID:    r.ID,
		Name:  r.Name,
		Color: r.Color,
		Icon:  r.Icon,
	}
}

func ruleToRow(rule core.RecurringRule, userID string) ruleRow {
	row := ruleRow{
		ID:          rule.ID,
		Description: rule.Description,
		Amount:      rule.Amount.Units(),
		CategoryID:  rule.CategoryID,
		Type:        string(rule.Type),
		Frequency:   string(rule.Frequency),
		StartDate:   rule.StartDate.String(),
		IsActive:    rule.IsActive,
		UserID:      userID,
		CreatedAt:   core.Timestamp(rule.CreatedAt),
		UpdatedAt:   core.Timestamp(rule.UpdatedAt),
	}
	if !rule.EndDate.IsZero() {
		end := rule.EndDate.String()
		row.EndDate = &end
	}
	if rule.DayOfMonth > 0 {
		day := rule.DayOfMonth
		row.DayOfMonth = &day
	}
	if rule.DayOfWeek >= 0 {
		day := rule.DayOfWeek
		row.DayOfWeek = &day
	}
	if rule.IntervalMonths > 0 {
		months := rule.IntervalMonths
		row.IntervalMonths = &months
	}
	if !rule.LastGenerated.IsZero() {
		last := core.Timestamp(rule.LastGenerated)
		row.LastGenerated = &last
	}
	return row
}

func ruleFromRow(r ruleRow) core.RecurringRule {
	start, _ := core.ParseDate(r.StartDate)
	rule := core.RecurringRule{
		ID:          r.ID,
		Description: r.Description,
		Amount:      core.MoneyFromFloat(r.Amount),
		CategoryID:  r.CategoryID,
		Type:        core.TransactionType(r.Type),
		Frequency:   core.Frequency(r.Frequency),
		StartDate:   start,
		DayOfWeek:   -1,
		IsActive:    r.IsActive,
		CreatedAt:   parseTimestamp(r.CreatedAt),
		UpdatedAt:   parseTimestamp(r.UpdatedAt),
	}
	if r.EndDate != nil && *r.EndDate != "" {
		end, _ := core.ParseDate(*r.EndDate)
		rule.EndDate = end
	}
	if r.DayOfMonth != nil {
		rule.DayOfMonth = *r.DayOfMonth
	}
	if r.DayOfWeek != nil {
		rule.DayOfWeek = *r.DayOfWeek
	}
	if r.IntervalMonths != nil {
		rule.IntervalMonths = *r.IntervalMonths
	}
	if r.LastGenerated != nil && *r.LastGenerated != "" {
		rule.LastGenerated = parseTimestamp(*r.LastGenerated)
	}
	return rule
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
