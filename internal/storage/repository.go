// Package storage persists the tracker collections in a local SQLite
// database. Dates travel as yyyy-mm-dd strings and instants as RFC3339
// UTC strings, matching the formats used on the sync wire.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = `id, description, amount_cents, category_id, date, type, rule_id, period_key, created_at, updated_at`

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) SaveTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			amount_cents = excluded.amount_cents,
			category_id = excluded.category_id,
			date = excluded.date,
			type = excluded.type,
			rule_id = excluded.rule_id,
			period_key = excluded.period_key,
			updated_at = excluded.updated_at`,
		t.ID, t.Description, t.Amount.Cents, t.CategoryID, t.Date.String(), string(t.Type),
		t.RuleID, t.PeriodKey, core.Timestamp(t.CreatedAt), core.Timestamp(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save transaction %s: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color, icon FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *SQLiteRepository) SaveCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, color, icon)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			icon = excluded.icon`,
		c.ID, c.Name, c.Color, c.Icon)
	if err != nil {
		return fmt.Errorf("save category %s: %w", c.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

const ruleColumns = `id, description, amount_cents, category_id, type, frequency, start_date, end_date, day_of_month, day_of_week, interval_months, is_active, last_generated, created_at, updated_at`

func (r *SQLiteRepository) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM recurring_rules ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	defer rows.Close()

	var rules []core.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *SQLiteRepository) SaveRule(ctx context.Context, rule core.RecurringRule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			amount_cents = excluded.amount_cents,
			category_id = excluded.category_id,
			type = excluded.type,
			frequency = excluded.frequency,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			day_of_month = excluded.day_of_month,
			day_of_week = excluded.day_of_week,
			interval_months = excluded.interval_months,
			is_active = excluded.is_active,
			last_generated = excluded.last_generated,
			updated_at = excluded.updated_at`,
		rule.ID, rule.Description, rule.Amount.Cents, rule.CategoryID, string(rule.Type),
		string(rule.Frequency), rule.StartDate.String(), dateString(rule.EndDate),
		rule.DayOfMonth, rule.DayOfWeek, rule.IntervalMonths, boolInt(rule.IsActive),
		core.Timestamp(rule.LastGenerated), core.Timestamp(rule.CreatedAt), core.Timestamp(rule.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save recurring rule %s: %w", rule.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete recurring rule %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateRuleLastGenerated(ctx context.Context, ruleID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules SET last_generated = ?, updated_at = ? WHERE id = ?`,
		core.Timestamp(at), core.Timestamp(at), ruleID)
	if err != nil {
		return fmt.Errorf("update rule %s last generated: %w", ruleID, err)
	}
	return nil
}

// ReplaceAll swaps the stored collections for a merged sync result. The
// whole swap runs in one transaction so a failure leaves the previous
// state intact.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, cols core.Collections) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "categories", "recurring_rules"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, t := range cols.Transactions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Description, t.Amount.Cents, t.CategoryID, t.Date.String(), string(t.Type),
			t.RuleID, t.PeriodKey, core.Timestamp(t.CreatedAt), core.Timestamp(t.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	for _, c := range cols.Categories {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, color, icon) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, c.Color, c.Icon)
		if err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}
	for _, rule := range cols.Rules {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recurring_rules (`+ruleColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rule.ID, rule.Description, rule.Amount.Cents, rule.CategoryID, string(rule.Type),
			string(rule.Frequency), rule.StartDate.String(), dateString(rule.EndDate),
			rule.DayOfMonth, rule.DayOfWeek, rule.IntervalMonths, boolInt(rule.IsActive),
			core.Timestamp(rule.LastGenerated), core.Timestamp(rule.CreatedAt), core.Timestamp(rule.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert recurring rule %s: %w", rule.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var t core.Transaction
	var date, txType, createdAt, updatedAt string
	err := rows.Scan(&t.ID, &t.Description, &t.Amount.Cents, &t.CategoryID, &date, &txType,
		&t.RuleID, &t.PeriodKey, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(txType)
	if t.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.CreatedAt = parseInstant(createdAt)
	t.UpdatedAt = parseInstant(updatedAt)
	return t, nil
}

func scanRule(rows *sql.Rows) (core.RecurringRule, error) {
	var r core.RecurringRule
	var ruleType, frequency, startDate, endDate, lastGenerated, createdAt, updatedAt string
	var isActive int
	err := rows.Scan(&r.ID, &r.Description, &r.Amount.Cents, &r.CategoryID, &ruleType,
		&frequency, &startDate, &endDate, &r.DayOfMonth, &r.DayOfWeek, &r.IntervalMonths,
		&isActive, &lastGenerated, &createdAt, &updatedAt)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("scan recurring rule: %w", err)
	}
	r.Type = core.TransactionType(ruleType)
	r.Frequency = core.Frequency(frequency)
	if r.StartDate, err = parseDate(startDate); err != nil {
		return core.RecurringRule{}, fmt.Errorf("recurring rule %s: %w", r.ID, err)
	}
	if r.EndDate, err = parseDate(endDate); err != nil {
		return core.RecurringRule{}, fmt.Errorf("recurring rule %s: %w", r.ID, err)
	}
	r.IsActive = isActive != 0
	r.LastGenerated = parseInstant(lastGenerated)
	r.CreatedAt = parseInstant(createdAt)
	r.UpdatedAt = parseInstant(updatedAt)
	return r, nil
}

func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func parseInstant(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func dateString(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
