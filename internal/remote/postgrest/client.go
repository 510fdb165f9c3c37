// Package postgrest implements the remote store against a PostgREST-style
// REST backend (e.g. a hosted Supabase project). Rows live in per-user
// tables with (id, user_id) uniqueness; conflict resolution on upsert is
// delegated to the backend via merge-duplicates.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	tableTransactions = "transactions"
	tableCategories   = "categories"
	tableRules        = "recurring_transactions"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a remote store client. baseURL is the project root
// (the /rest/v1 prefix is appended here); apiKey doubles as the bearer
// token, which is how service-role access works on these backends.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("remote store is not configured")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/rest/v1",
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) UpsertTransactions(ctx context.Context, userID string, txs []core.Transaction) error {
	rows := make([]transactionRow, len(txs))
	for i, t := range txs {
		rows[i] = transactionToRow(t, userID)
	}
	return c.upsert(ctx, tableTransactions, rows)
}

func (c *Client) UpsertCategories(ctx context.Context, userID string, cats []core.Category) error {
	rows := make([]categoryRow, len(cats))
	for i, cat := range cats {
		rows[i] = categoryToRow(cat, userID)
	}
	return c.upsert(ctx, tableCategories, rows)
}

func (c *Client) UpsertRules(ctx context.Context, userID string, rules []core.RecurringRule) error {
	rows := make([]ruleRow, len(rules))
	for i, r := range rules {
		rows[i] = ruleToRow(r, userID)
	}
	return c.upsert(ctx, tableRules, rows)
}

func (c *Client) SelectTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	var rows []transactionRow
	if err := c.selectRows(ctx, tableTransactions, userID, &rows); err != nil {
		return nil, err
	}
	txs := make([]core.Transaction, len(rows))
	for i, r := range rows {
		txs[i] = transactionFromRow(r)
	}
	return txs, nil
}

func (c *Client) SelectCategories(ctx context.Context, userID string) ([]core.Category, error) {
	var rows []categoryRow
	if err := c.selectRows(ctx, tableCategories, userID, &rows); err != nil {
		return nil, err
	}
	cats := make([]core.Category, len(rows))
	for i, r := range rows {
		cats[i] = categoryFromRow(r)
	}
	return cats, nil
}

func (c *Client) SelectRules(ctx context.Context, userID string) ([]core.RecurringRule, error) {
	var rows []ruleRow
	if err := c.selectRows(ctx, tableRules, userID, &rows); err != nil {
		return nil, err
	}
	rules := make([]core.RecurringRule, len(rows))
	for i, r := range rows {
		rules[i] = ruleFromRow(r)
	}
	return rules, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, userID, id string) error {
	return c.deleteRow(ctx, tableTransactions, userID, id)
}

func (c *Client) DeleteCategory(ctx context.Context, userID, id string) error {
	return c.deleteRow(ctx, tableCategories, userID, id)
}

func (c *Client) DeleteRule(ctx context.Context, userID, id string) error {
	return c.deleteRow(ctx, tableRules, userID, id)
}

func (c *Client) upsert(ctx context.Context, table string, rows any) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal %s rows: %w", table, err)
	}

	endpoint := fmt.Sprintf("%s/%s?on_conflict=%s", c.baseURL, table, url.QueryEscape("id,user_id"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	if err := c.do(req); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}

	slog.DebugContext(ctx, "Upserted remote rows", "table", table)
	return nil
}

func (c *Client) selectRows(ctx context.Context, table, userID string, out any) error {
	endpoint := fmt.Sprintf("%s/%s?select=*&user_id=eq.%s", c.baseURL, table, url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build select request: %w", err)
	}

	resp, err := c.send(req)
	if err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("select %s: %s", table, readError(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}
	return nil
}

func (c *Client) deleteRow(ctx context.Context, table, userID, id string) error {
	endpoint := fmt.Sprintf("%s/%s?id=eq.%s&user_id=eq.%s",
		c.baseURL, table, url.QueryEscape(id), url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}

	if err := c.do(req); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s", readError(resp))
	}
	return nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.http.Do(req)
}

func readError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, msg)
}
