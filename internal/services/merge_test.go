package services

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func tx(id string, updated time.Time, description string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: description,
		Amount:      core.Money{Cents: 100},
		Date:        core.NewDate(2024, 1, 1),
		Type:        core.Expense,
		UpdatedAt:   updated,
	}
}

func txByID(t *testing.T, items []core.Transaction, id string) core.Transaction {
	t.Helper()
	for _, item := range items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("transaction %q not found", id)
	return core.Transaction{}
}

func TestMerge_Idempotent(t *testing.T) {
	local := []core.Transaction{
		tx("t1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "a"),
		tx("t2", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "b"),
	}

	merged := Merge(local, local,
		func(t core.Transaction) string { return t.ID },
		func(t core.Transaction) string { return core.Timestamp(t.UpdatedAt) },
	)

	if len(merged) != len(local) {
		t.Fatalf("merge(X, X) has %d items, want %d", len(merged), len(local))
	}
	for _, want := range local {
		got := txByID(t, merged, want.ID)
		if got.Description != want.Description {
			t.Errorf("item %s changed on self-merge", want.ID)
		}
	}
}

func TestMerge_LastWriteWins(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		localTime  time.Time
		remoteTime time.Time
		want       string // winning description
	}{
		{"remote newer wins", older, newer, "remote"},
		{"local newer wins", newer, older, "local"},
		{"equal timestamps keep local", older, older, "local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := []core.Transaction{tx("t1", tt.localTime, "local")}
			remote := []core.Transaction{tx("t1", tt.remoteTime, "remote")}

			merged := Merge(local, remote,
				func(t core.Transaction) string { return t.ID },
				func(t core.Transaction) string { return core.Timestamp(t.UpdatedAt) },
			)

			if len(merged) != 1 {
				t.Fatalf("got %d items, want 1", len(merged))
			}
			if merged[0].Description != tt.want {
				t.Errorf("winner = %q, want %q", merged[0].Description, tt.want)
			}
		})
	}
}

func TestMerge_DisjointIdentities(t *testing.T) {
	local := []core.Transaction{tx("t1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "local-only")}
	remote := []core.Transaction{tx("t2", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "remote-only")}

	merged := Merge(local, remote,
		func(t core.Transaction) string { return t.ID },
		func(t core.Transaction) string { return core.Timestamp(t.UpdatedAt) },
	)

	if len(merged) != 2 {
		t.Fatalf("got %d items, want 2", len(merged))
	}
	txByID(t, merged, "t1")
	txByID(t, merged, "t2")
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	local := []core.Transaction{tx("t1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "local")}
	remote := []core.Transaction{tx("t1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "remote")}

	_ = Merge(local, remote,
		func(t core.Transaction) string { return t.ID },
		func(t core.Transaction) string { return core.Timestamp(t.UpdatedAt) },
	)

	if local[0].Description != "local" {
		t.Error("local input was mutated")
	}
}

func TestMergeCollections_CategoriesKeepLocal(t *testing.T) {
	local := core.Collections{
		Categories: []core.Category{
			{ID: "c1", Name: "Groceries", Color: "#EF4444"},
		},
	}
	remote := core.Collections{
		Categories: []core.Category{
			{ID: "c1", Name: "Renamed remotely", Color: "#000000"},
			{ID: "c2", Name: "Remote only"},
		},
	}

	merged := MergeCollections(local, remote)

	if len(merged.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(merged.Categories))
	}
	for _, c := range merged.Categories {
		switch c.ID {
		case "c1":
			if c.Name != "Groceries" {
				t.Errorf("local category lost conflict: %q", c.Name)
			}
		case "c2":
			if c.Name != "Remote only" {
				t.Errorf("remote-only category missing: %q", c.Name)
			}
		}
	}
}

func TestMergeCollections_TransactionScenario(t *testing.T) {
	// Local t1 from January merged against the remote copy updated in June
	// yields the remote version.
	local := core.Collections{
		Transactions: []core.Transaction{tx("t1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "local")},
	}
	remote := core.Collections{
		Transactions: []core.Transaction{tx("t1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "remote")},
	}

	merged := MergeCollections(local, remote)
	got := txByID(t, merged.Transactions, "t1")
	if got.Description != "remote" {
		t.Errorf("winner = %q, want remote", got.Description)
	}
}

func TestMergeCollections_RulesByUpdatedAt(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	localRule := monthlyRule()
	localRule.UpdatedAt = older
	localRule.Description = "local"

	remoteRule := monthlyRule()
	remoteRule.UpdatedAt = newer
	remoteRule.Description = "remote"

	merged := MergeCollections(
		core.Collections{Rules: []core.RecurringRule{localRule}},
		core.Collections{Rules: []core.RecurringRule{remoteRule}},
	)

	if len(merged.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(merged.Rules))
	}
	if merged.Rules[0].Description != "remote" {
		t.Errorf("winner = %q, want remote", merged.Rules[0].Description)
	}
}
