package services

import (
	"fintrack/internal/core"
)

// Merge reconciles two versions of a collection with last-write-wins
// semantics keyed by identity. An entry from remote replaces the local one
// only when its timestamp is strictly greater; equal timestamps keep the
// local copy. Timestamps are RFC3339 strings, so lexicographic comparison
// is chronological comparison. Inputs are never mutated.
//
// Local entries keep their relative order and remote-only entries are
// appended in remote order, though callers must not rely on ordering.
func Merge[T any](local, remote []T, id func(T) string, ts func(T) string) []T {
	type slot struct {
		index     int
		timestamp string
	}

	merged := make([]T, len(local))
	copy(merged, local)

	slots := make(map[string]slot, len(local))
	for i, item := range local {
		slots[id(item)] = slot{index: i, timestamp: ts(item)}
	}

	for _, item := range remote {
		key := id(item)
		existing, ok := slots[key]
		if !ok {
			slots[key] = slot{index: len(merged), timestamp: ts(item)}
			merged = append(merged, item)
			continue
		}
		if ts(item) > existing.timestamp {
			merged[existing.index] = item
			slots[key] = slot{index: existing.index, timestamp: ts(item)}
		}
	}

	return merged
}

// MergeCollections reconciles the three entity sets at once. Transactions
// and rules resolve by updatedAt; categories carry no ordering signal, so
// the local copy always wins and only remote-only entries are added.
func MergeCollections(local, remote core.Collections) core.Collections {
	return core.Collections{
		Transactions: Merge(local.Transactions, remote.Transactions,
			func(t core.Transaction) string { return t.ID },
			func(t core.Transaction) string { return core.Timestamp(t.UpdatedAt) },
		),
		Categories: Merge(local.Categories, remote.Categories,
			func(c core.Category) string { return c.ID },
			func(core.Category) string { return "" },
		),
		Rules: Merge(local.Rules, remote.Rules,
			func(r core.RecurringRule) string { return r.ID },
			func(r core.RecurringRule) string { return core.Timestamp(r.UpdatedAt) },
		),
	}
}
