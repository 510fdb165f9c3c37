package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

// ErrNoUser is returned by sync operations that require a bound user.
var ErrNoUser = errors.New("no sync user bound")

// DefaultDebounce is the quiet window between a local change and the
// upload it triggers, so bursts of edits coalesce into one upload.
const DefaultDebounce = 2 * time.Second

// SyncManager coordinates the local store with the remote backend for a
// single bound user. Observers subscribe to its state and are replayed
// the current state immediately on subscription.
type SyncManager struct {
	local    LocalStore
	remote   remote.Store
	clock    core.Clock
	debounce time.Duration

	mu      sync.Mutex
	userID  string
	state   core.SyncState
	timer   *time.Timer
	subs    map[int]func(core.SyncState)
	nextSub int
}

func NewSyncManager(local LocalStore, rem remote.Store, clock core.Clock, debounce time.Duration) *SyncManager {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &SyncManager{
		local:    local,
		remote:   rem,
		clock:    clock,
		debounce: debounce,
		state:    core.SyncState{Status: core.SyncIdle},
		subs:     make(map[int]func(core.SyncState)),
	}
}

// Subscribe registers an observer and immediately replays the current
// state to it. The returned function removes the subscription.
func (m *SyncManager) Subscribe(fn func(core.SyncState)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	current := m.state
	m.mu.Unlock()

	fn(current)

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// State returns the current sync state.
func (m *SyncManager) State() core.SyncState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// BindUser attaches the manager to a user. Sync operations are inert
// until a user is bound.
func (m *SyncManager) BindUser(userID string) {
	m.mu.Lock()
	m.userID = userID
	m.mu.Unlock()
}

// ClearUser detaches the manager, cancels any pending upload and resets
// the state to idle.
func (m *SyncManager) ClearUser() {
	m.mu.Lock()
	m.userID = ""
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()
	m.setState(core.SyncState{Status: core.SyncIdle})
}

// FullSync downloads the remote collections, merges them with the local
// ones, persists the merged result locally and uploads it back. A failed
// upload leaves the merged local state in place; only the reported sync
// state reflects the failure.
func (m *SyncManager) FullSync(ctx context.Context) (core.Collections, error) {
	userID, ok := m.user()
	if !ok {
		return core.Collections{}, ErrNoUser
	}
	m.setStatus(core.SyncRunning, "")

	local, err := m.loadLocal(ctx)
	if err != nil {
		m.setStatus(core.SyncError, err.Error())
		return core.Collections{}, err
	}

	remoteCols, err := m.download(ctx, userID)
	if err != nil {
		m.setStatus(core.SyncError, err.Error())
		return core.Collections{}, err
	}

	merged := MergeCollections(local, remoteCols)

	if err := m.local.ReplaceAll(ctx, merged); err != nil {
		m.setStatus(core.SyncError, err.Error())
		return core.Collections{}, err
	}

	if err := m.uploadAll(ctx, userID, merged); err != nil {
		m.setStatus(core.SyncError, err.Error())
		return merged, err
	}

	m.markSuccess()
	slog.InfoContext(ctx, "Full sync completed",
		"transactions", len(merged.Transactions),
		"categories", len(merged.Categories),
		"rules", len(merged.Rules))
	return merged, nil
}

// ManualSync flushes any pending debounced upload and uploads the local
// collections immediately.
func (m *SyncManager) ManualSync(ctx context.Context) error {
	if _, ok := m.user(); !ok {
		return ErrNoUser
	}
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()
	return m.uploadNow(ctx)
}

// ScheduleUpload arms the debounced upload. Each call restarts the quiet
// window; only the last call in a burst results in an upload.
func (m *SyncManager) ScheduleUpload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userID == "" {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, func() {
		if err := m.uploadNow(context.Background()); err != nil {
			slog.Error("Debounced upload failed", "error", err)
		}
	})
}

// DeleteTransaction removes the transaction from the remote store. It is
// a no-op when no user is bound; the local delete is the caller's job.
func (m *SyncManager) DeleteTransaction(ctx context.Context, id string) error {
	userID, ok := m.user()
	if !ok {
		return nil
	}
	return m.remote.DeleteTransaction(ctx, userID, id)
}

func (m *SyncManager) DeleteCategory(ctx context.Context, id string) error {
	userID, ok := m.user()
	if !ok {
		return nil
	}
	return m.remote.DeleteCategory(ctx, userID, id)
}

func (m *SyncManager) DeleteRule(ctx context.Context, id string) error {
	userID, ok := m.user()
	if !ok {
		return nil
	}
	return m.remote.DeleteRule(ctx, userID, id)
}

func (m *SyncManager) uploadNow(ctx context.Context) error {
	userID, ok := m.user()
	if !ok {
		return nil
	}
	m.setStatus(core.SyncRunning, "")

	cols, err := m.loadLocal(ctx)
	if err != nil {
		m.setStatus(core.SyncError, err.Error())
		return err
	}
	if err := m.uploadAll(ctx, userID, cols); err != nil {
		m.setStatus(core.SyncError, err.Error())
		return err
	}
	m.markSuccess()
	return nil
}

// uploadAll pushes the collections in dependency order and stops at the
// first failure.
func (m *SyncManager) uploadAll(ctx context.Context, userID string, cols core.Collections) error {
	if err := m.remote.UpsertCategories(ctx, userID, cols.Categories); err != nil {
		return err
	}
	if err := m.remote.UpsertTransactions(ctx, userID, cols.Transactions); err != nil {
		return err
	}
	return m.remote.UpsertRules(ctx, userID, cols.Rules)
}

func (m *SyncManager) download(ctx context.Context, userID string) (core.Collections, error) {
	var cols core.Collections
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := m.remote.SelectTransactions(ctx, userID)
		cols.Transactions = txs
		return err
	})
	g.Go(func() error {
		cats, err := m.remote.SelectCategories(ctx, userID)
		cols.Categories = cats
		return err
	})
	g.Go(func() error {
		rules, err := m.remote.SelectRules(ctx, userID)
		cols.Rules = rules
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Collections{}, err
	}
	return cols, nil
}

func (m *SyncManager) loadLocal(ctx context.Context) (core.Collections, error) {
	var cols core.Collections
	var err error
	if cols.Transactions, err = m.local.ListTransactions(ctx); err != nil {
		return core.Collections{}, err
	}
	if cols.Categories, err = m.local.ListCategories(ctx); err != nil {
		return core.Collections{}, err
	}
	if cols.Rules, err = m.local.ListRules(ctx); err != nil {
		return core.Collections{}, err
	}
	return cols, nil
}

func (m *SyncManager) user() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID, m.userID != ""
}

func (m *SyncManager) setStatus(status core.SyncStatus, errMsg string) {
	m.mu.Lock()
	next := core.SyncState{Status: status, LastSync: m.state.LastSync, Error: errMsg}
	m.state = next
	subs := m.snapshotSubs()
	m.mu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
}

func (m *SyncManager) markSuccess() {
	m.mu.Lock()
	next := core.SyncState{Status: core.SyncSuccess, LastSync: m.clock.Now()}
	m.state = next
	subs := m.snapshotSubs()
	m.mu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
}

func (m *SyncManager) setState(next core.SyncState) {
	m.mu.Lock()
	m.state = next
	subs := m.snapshotSubs()
	m.mu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
}

// snapshotSubs must be called with mu held.
func (m *SyncManager) snapshotSubs() []func(core.SyncState) {
	subs := make([]func(core.SyncState), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}
