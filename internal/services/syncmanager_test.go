package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/remote/memory"
)

func newTestManager(local *fakeLocalStore, store *memory.Store, debounce time.Duration) *SyncManager {
	clock := &core.FixedClock{Instant: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewSyncManager(local, store, clock, debounce)
}

func TestFullSyncRequiresBoundUser(t *testing.T) {
	m := newTestManager(&fakeLocalStore{}, memory.NewStore(), time.Second)

	_, err := m.FullSync(context.Background())
	if !errors.Is(err, ErrNoUser) {
		t.Fatalf("expected ErrNoUser, got %v", err)
	}
	if got := m.State().Status; got != core.SyncIdle {
		t.Errorf("state changed to %q for unbound sync", got)
	}
}

func TestFullSyncMergesBothDirections(t *testing.T) {
	localTx := core.Transaction{ID: "local-1", Description: "Coffee", UpdatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	remoteTx := core.Transaction{ID: "remote-1", Description: "Rent", UpdatedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)}

	local := &fakeLocalStore{cols: core.Collections{Transactions: []core.Transaction{localTx}}}
	store := memory.NewStore()
	if err := store.UpsertTransactions(context.Background(), "u1", []core.Transaction{remoteTx}); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(local, store, time.Second)
	m.BindUser("u1")

	merged, err := m.FullSync(context.Background())
	if err != nil {
		t.Fatalf("FullSync: %v", err)
	}
	if len(merged.Transactions) != 2 {
		t.Fatalf("expected 2 merged transactions, got %d", len(merged.Transactions))
	}

	// Merged result persisted locally.
	if got := local.snapshot().Transactions; len(got) != 2 {
		t.Errorf("local store has %d transactions after sync, want 2", len(got))
	}
	// Local-only row uploaded.
	uploaded, err := store.SelectTransactions(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(uploaded) != 2 {
		t.Errorf("remote store has %d transactions after sync, want 2", len(uploaded))
	}

	state := m.State()
	if state.Status != core.SyncSuccess {
		t.Errorf("status = %q, want %q", state.Status, core.SyncSuccess)
	}
	if state.LastSync.IsZero() {
		t.Error("LastSync not set after successful sync")
	}
}

func TestFullSyncUploadFailureKeepsMergedLocal(t *testing.T) {
	remoteTx := core.Transaction{ID: "remote-1", Description: "Rent"}
	store := memory.NewStore()
	if err := store.UpsertTransactions(context.Background(), "u1", []core.Transaction{remoteTx}); err != nil {
		t.Fatal(err)
	}
	store.UpsertErr = errors.New("backend unavailable")

	local := &fakeLocalStore{}
	m := newTestManager(local, store, time.Second)
	m.BindUser("u1")

	merged, err := m.FullSync(context.Background())
	if err == nil {
		t.Fatal("expected upload error")
	}
	if len(merged.Transactions) != 1 {
		t.Errorf("merged result not returned on upload failure")
	}
	// The failed upload must not roll back the merged local state.
	if got := local.snapshot().Transactions; len(got) != 1 {
		t.Errorf("local store has %d transactions, want 1", len(got))
	}
	state := m.State()
	if state.Status != core.SyncError {
		t.Errorf("status = %q, want %q", state.Status, core.SyncError)
	}
	if state.Error == "" {
		t.Error("error state carries no message")
	}
}

func TestFullSyncDownloadFailure(t *testing.T) {
	store := memory.NewStore()
	store.SelectErr = errors.New("network down")

	m := newTestManager(&fakeLocalStore{}, store, time.Second)
	m.BindUser("u1")

	if _, err := m.FullSync(context.Background()); err == nil {
		t.Fatal("expected download error")
	}
	if got := m.State().Status; got != core.SyncError {
		t.Errorf("status = %q, want %q", got, core.SyncError)
	}
}

func TestSubscribeReplaysAndNotifies(t *testing.T) {
	m := newTestManager(&fakeLocalStore{}, memory.NewStore(), time.Second)

	var seen []core.SyncStatus
	unsubscribe := m.Subscribe(func(s core.SyncState) {
		seen = append(seen, s.Status)
	})

	if len(seen) != 1 || seen[0] != core.SyncIdle {
		t.Fatalf("expected immediate idle replay, got %v", seen)
	}

	m.BindUser("u1")
	if err := m.ManualSync(context.Background()); err != nil {
		t.Fatalf("ManualSync: %v", err)
	}
	// syncing then success.
	if len(seen) != 3 || seen[1] != core.SyncRunning || seen[2] != core.SyncSuccess {
		t.Fatalf("observed statuses %v", seen)
	}

	unsubscribe()
	m.ClearUser()
	if len(seen) != 3 {
		t.Errorf("unsubscribed observer still notified: %v", seen)
	}
}

func TestManualSyncRequiresBoundUser(t *testing.T) {
	m := newTestManager(&fakeLocalStore{}, memory.NewStore(), time.Second)
	if err := m.ManualSync(context.Background()); !errors.Is(err, ErrNoUser) {
		t.Fatalf("expected ErrNoUser, got %v", err)
	}
	if got := m.State().Status; got != core.SyncIdle {
		t.Errorf("state changed to %q for unbound manual sync", got)
	}
}

func TestScheduleUploadDebounces(t *testing.T) {
	local := &fakeLocalStore{cols: core.Collections{
		Transactions: []core.Transaction{{ID: "t1", Description: "Coffee"}},
	}}
	store := memory.NewStore()
	m := newTestManager(local, store, 40*time.Millisecond)
	m.BindUser("u1")

	// A burst of schedules coalesces into a single upload.
	m.ScheduleUpload()
	time.Sleep(10 * time.Millisecond)
	m.ScheduleUpload()
	time.Sleep(10 * time.Millisecond)
	m.ScheduleUpload()

	time.Sleep(120 * time.Millisecond)

	uploaded, err := store.SelectTransactions(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(uploaded) != 1 {
		t.Fatalf("expected uploaded transaction, got %d", len(uploaded))
	}

	local.mu.Lock()
	calls := local.listCalls
	local.mu.Unlock()
	if calls != 1 {
		t.Errorf("burst of schedules triggered %d uploads, want 1", calls)
	}
}

func TestClearUserCancelsPendingUpload(t *testing.T) {
	local := &fakeLocalStore{cols: core.Collections{
		Transactions: []core.Transaction{{ID: "t1"}},
	}}
	store := memory.NewStore()
	m := newTestManager(local, store, 30*time.Millisecond)
	m.BindUser("u1")

	m.ScheduleUpload()
	m.ClearUser()

	time.Sleep(100 * time.Millisecond)

	uploaded, err := store.SelectTransactions(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(uploaded) != 0 {
		t.Errorf("cancelled upload still ran, %d rows uploaded", len(uploaded))
	}
	if got := m.State().Status; got != core.SyncIdle {
		t.Errorf("status = %q after ClearUser, want %q", got, core.SyncIdle)
	}
}

func TestRemoteDeletesAreNoOpWhenUnbound(t *testing.T) {
	store := memory.NewStore()
	m := newTestManager(&fakeLocalStore{}, store, time.Second)

	if err := m.DeleteTransaction(context.Background(), "t1"); err != nil {
		t.Errorf("unbound DeleteTransaction: %v", err)
	}
	if err := m.DeleteCategory(context.Background(), "c1"); err != nil {
		t.Errorf("unbound DeleteCategory: %v", err)
	}
	if err := m.DeleteRule(context.Background(), "r1"); err != nil {
		t.Errorf("unbound DeleteRule: %v", err)
	}
}

func TestRemoteDeleteRemovesRow(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	if err := store.UpsertTransactions(ctx, "u1", []core.Transaction{{ID: "t1"}}); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(&fakeLocalStore{}, store, time.Second)
	m.BindUser("u1")

	if err := m.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	rows, err := store.SelectTransactions(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("transaction still present remotely after delete")
	}
}
