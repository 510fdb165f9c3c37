package core

import "time"

const (
	SyncIdle    SyncStatus = "idle"
	SyncRunning SyncStatus = "syncing"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

type (
	SyncStatus string

	// SyncState is the observable status of the sync orchestrator.
	// LastSync is zero and Error empty until the first sync completes.
	SyncState struct {
		Status   SyncStatus
		LastSync time.Time
		Error    string
	}
)
