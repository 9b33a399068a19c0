package model

// SyncStatus reports the outbox's replay state to the UI
type SyncStatus string

const (
	// SyncIdle means no drain is running and no outcome is being shown
	SyncIdle SyncStatus = "idle"
	// Syncing means a drain pass is in progress
	Syncing SyncStatus = "syncing"
	// Synced means the last drain replayed everything it attempted
	Synced SyncStatus = "synced"
	// SyncFailed means at least one replay failed in the last drain,
	// whether retained for retry or permanently dropped
	SyncFailed SyncStatus = "failed"
)

// DeviceLimitEvent is emitted when sign-in is suspended by admission
// control. Carries the device list so the UI can offer removal.
type DeviceLimitEvent struct {
	Devices []DeviceRecord
	Limit   int
}
