package domain

// SyncStatus tracks an item's position in the marketplace sync lifecycle.
type SyncStatus string

const (
	SyncStatusNotSynced SyncStatus = "not_synced"
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusSynced    SyncStatus = "synced"
	SyncStatusError     SyncStatus = "error"
)

// IsValid reports whether s is one of the known sync statuses.
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusNotSynced, SyncStatusPending, SyncStatusSynced, SyncStatusError:
		return true
	}
	return false
}
