package points

import (
	"fmt"
	"time"
)

// Update is one player's computed point total for one gameweek, keyed by
// the on-chain player id.
type Update struct {
	Gameweek   int    `json:"gameweek"`
	InternalID uint64 `json:"internal_id"`
	Points     uint32 `json:"points"`
}

func (u Update) Validate() error {
	if u.Gameweek <= 0 {
		return fmt.Errorf("update gameweek must be greater than zero")
	}
	if u.InternalID == 0 {
		return fmt.Errorf("update internal id is required")
	}

	return nil
}

// SyncState is the reconciliation state for one gameweek.
type SyncState string

const (
	SyncStatePending   SyncState = "pending"
	SyncStateSyncing   SyncState = "syncing"
	SyncStateCompleted SyncState = "completed"
	SyncStateFailed    SyncState = "failed"
)

// SyncStatus tracks one gameweek's reconciliation run. It is advisory,
// held in memory only; after a restart the store reads re-derive progress.
type SyncStatus struct {
	Gameweek      int        `json:"gameweek"`
	State         SyncState  `json:"state"`
	PlayersSynced int        `json:"players_synced"`
	TotalPlayers  int        `json:"total_players"`
	Error         string     `json:"error,omitempty"`
	SyncedAt      *time.Time `json:"synced_at,omitempty"`
}
