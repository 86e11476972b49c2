package domain

import "time"

// SyncStatus represents the current state of a sync run
type SyncStatus string

const (
	SyncStatusInProgress SyncStatus = "in_progress"
	SyncStatusCompleted  SyncStatus = "completed"
	SyncStatusFailed     SyncStatus = "failed"
)

// SyncKey identifies a sync run: one store over one window.
type SyncKey struct {
	Store     StoreID `json:"store_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

// NewSyncKey builds the progress key for a store and window.
func NewSyncKey(store StoreID, window DateWindow) SyncKey {
	return SyncKey{Store: store, StartDate: window.StartDate(), EndDate: window.EndDate()}
}

func (k SyncKey) String() string {
	return string(k.Store) + ":" + k.StartDate + ":" + k.EndDate
}

// SyncProgress tracks one sync key. It lives in process memory only.
type SyncProgress struct {
	Key         SyncKey    `json:"key"`
	Status      SyncStatus `json:"status"`
	SalesCount  int        `json:"sales_count"`
	Duplicates  int        `json:"duplicates"`
	Skipped     int        `json:"skipped"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SyncResult represents the outcome of a sync run
type SyncResult struct {
	Success    bool    `json:"success"`
	Store      StoreID `json:"store"`
	SalesCount int     `json:"sales_count"`
	Duplicates int     `json:"duplicates"`
	Skipped    int     `json:"skipped"`
	Pages      int     `json:"pages"`
	HasMore    bool    `json:"has_more"`
	Error      string  `json:"error,omitempty"`
	Duration   float64 `json:"duration_seconds"`

	// NotConfigured marks a failure caused by missing ERP credentials for the store.
	NotConfigured bool `json:"not_configured,omitempty"`
}
