package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeSyncStore syncs one store over an explicit window
	TaskTypeSyncStore TaskType = "sync_store"
	// TaskTypeSyncAll syncs every store over an explicit window
	TaskTypeSyncAll TaskType = "sync_all"
	// TaskTypeSyncToday syncs every store for the current day
	TaskTypeSyncToday TaskType = "sync_today"
	// TaskTypeSyncCurrentMonth syncs every store over the current calendar month
	TaskTypeSyncCurrentMonth TaskType = "sync_current_month"
	// TaskTypeSyncFullHistory re-imports every store from the history epoch
	TaskTypeSyncFullHistory TaskType = "sync_full_history"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background job to be processed by workers
type Task struct {
	ID   string   `json:"id"`
	Type TaskType `json:"type"`

	// Payload contains task-specific data
	// For sync_store: {"store_id": "saron1", "start_date": "...", "end_date": "..."}
	// For sync_all: {"start_date": "...", "end_date": "..."}
	Payload map[string]string `json:"payload"`

	Status      TaskStatus `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	Error       string     `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ScheduledFor is when the task should be processed (for delayed tasks)
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewTask creates a new task with default values
func NewTask(taskType TaskType, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         taskType,
		Payload:      payload,
		Status:       TaskStatusPending,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewSyncStoreTask creates a task to sync one store over a window
func NewSyncStoreTask(store StoreID, window DateWindow) *Task {
	return NewTask(TaskTypeSyncStore, map[string]string{
		"store_id":   string(store),
		"start_date": window.StartDate(),
		"end_date":   window.EndDate(),
	})
}

// NewSyncAllTask creates a task to sync every store over a window
func NewSyncAllTask(window DateWindow) *Task {
	return NewTask(TaskTypeSyncAll, map[string]string{
		"start_date": window.StartDate(),
		"end_date":   window.EndDate(),
	})
}

// StoreID extracts the store from the payload (for sync_store tasks)
func (t *Task) StoreID() StoreID {
	if t.Payload == nil {
		return ""
	}
	return StoreID(t.Payload["store_id"])
}

// Window parses the payload window.
func (t *Task) Window() (DateWindow, error) {
	if t.Payload == nil {
		return DateWindow{}, ErrInvalidInput
	}
	return ParseDateWindow(t.Payload["start_date"], t.Payload["end_date"])
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// MarkProcessing updates the task to processing state
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted updates the task to completed state
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Error = ""
}

// MarkFailed updates the task to failed state
func (t *Task) MarkFailed(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.UpdatedAt = now
	t.Error = err
}

// Retry resets the task for retry with exponential backoff
func (t *Task) Retry(err string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = err

	backoff := time.Duration(1<<t.Attempts) * time.Second
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	t.ScheduledFor = now.Add(backoff)
}

// Cadence describes how a scheduled task recurs.
type Cadence string

const (
	// CadenceMonthly fires at the first instant of every calendar month
	CadenceMonthly Cadence = "monthly"
	// CadenceDaily fires at midnight every day
	CadenceDaily Cadence = "daily"
)

// Next returns the first firing instant strictly after t.
func (c Cadence) Next(t time.Time) time.Time {
	switch c {
	case CadenceDaily:
		return startOfDay(t).AddDate(0, 0, 1)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	}
}

// ScheduledTask represents a recurring task configuration
type ScheduledTask struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      TaskType   `json:"type"`
	Cadence   Cadence    `json:"cadence"`
	Enabled   bool       `json:"enabled"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   time.Time  `json:"next_run"`
	LastError string     `json:"last_error,omitempty"`
}

// NewScheduledTask creates a new scheduled task due at the next cadence boundary after now
func NewScheduledTask(id, name string, taskType TaskType, cadence Cadence, now time.Time) *ScheduledTask {
	return &ScheduledTask{
		ID:      id,
		Name:    name,
		Type:    taskType,
		Cadence: cadence,
		Enabled: true,
		NextRun: cadence.Next(now),
	}
}

// IsDue returns true if the scheduled task should be triggered at now
func (s *ScheduledTask) IsDue(now time.Time) bool {
	return s.Enabled && !now.Before(s.NextRun)
}

// UpdateNextRun records a run at now and advances NextRun
func (s *ScheduledTask) UpdateNextRun(now time.Time) {
	s.LastRun = &now
	s.NextRun = s.Cadence.Next(now)
}

// DefaultScheduledTasks returns the built-in schedules
func DefaultScheduledTasks(now time.Time) []*ScheduledTask {
	return []*ScheduledTask{
		NewScheduledTask(
			"monthly-sales-sync",
			"Monthly Sales Sync",
			TaskTypeSyncCurrentMonth,
			CadenceMonthly,
			now,
		),
	}
}
