package driven

import (
	"context"
	"time"

	"github.com/saron-retail/saron-core/internal/core/domain"
)

// TaskQueue carries background sync tasks from the API and scheduler to workers.
// Implementations use Redis (preferred) or Postgres (fallback).
type TaskQueue interface {
	// Enqueue adds a task to the queue for processing.
	Enqueue(ctx context.Context, task *domain.Task) error

	// DequeueWithTimeout retrieves the next ready task, waiting up to timeout seconds.
	// Returns nil, nil if the timeout is reached with no task available.
	// The returned task is marked processing and hidden from other workers.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack marks a task completed.
	Ack(ctx context.Context, taskID string) error

	// Nack records a failure; the task is retried with backoff until MaxAttempts.
	Nack(ctx context.Context, taskID string, reason string) error

	// GetTask retrieves a task by ID (for status checking).
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// Ping checks if the queue backend is healthy.
	Ping(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}

// SchedulerStore handles persistence for scheduled tasks.
// Scheduled tasks are configuration, not transient queue items.
type SchedulerStore interface {
	GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error)
	ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error)
	SaveScheduledTask(ctx context.Context, task *domain.ScheduledTask) error
	DeleteScheduledTask(ctx context.Context, id string) error

	// GetDueScheduledTasks returns enabled tasks whose NextRun is not after now.
	GetDueScheduledTasks(ctx context.Context, now time.Time) ([]*domain.ScheduledTask, error)

	// MarkRun stores the outcome of a trigger: LastRun, NextRun and LastError.
	MarkRun(ctx context.Context, task *domain.ScheduledTask) error
}
