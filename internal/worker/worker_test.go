package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saron-retail/saron-core/internal/core/domain"
	"github.com/saron-retail/saron-core/internal/core/ports/driven/mocks"
)

type syncCall struct {
	method string
	store  domain.StoreID
	window string
}

// recordingSync implements driving.SalesSyncService and records each call.
type recordingSync struct {
	mu     sync.Mutex
	calls  []syncCall
	failOn map[domain.StoreID]string
}

func (r *recordingSync) record(method string, store domain.StoreID, window string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, syncCall{method, store, window})
}

func (r *recordingSync) results() []*domain.SyncResult {
	var out []*domain.SyncResult
	for _, s := range domain.AllStores() {
		res := &domain.SyncResult{Success: true, Store: s}
		if msg, ok := r.failOn[s]; ok {
			res.Success = false
			res.Error = msg
		}
		out = append(out, res)
	}
	return out
}

func (r *recordingSync) SyncStore(_ context.Context, store domain.StoreID, window domain.DateWindow) *domain.SyncResult {
	r.record("SyncStore", store, window.String())
	for _, res := range r.results() {
		if res.Store == store {
			return res
		}
	}
	return nil
}

func (r *recordingSync) SyncAllStores(_ context.Context, window domain.DateWindow) []*domain.SyncResult {
	r.record("SyncAllStores", "", window.String())
	return r.results()
}

func (r *recordingSync) SyncToday(context.Context) []*domain.SyncResult {
	r.record("SyncToday", "", "")
	return r.results()
}

func (r *recordingSync) SyncCurrentMonth(context.Context) []*domain.SyncResult {
	r.record("SyncCurrentMonth", "", "")
	return r.results()
}

func (r *recordingSync) SyncFullHistory(context.Context) []*domain.SyncResult {
	r.record("SyncFullHistory", "", "")
	return r.results()
}

func (r *recordingSync) GetSyncStatus(domain.StoreID, domain.DateWindow) (*domain.SyncProgress, bool) {
	return nil, false
}

func (r *recordingSync) Calls() []syncCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]syncCall(nil), r.calls...)
}

type countingScheduler struct {
	started, stopped atomic.Int32
}

func (s *countingScheduler) Start(context.Context) error { s.started.Add(1); return nil }
func (s *countingScheduler) Stop()                       { s.stopped.Add(1) }
func (s *countingScheduler) ListScheduledTasks(context.Context) ([]*domain.ScheduledTask, error) {
	return nil, nil
}
func (s *countingScheduler) TriggerNow(context.Context, string) (*domain.Task, error) {
	return nil, domain.ErrNotFound
}

func january(t *testing.T) domain.DateWindow {
	t.Helper()
	w, err := domain.ParseDateWindow("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	return w
}

func newTestWorker(queue *mocks.MockTaskQueue, sync *recordingSync) *Worker {
	return NewWorker(WorkerConfig{
		TaskQueue:      queue,
		Sync:           sync,
		Clock:          testclock.NewClock(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		DequeueTimeout: 1,
	})
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: mocks.NewMockTaskQueue()})

	assert.Equal(t, 1, w.concurrency)
	assert.Equal(t, 5, w.dequeueTimeout)
	assert.NotNil(t, w.logger)
	assert.NotNil(t, w.clock)
}

func TestWorker_DispatchesTaskTypes(t *testing.T) {
	window := january(t)

	tests := []struct {
		task *domain.Task
		want syncCall
	}{
		{domain.NewSyncStoreTask(domain.StoreSaron2, window), syncCall{"SyncStore", domain.StoreSaron2, window.String()}},
		{domain.NewSyncAllTask(window), syncCall{"SyncAllStores", "", window.String()}},
		{domain.NewTask(domain.TaskTypeSyncToday, nil), syncCall{"SyncToday", "", ""}},
		{domain.NewTask(domain.TaskTypeSyncCurrentMonth, nil), syncCall{"SyncCurrentMonth", "", ""}},
		{domain.NewTask(domain.TaskTypeSyncFullHistory, nil), syncCall{"SyncFullHistory", "", ""}},
	}

	for _, tt := range tests {
		t.Run(string(tt.task.Type), func(t *testing.T) {
			queue := mocks.NewMockTaskQueue()
			rec := &recordingSync{}
			w := newTestWorker(queue, rec)
			require.NoError(t, queue.Enqueue(context.Background(), tt.task))
			task, _ := queue.DequeueWithTimeout(context.Background(), 0)

			w.processTask(context.Background(), task, w.logger)

			assert.Equal(t, []syncCall{tt.want}, rec.Calls())
			assert.Equal(t, []string{tt.task.ID}, queue.Acked)
			assert.Empty(t, queue.Nacked)
		})
	}
}

func TestWorker_FailedStoreNacks(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	rec := &recordingSync{failOn: map[domain.StoreID]string{domain.StoreSaron2: "dapic request /v1/vendaspdv failed"}}
	w := newTestWorker(queue, rec)

	task := domain.NewTask(domain.TaskTypeSyncCurrentMonth, nil)
	require.NoError(t, queue.Enqueue(context.Background(), task))
	dequeued, _ := queue.DequeueWithTimeout(context.Background(), 0)

	w.processTask(context.Background(), dequeued, w.logger)

	assert.Equal(t, []string{task.ID}, queue.Nacked)
	assert.Empty(t, queue.Acked)
	stored, err := queue.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, stored.Status)
	assert.True(t, strings.HasPrefix(stored.Error, "store saron2:"), stored.Error)
}

func TestWorker_InvalidPayloadsNack(t *testing.T) {
	tests := []*domain.Task{
		domain.NewTask(domain.TaskTypeSyncStore, map[string]string{"store_id": "saron9", "start_date": "2024-01-01", "end_date": "2024-01-31"}),
		domain.NewTask(domain.TaskTypeSyncStore, map[string]string{"store_id": "saron1", "start_date": "jan"}),
		domain.NewTask(domain.TaskTypeSyncAll, nil),
		domain.NewTask("reindex", nil),
	}

	for _, task := range tests {
		queue := mocks.NewMockTaskQueue()
		rec := &recordingSync{}
		w := newTestWorker(queue, rec)
		require.NoError(t, queue.Enqueue(context.Background(), task))
		dequeued, _ := queue.DequeueWithTimeout(context.Background(), 0)

		w.processTask(context.Background(), dequeued, w.logger)

		assert.Equal(t, []string{task.ID}, queue.Nacked, "task %v", task.Payload)
		assert.Empty(t, rec.Calls())
	}
}

func TestWorker_StartProcessesQueueAndStops(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	rec := &recordingSync{}
	sched := &countingScheduler{}
	w := NewWorker(WorkerConfig{TaskQueue: queue, Sync: rec, Scheduler: sched, Concurrency: 2})

	for i := 0; i < 4; i++ {
		require.NoError(t, queue.Enqueue(context.Background(), domain.NewTask(domain.TaskTypeSyncToday, nil)))
	}

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()), "second Start is a no-op")

	assert.Eventually(t, func() bool { return len(rec.Calls()) == 4 }, 2*time.Second, 10*time.Millisecond)

	w.Stop()
	w.Stop()

	assert.Equal(t, int32(1), sched.started.Load())
	assert.Equal(t, int32(1), sched.stopped.Load())
	assert.False(t, w.Health(context.Background()).Running)
}

type failingQueue struct {
	*mocks.MockTaskQueue
	dequeues atomic.Int32
	pingErr  error
}

func (q *failingQueue) DequeueWithTimeout(context.Context, int) (*domain.Task, error) {
	q.dequeues.Add(1)
	return nil, errors.New("redis: connection refused")
}

func (q *failingQueue) Ping(context.Context) error { return q.pingErr }

func TestWorker_DequeueErrorBacksOffOnClock(t *testing.T) {
	clk := testclock.NewClock(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	queue := &failingQueue{MockTaskQueue: mocks.NewMockTaskQueue()}
	w := NewWorker(WorkerConfig{TaskQueue: queue, Sync: &recordingSync{}, Clock: clk})

	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, clk.WaitAdvance(dequeueBackoff, time.Second, 1))
	assert.Eventually(t, func() bool { return queue.dequeues.Load() >= 2 }, time.Second, 5*time.Millisecond)

	// Stop must not wait for the backoff timer.
	w.Stop()
}

func TestWorker_ContextCancellation(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: mocks.NewMockTaskQueue(), Sync: &recordingSync{}})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, w.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after context cancellation")
	}
}

func TestWorker_Health(t *testing.T) {
	healthy := NewWorker(WorkerConfig{TaskQueue: mocks.NewMockTaskQueue()})
	h := healthy.Health(context.Background())
	assert.True(t, h.QueueHealth)
	assert.Empty(t, h.Error)

	broken := NewWorker(WorkerConfig{TaskQueue: &failingQueue{
		MockTaskQueue: mocks.NewMockTaskQueue(),
		pingErr:       errors.New("queue down"),
	}})
	h = broken.Health(context.Background())
	assert.False(t, h.QueueHealth)
	assert.Equal(t, "queue down", h.Error)
}
