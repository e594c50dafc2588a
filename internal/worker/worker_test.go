package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/notify"
	"github.com/macandtoo/backend/internal/queue"
	"github.com/macandtoo/backend/internal/repository"
)

// ---------------------------------------------------------------------------
// mocks
// ---------------------------------------------------------------------------

type mockFinder struct {
	findFunc func(ctx context.Context, id int64) (*model.ContactSubmission, error)
}

func (m *mockFinder) FindByID(ctx context.Context, id int64) (*model.ContactSubmission, error) {
	return m.findFunc(ctx, id)
}

type mockNotifier struct {
	confirmFunc func(ctx context.Context, c *model.ContactSubmission) error
	alertFunc   func(ctx context.Context, c *model.ContactSubmission) error
}

func (m *mockNotifier) SendConfirmation(ctx context.Context, c *model.ContactSubmission) error {
	return m.confirmFunc(ctx, c)
}

func (m *mockNotifier) SendAdminAlert(ctx context.Context, c *model.ContactSubmission) error {
	return m.alertFunc(ctx, c)
}

type mockProcessor struct {
	processFunc func(ctx context.Context) (*model.BatchResult, error)
	cleanupFunc func(ctx context.Context) (int, error)
}

func (m *mockProcessor) ProcessContacts(ctx context.Context) (*model.BatchResult, error) {
	return m.processFunc(ctx)
}

func (m *mockProcessor) CleanupTemp(ctx context.Context) (int, error) {
	return m.cleanupFunc(ctx)
}

type recordingPublisher struct {
	mu    sync.Mutex
	tasks []queue.Task
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, t queue.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, t)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

func ann() *model.ContactSubmission {
	return &model.ContactSubmission{ID: 1, Name: "Ann", Email: "ann@example.com", Message: "Hi"}
}

// ---------------------------------------------------------------------------
// contact_received
// ---------------------------------------------------------------------------

func TestWorker_ContactReceived_SendsBothAndChainsBatch(t *testing.T) {
	var confirmed, alerted int64
	pub := &recordingPublisher{}
	w := New(
		&mockFinder{findFunc: func(_ context.Context, id int64) (*model.ContactSubmission, error) { return ann(), nil }},
		&mockNotifier{
			confirmFunc: func(_ context.Context, c *model.ContactSubmission) error { confirmed = c.ID; return nil },
			alertFunc:   func(_ context.Context, c *model.ContactSubmission) error { alerted = c.ID; return nil },
		},
		&mockProcessor{},
		pub,
	)

	if err := w.Handle(context.Background(), queue.NewTask(queue.KindContactReceived, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmed != 1 || alerted != 1 {
		t.Errorf("expected both emails for submission 1, got confirm=%d alert=%d", confirmed, alerted)
	}
	if pub.count() != 1 || pub.tasks[0].Kind != queue.KindProcessContacts {
		t.Errorf("expected one process_contacts task, got %+v", pub.tasks)
	}
}

func TestWorker_ContactReceived_SendFailuresAreNotRetried(t *testing.T) {
	pub := &recordingPublisher{}
	w := New(
		&mockFinder{findFunc: func(context.Context, int64) (*model.ContactSubmission, error) { return ann(), nil }},
		&mockNotifier{
			confirmFunc: func(context.Context, *model.ContactSubmission) error { return errors.New("smtp down") },
			alertFunc:   func(context.Context, *model.ContactSubmission) error { return notify.ErrNotConfigured },
		},
		&mockProcessor{},
		pub,
	)

	if err := w.Handle(context.Background(), queue.NewTask(queue.KindContactReceived, 1)); err != nil {
		t.Fatalf("send failures must not surface, got %v", err)
	}
	if pub.count() != 1 {
		t.Error("batch should still be chained")
	}
}

func TestWorker_ContactReceived_Missing(t *testing.T) {
	w := New(
		&mockFinder{findFunc: func(context.Context, int64) (*model.ContactSubmission, error) { return nil, repository.ErrNotFound }},
		&mockNotifier{},
		&mockProcessor{},
		&recordingPublisher{},
	)
	if err := w.Handle(context.Background(), queue.NewTask(queue.KindContactReceived, 9)); err != nil {
		t.Errorf("missing submission should be dropped, got %v", err)
	}
}

func TestWorker_ContactReceived_LookupErrorRetries(t *testing.T) {
	w := New(
		&mockFinder{findFunc: func(context.Context, int64) (*model.ContactSubmission, error) { return nil, errors.New("conn reset") }},
		&mockNotifier{},
		&mockProcessor{},
		&recordingPublisher{},
	)
	if err := w.Handle(context.Background(), queue.NewTask(queue.KindContactReceived, 1)); err == nil {
		t.Error("expected error so the queue retries")
	}
}

// ---------------------------------------------------------------------------
// batch and maintenance
// ---------------------------------------------------------------------------

func TestWorker_ProcessContacts(t *testing.T) {
	runs := 0
	w := New(&mockFinder{}, &mockNotifier{}, &mockProcessor{
		processFunc: func(context.Context) (*model.BatchResult, error) {
			runs++
			if runs == 1 {
				return nil, errors.New("export failed")
			}
			return &model.BatchResult{RunID: "r", Processed: 2}, nil
		},
	}, &recordingPublisher{})

	task := queue.NewTask(queue.KindProcessContacts, 0)
	if err := w.Handle(context.Background(), task); err == nil {
		t.Error("expected failed run to surface for retry")
	}
	if err := w.Handle(context.Background(), task); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWorker_CleanupTemp(t *testing.T) {
	called := false
	w := New(&mockFinder{}, &mockNotifier{}, &mockProcessor{
		cleanupFunc: func(context.Context) (int, error) { called = true; return 3, nil },
	}, &recordingPublisher{})

	if err := w.Handle(context.Background(), queue.NewTask(queue.KindCleanupTemp, 0)); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("expected CleanupTemp to run")
	}
}

func TestWorker_UnknownKind(t *testing.T) {
	w := New(&mockFinder{}, &mockNotifier{}, &mockProcessor{}, &recordingPublisher{})
	if err := w.Handle(context.Background(), queue.Task{ID: "x", Kind: "reindex"}); err != nil {
		t.Errorf("unknown kinds are dropped, got %v", err)
	}
}

func TestWorker_RunOverMemoryQueue(t *testing.T) {
	q := queue.NewMemoryQueue(4, 0)
	done := make(chan struct{})
	w := New(&mockFinder{}, &mockNotifier{}, &mockProcessor{
		cleanupFunc: func(context.Context) (int, error) { close(done); return 0, nil },
	}, q)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx, q) }()

	if err := q.Publish(ctx, queue.NewTask(queue.KindCleanupTemp, 0)); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task not consumed")
	}
}

// The worker publishes process_contacts onto the queue it consumes. With the
// buffer full it must drop that task and keep consuming, and intake publishes
// must fail fast instead of waiting.
func TestWorker_FullMemoryQueueKeepsFlowing(t *testing.T) {
	q := queue.NewMemoryQueue(1, 0)
	entered := make(chan struct{})
	gate := make(chan struct{})
	processed := make(chan struct{}, 4)
	var once sync.Once

	w := New(&mockFinder{
		findFunc: func(_ context.Context, id int64) (*model.ContactSubmission, error) {
			c := ann()
			c.ID = id
			return c, nil
		},
	}, &mockNotifier{
		confirmFunc: func(_ context.Context, c *model.ContactSubmission) error {
			if c.ID == 1 {
				once.Do(func() { close(entered) })
				<-gate
			}
			return nil
		},
		alertFunc: func(context.Context, *model.ContactSubmission) error { return nil },
	}, &mockProcessor{
		processFunc: func(context.Context) (*model.BatchResult, error) {
			select {
			case processed <- struct{}{}:
			default:
			}
			return &model.BatchResult{}, nil
		},
	}, q)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx, q) }()

	if err := q.Publish(ctx, queue.NewTask(queue.KindContactReceived, 1)); err != nil {
		t.Fatal(err)
	}
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first task not consumed")
	}
	if err := q.Publish(ctx, queue.NewTask(queue.KindContactReceived, 2)); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := q.Publish(ctx, queue.NewTask(queue.KindContactReceived, 3)); !errors.Is(err, queue.ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("intake publish waited on a full queue")
	}

	close(gate)
	select {
	case <-processed:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stalled on its own full queue; no batch ran")
	}
}

// ---------------------------------------------------------------------------
// Scheduler
// ---------------------------------------------------------------------------

func TestScheduler_PublishesOnStartAndTick(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewScheduler(pub, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(time.Second)
	for pub.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 publishes, got %d", pub.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	for _, task := range pub.tasks {
		if task.Kind != queue.KindProcessContacts {
			t.Errorf("unexpected kind %s", task.Kind)
		}
	}
}

func TestScheduler_Disabled(t *testing.T) {
	pub := &recordingPublisher{}
	if err := NewScheduler(pub, 0).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if pub.count() != 0 {
		t.Error("disabled scheduler must not publish")
	}
}
