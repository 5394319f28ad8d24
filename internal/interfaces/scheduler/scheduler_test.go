package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// MockJob implements Job for testing
type MockJob struct {
	ExecuteFunc func(ctx context.Context) error
	User        string
}

func (m *MockJob) Execute(ctx context.Context) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx)
	}
	return nil
}

func (m *MockJob) UserID() string      { return m.User }
func (m *MockJob) Kind() string        { return "mock" }
func (m *MockJob) Description() string { return "mock job for user " + m.User }

func TestParseScheduleTime(t *testing.T) {
	tests := []struct {
		input   string
		want    ScheduleTime
		wantErr bool
	}{
		{"06:00", ScheduleTime{6, 0}, false},
		{"23:59", ScheduleTime{23, 59}, false},
		{"00:05", ScheduleTime{0, 5}, false},
		{"24:00", ScheduleTime{}, true},
		{"12:60", ScheduleTime{}, true},
		{"noon", ScheduleTime{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScheduleTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScheduleTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseScheduleTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_RequiresScheduleTimes(t *testing.T) {
	if _, err := New(Config{WorkerCount: 1, QueueSize: 1}); err == nil {
		t.Error("expected an error without schedule times")
	}
	if _, err := New(Config{ScheduleTimes: []string{"25:00"}}); err == nil {
		t.Error("expected an error for an invalid schedule time")
	}
}

func TestShouldRun(t *testing.T) {
	sao, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	s, err := New(Config{ScheduleTimes: []string{"06:00", "18:30"}, WorkerCount: 1, QueueSize: 1, Location: sao})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// 09:00 UTC is 06:00 in Sao Paulo
	at := time.Date(2026, 3, 10, 9, 0, 20, 0, time.UTC)
	if !s.shouldRun(at) {
		t.Error("expected a run at 06:00 local")
	}
	if s.shouldRun(at.Add(30 * time.Second)) {
		t.Error("expected the same minute to fire once")
	}
	if s.shouldRun(time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)) {
		t.Error("06:00 UTC is not a schedule time in Sao Paulo")
	}
	if !s.shouldRun(time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC)) {
		t.Error("expected a run at 18:30 local")
	}
	if !s.shouldRun(at.AddDate(0, 0, 1)) {
		t.Error("expected a run on the next day")
	}
}

func TestNextRun(t *testing.T) {
	s, err := New(Config{ScheduleTimes: []string{"18:00", "06:00"}, WorkerCount: 1, QueueSize: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC), time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)},
		{time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC), time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)},
		{time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC), time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := s.NextRun(tt.now); !got.Equal(tt.want) {
			t.Errorf("NextRun(%s) = %s, want %s", tt.now, got, tt.want)
		}
	}
}

func TestRunJobs_CollectsFromEveryProvider(t *testing.T) {
	var executed atomic.Int32
	var wg sync.WaitGroup
	job := func(user string) Job {
		wg.Add(1)
		return &MockJob{User: user, ExecuteFunc: func(ctx context.Context) error {
			defer wg.Done()
			executed.Add(1)
			return nil
		}}
	}

	s, err := New(Config{
		ScheduleTimes: []string{"06:00"},
		WorkerCount:   2,
		QueueSize:     10,
		Providers: []JobProvider{
			func(ctx context.Context) ([]Job, error) { return []Job{job("1"), job("2")}, nil },
			func(ctx context.Context) ([]Job, error) { return nil, errors.New("provider down") },
			func(ctx context.Context) ([]Job, error) { return []Job{job("3")}, nil },
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.workerPool.Start()
	defer s.Shutdown(time.Second)

	if submitted := s.runJobs(); submitted != 3 {
		t.Fatalf("expected 3 submitted jobs, got %d", submitted)
	}
	wg.Wait()
	if executed.Load() != 3 {
		t.Errorf("expected 3 executed jobs, got %d", executed.Load())
	}
}

func TestWorkerPool_ContinuesAfterFailure(t *testing.T) {
	pool := NewWorkerPool(1, 0, 5)
	pool.Start()

	var mu sync.Mutex
	var order []string
	record := func(user string, err error) Job {
		return &MockJob{User: user, ExecuteFunc: func(ctx context.Context) error {
			mu.Lock()
			order = append(order, user)
			mu.Unlock()
			return err
		}}
	}

	pool.SubmitBatch([]Job{record("1", errors.New("boom")), record("2", nil), record("3", nil)})
	pool.Shutdown()

	if len(order) != 3 || order[0] != "1" || order[2] != "3" {
		t.Errorf("expected jobs 1..3 to run in order, got %v", order)
	}
}

func TestWorkerPool_SubmitQueueFull(t *testing.T) {
	pool := NewWorkerPool(1, 0, 1)

	if err := pool.Submit(&MockJob{User: "1"}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	err := pool.Submit(&MockJob{User: "2"})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	pool.Start()
	pool.Shutdown()
}

func TestWorkerPool_JobSeesCancellation(t *testing.T) {
	pool := NewWorkerPool(1, 0, 1)
	pool.Start()

	started := make(chan struct{})
	finished := make(chan error, 1)
	pool.Submit(&MockJob{User: "1", ExecuteFunc: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		finished <- ctx.Err()
		return ctx.Err()
	}})

	<-started
	pool.ShutdownWithTimeout(10 * time.Millisecond)

	select {
	case err := <-finished:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("job did not observe cancellation")
	}
}

func TestWorkerPool_SameUserRunsInOrder(t *testing.T) {
	pool := NewWorkerPool(4, 0, 256)
	pool.Start()

	var mu sync.Mutex
	seen := make(map[string][]int)
	var jobs []Job
	for seq := 0; seq < 5; seq++ {
		for _, user := range []string{"1", "2", "3", "4", "5", "6"} {
			seq, user := seq, user
			jobs = append(jobs, &MockJob{User: user, ExecuteFunc: func(ctx context.Context) error {
				mu.Lock()
				seen[user] = append(seen[user], seq)
				mu.Unlock()
				return nil
			}})
		}
	}

	if got := pool.SubmitBatch(jobs); got != len(jobs) {
		t.Fatalf("submitted %d of %d jobs", got, len(jobs))
	}
	pool.Shutdown()

	for user, order := range seen {
		for i, seq := range order {
			if seq != i {
				t.Errorf("user %s ran jobs in order %v", user, order)
				break
			}
		}
	}
	if len(seen) != 6 {
		t.Errorf("expected jobs for 6 users, got %d", len(seen))
	}
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(2, 0, 4)
	pool.Start()
	pool.Shutdown()

	if err := pool.Submit(&MockJob{User: "1"}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
	// a second shutdown is a no-op
	pool.ShutdownWithTimeout(time.Millisecond)
}
