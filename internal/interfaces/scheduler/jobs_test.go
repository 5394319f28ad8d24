package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"nexus/internal/domain/metrics"
	"nexus/internal/domain/recurring"
)

type fixedClock time.Time

func (c fixedClock) Today(time.Time) time.Time { return time.Time(c) }

var runDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

// MockRecurringRunner implements RecurringRunner for testing
type MockRecurringRunner struct {
	UsersWithDueFunc func(ctx context.Context, asOf time.Time) ([]int64, error)
	RunDueFunc       func(ctx context.Context, userID int64, asOf time.Time) (*recurring.RunResult, error)
}

func (m *MockRecurringRunner) UsersWithDue(ctx context.Context, asOf time.Time) ([]int64, error) {
	if m.UsersWithDueFunc != nil {
		return m.UsersWithDueFunc(ctx, asOf)
	}
	return nil, nil
}

func (m *MockRecurringRunner) RunDue(ctx context.Context, userID int64, asOf time.Time) (*recurring.RunResult, error) {
	if m.RunDueFunc != nil {
		return m.RunDueFunc(ctx, userID, asOf)
	}
	return &recurring.RunResult{}, nil
}

// MockPublisher implements DigestPublisher for testing
type MockPublisher struct {
	PublishFunc func(ctx context.Context, userID int64, asOf time.Time) (*metrics.CashDigest, error)
}

func (m *MockPublisher) Publish(ctx context.Context, userID int64, asOf time.Time) (*metrics.CashDigest, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, userID, asOf)
	}
	return &metrics.CashDigest{}, nil
}

type deviceList []int64

func (d deviceList) UsersWithDevices(ctx context.Context) ([]int64, error) { return d, nil }

func TestRecurringJobs(t *testing.T) {
	var ranFor []int64
	runner := &MockRecurringRunner{
		UsersWithDueFunc: func(ctx context.Context, asOf time.Time) ([]int64, error) {
			if !asOf.Equal(runDay) {
				t.Errorf("expected asOf %s, got %s", runDay, asOf)
			}
			return []int64{4, 9}, nil
		},
		RunDueFunc: func(ctx context.Context, userID int64, asOf time.Time) (*recurring.RunResult, error) {
			ranFor = append(ranFor, userID)
			return &recurring.RunResult{Processed: 2, Created: 1, Failed: 1}, nil
		},
	}

	jobs, err := RecurringJobs(runner, fixedClock(runDay))(context.Background())
	if err != nil {
		t.Fatalf("provider error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].UserID() != "4" || jobs[0].Description() != "Recurring run for user 4 as of 2026-03-10" {
		t.Errorf("unexpected job: %s / %s", jobs[0].UserID(), jobs[0].Description())
	}

	for _, j := range jobs {
		if err := j.Execute(context.Background()); err != nil {
			t.Errorf("a partially failed run should not fail the job: %v", err)
		}
	}
	if len(ranFor) != 2 || ranFor[0] != 4 || ranFor[1] != 9 {
		t.Errorf("expected runs for users 4 and 9, got %v", ranFor)
	}
}

func TestRecurringJobs_Errors(t *testing.T) {
	listErr := errors.New("db down")
	runner := &MockRecurringRunner{
		UsersWithDueFunc: func(ctx context.Context, asOf time.Time) ([]int64, error) { return nil, listErr },
	}
	if _, err := RecurringJobs(runner, fixedClock(runDay))(context.Background()); !errors.Is(err, listErr) {
		t.Errorf("expected wrapped list error, got %v", err)
	}

	runErr := errors.New("boom")
	job := NewRecurringRunJob(1, runDay, &MockRecurringRunner{
		RunDueFunc: func(ctx context.Context, userID int64, asOf time.Time) (*recurring.RunResult, error) { return nil, runErr },
	})
	if err := job.Execute(context.Background()); !errors.Is(err, runErr) {
		t.Errorf("expected wrapped run error, got %v", err)
	}
}

func TestDigestJobs(t *testing.T) {
	published := map[int64]time.Time{}
	pub := &MockPublisher{
		PublishFunc: func(ctx context.Context, userID int64, asOf time.Time) (*metrics.CashDigest, error) {
			if userID == 3 {
				return nil, errors.New("no delivery")
			}
			published[userID] = asOf
			return &metrics.CashDigest{}, nil
		},
	}

	jobs, err := DigestJobs(pub, deviceList{1, 3}, fixedClock(runDay))(context.Background())
	if err != nil {
		t.Fatalf("provider error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	if err := jobs[0].Execute(context.Background()); err != nil {
		t.Errorf("unexpected error for user 1: %v", err)
	}
	if err := jobs[1].Execute(context.Background()); err == nil {
		t.Error("expected an error for user 3")
	}
	if got, ok := published[1]; !ok || !got.Equal(runDay) {
		t.Errorf("expected user 1 published as of %s, got %v", runDay, published)
	}
}
