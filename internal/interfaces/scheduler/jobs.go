package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"nexus/internal/domain/metrics"
	"nexus/internal/domain/recurring"
)

var (
	recurringCreated, _ = jobMeter.Int64Counter("recurring.transactions.created", metric.WithDescription("Transactions materialized from recurring templates"))
	recurringFailed, _  = jobMeter.Int64Counter("recurring.transactions.failed", metric.WithDescription("Recurring templates that failed to materialize"))
	digestsSent, _      = jobMeter.Int64Counter("digest.sent", metric.WithDescription("Cash summary digests pushed"))
)

// Clock decides which calendar day a run is for. config.ClockConfig satisfies it.
type Clock interface {
	Today(now time.Time) time.Time
}

// RecurringRunner is the part of *recurring.Service the scheduler drives
type RecurringRunner interface {
	UsersWithDue(ctx context.Context, asOf time.Time) ([]int64, error)
	RunDue(ctx context.Context, userID int64, asOf time.Time) (*recurring.RunResult, error)
}

// DigestPublisher is satisfied by *digest.Publisher
type DigestPublisher interface {
	Publish(ctx context.Context, userID int64, asOf time.Time) (*metrics.CashDigest, error)
}

// DeviceDirectory lists users that can receive pushes.
// *notification.Service satisfies it.
type DeviceDirectory interface {
	UsersWithDevices(ctx context.Context) ([]int64, error)
}

// RecurringRunJob materializes the due recurring templates of one user
type RecurringRunJob struct {
	userID int64
	asOf   time.Time
	runner RecurringRunner
}

func NewRecurringRunJob(userID int64, asOf time.Time, runner RecurringRunner) *RecurringRunJob {
	return &RecurringRunJob{userID: userID, asOf: asOf, runner: runner}
}

// Execute fails only when nothing could be listed. Per-template failures are
// counted and logged by the recurring service.
func (j *RecurringRunJob) Execute(ctx context.Context) error {
	result, err := j.runner.RunDue(ctx, j.userID, j.asOf)
	if err != nil {
		return fmt.Errorf("recurring run failed: %w", err)
	}

	attrs := metric.WithAttributes(attribute.String("trigger", "scheduler"))
	recurringCreated.Add(ctx, int64(result.Created), attrs)
	recurringFailed.Add(ctx, int64(result.Failed), attrs)
	if result.Failed > 0 {
		log.Printf("Recurring run for user %d: %d of %d templates failed", j.userID, result.Failed, result.Processed)
	}
	return nil
}

func (j *RecurringRunJob) UserID() string {
	return strconv.FormatInt(j.userID, 10)
}

func (j *RecurringRunJob) Kind() string { return "recurring" }

func (j *RecurringRunJob) Description() string {
	return fmt.Sprintf("Recurring run for user %d as of %s", j.userID, j.asOf.Format(time.DateOnly))
}

// DigestJob pushes the cash summary digest to one user
type DigestJob struct {
	userID    int64
	asOf      time.Time
	publisher DigestPublisher
}

func NewDigestJob(userID int64, asOf time.Time, publisher DigestPublisher) *DigestJob {
	return &DigestJob{userID: userID, asOf: asOf, publisher: publisher}
}

func (j *DigestJob) Execute(ctx context.Context) error {
	if _, err := j.publisher.Publish(ctx, j.userID, j.asOf); err != nil {
		return fmt.Errorf("digest failed: %w", err)
	}
	digestsSent.Add(ctx, 1)
	return nil
}

func (j *DigestJob) UserID() string {
	return strconv.FormatInt(j.userID, 10)
}

func (j *DigestJob) Kind() string { return "digest" }

func (j *DigestJob) Description() string {
	return fmt.Sprintf("Cash digest for user %d as of %s", j.userID, j.asOf.Format(time.DateOnly))
}

// RecurringJobs returns a provider with one RecurringRunJob per user that has
// due templates today
func RecurringJobs(runner RecurringRunner, clock Clock) JobProvider {
	return func(ctx context.Context) ([]Job, error) {
		asOf := clock.Today(time.Now())
		users, err := runner.UsersWithDue(ctx, asOf)
		if err != nil {
			return nil, fmt.Errorf("failed to list users with due templates: %w", err)
		}

		jobs := make([]Job, 0, len(users))
		for _, userID := range users {
			jobs = append(jobs, NewRecurringRunJob(userID, asOf, runner))
		}
		return jobs, nil
	}
}

// DigestJobs returns a provider with one DigestJob per user with an active device
func DigestJobs(publisher DigestPublisher, devices DeviceDirectory, clock Clock) JobProvider {
	return func(ctx context.Context) ([]Job, error) {
		asOf := clock.Today(time.Now())
		users, err := devices.UsersWithDevices(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users with devices: %w", err)
		}

		jobs := make([]Job, 0, len(users))
		for _, userID := range users {
			jobs = append(jobs, NewDigestJob(userID, asOf, publisher))
		}
		return jobs, nil
	}
}
