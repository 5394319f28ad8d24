package scheduler

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	jobTracer          = otel.Tracer("nexus/scheduler")
	jobMeter           = otel.Meter("nexus/scheduler")
	jobDuration, _     = jobMeter.Float64Histogram("scheduler.job.duration", metric.WithDescription("Job execution duration in seconds"), metric.WithUnit("s"))
	jobTotal, _        = jobMeter.Int64Counter("scheduler.job.total", metric.WithDescription("Jobs executed by kind and status"))
	jobQueueDropped, _ = jobMeter.Int64Counter("scheduler.job.queue_dropped", metric.WithDescription("Jobs dropped because their worker queue was full"))
)

const defaultJobTimeout = 2 * time.Minute

var (
	// ErrQueueFull is returned by Submit when the job was dropped
	ErrQueueFull = errors.New("job queue full")
	// ErrPoolClosed is returned by Submit once shutdown has begun
	ErrPoolClosed = errors.New("worker pool closed")
)

// WorkerPool runs jobs on a fixed set of workers. Jobs of the same user always
// land on the same worker, so they run one at a time in submission order.
type WorkerPool struct {
	jobDelay   time.Duration
	jobTimeout time.Duration
	queues     []chan Job
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorkerPool creates workerCount workers that pause jobDelay between jobs.
// queueSize bounds pending jobs across the pool and is split evenly between
// workers; Submit drops beyond it.
func NewWorkerPool(workerCount int, jobDelay time.Duration, queueSize int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	perWorker := 0
	if queueSize > 0 {
		perWorker = (queueSize + workerCount - 1) / workerCount
	}

	queues := make([]chan Job, workerCount)
	for i := range queues {
		queues[i] = make(chan Job, perWorker)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobDelay:   jobDelay,
		jobTimeout: defaultJobTimeout,
		queues:     queues,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the worker goroutines
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", len(wp.queues))

	for i, queue := range wp.queues {
		wp.wg.Add(1)
		go wp.worker(i+1, queue)
	}
}

func (wp *WorkerPool) worker(id int, queue <-chan Job) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return

		case job, ok := <-queue:
			if !ok {
				return
			}

			wp.processJob(id, job)

			if wp.jobDelay > 0 {
				select {
				case <-time.After(wp.jobDelay):
				case <-wp.ctx.Done():
					return
				}
			}
		}
	}
}

// processJob runs one job under the pool's timeout and records its outcome
func (wp *WorkerPool) processJob(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(wp.ctx, wp.jobTimeout)
	defer cancel()

	ctx, span := jobTracer.Start(ctx, "job."+job.Kind(),
		trace.WithAttributes(
			attribute.Int("worker.id", workerID),
			attribute.String("job.kind", job.Kind()),
			attribute.String("job.user_id", job.UserID()),
		),
	)
	defer span.End()

	start := time.Now()
	err := job.Execute(ctx)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("Worker %d: %s failed: %v", workerID, job.Description(), err)
	} else {
		log.Printf("Worker %d: %s done in %v", workerID, job.Description(), time.Since(start).Round(time.Millisecond))
	}

	kind := attribute.String("job.kind", job.Kind())
	jobTotal.Add(ctx, 1, metric.WithAttributes(kind, attribute.String("status", status)))
	jobDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(kind))
}

func (wp *WorkerPool) queueFor(job Job) chan Job {
	h := fnv.New32a()
	h.Write([]byte(job.UserID()))
	return wp.queues[h.Sum32()%uint32(len(wp.queues))]
}

// Submit queues job on its user's worker without blocking
func (wp *WorkerPool) Submit(job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}

	select {
	case wp.queueFor(job) <- job:
		return nil
	default:
		jobQueueDropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("job.kind", job.Kind())))
		return fmt.Errorf("%w: dropping %s", ErrQueueFull, job.Description())
	}
}

// SubmitBatch queues jobs in order and returns how many were accepted
func (wp *WorkerPool) SubmitBatch(jobs []Job) int {
	submitted := 0
	for _, job := range jobs {
		if err := wp.Submit(job); err != nil {
			log.Printf("Failed to submit job for user %s: %v", job.UserID(), err)
			continue
		}
		submitted++
	}
	log.Printf("Submitted %d/%d jobs to worker pool", submitted, len(jobs))
	return submitted
}

// close stops intake. It reports false when the pool was already closed.
func (wp *WorkerPool) close() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.closed {
		return false
	}
	wp.closed = true
	for _, queue := range wp.queues {
		close(queue)
	}
	return true
}

// Shutdown stops accepting jobs and waits for every queue to drain
func (wp *WorkerPool) Shutdown() {
	if !wp.close() {
		return
	}
	wp.wg.Wait()
	wp.cancel()
	log.Println("Worker pool: Shutdown complete")
}

// ShutdownWithTimeout is Shutdown that cancels running jobs after timeout.
// Queued jobs that have not started by then are abandoned.
func (wp *WorkerPool) ShutdownWithTimeout(timeout time.Duration) {
	if !wp.close() {
		return
	}

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Worker pool: All workers finished gracefully")
	case <-time.After(timeout):
		log.Println("Worker pool: Timeout reached, cancelling running jobs")
		wp.cancel()
		<-done
	}
	wp.cancel()

	log.Println("Worker pool: Shutdown complete")
}
