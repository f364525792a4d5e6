// Package jobs runs the in-process background work this service needs, which
// today is a single kind: replanning a user's schedule after their backlog
// changed. Replans are idempotent per user, so the queue coalesces duplicates
// instead of planning the same horizon twice.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TypeReschedule regenerates a user's schedule.
const TypeReschedule = "reschedule"

// Job is one unit of background work, always scoped to a single user.
type Job struct {
	ID       string
	Type     string
	UserID   string
	Attempt  int
	Enqueued time.Time
}

// NewRescheduleJob builds a replan job for the given user.
func NewRescheduleJob(userID string) Job {
	return Job{
		ID:       uuid.NewString(),
		Type:     TypeReschedule,
		UserID:   userID,
		Enqueued: time.Now().UTC(),
	}
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue dispatches jobs to a goroutine pool, coalescing per user: enqueueing
// a job for a user who already has one waiting is a no-op.
type Queue struct {
	name    string
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	waiting map[string]struct{}
	started bool
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger.With(zap.String("queue", name)),
		jobs:       make(chan Job, cfg.BufferSize),
		waiting:    make(map[string]struct{}),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped")
}

// Enqueue pushes a job onto the queue. First-attempt jobs for a user who
// already has one waiting are dropped; retries always go through.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return fmt.Errorf("queue %s not started", q.name)
	}
	ctx := q.ctx
	if _, dup := q.waiting[job.UserID]; dup && job.Attempt == 0 {
		q.mu.Unlock()
		q.logger.Debug("job coalesced", zap.String("user_id", job.UserID), zap.String("type", job.Type))
		return nil
	}
	q.waiting[job.UserID] = struct{}{}
	q.mu.Unlock()

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		q.clearWaiting(job.UserID)
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) clearWaiting(userID string) {
	q.mu.Lock()
	delete(q.waiting, userID)
	q.mu.Unlock()
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log := q.logger.With(zap.Int("worker", id))
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.clearWaiting(job.UserID)
			if err := q.handler(q.ctx, job); err != nil {
				q.handleFailure(log, job, err)
				continue
			}
			log.Debug("job done",
				zap.String("job_id", job.ID),
				zap.String("type", job.Type),
				zap.String("user_id", job.UserID),
				zap.Duration("queued_for", time.Since(job.Enqueued)),
			)
		}
	}
}

func (q *Queue) handleFailure(log *zap.Logger, job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		log.Error("job exceeded retries",
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.String("user_id", job.UserID),
			zap.Error(err),
		)
		return
	}
	log.Warn("job failed, retrying",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.String("user_id", job.UserID),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	)

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				log.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}
