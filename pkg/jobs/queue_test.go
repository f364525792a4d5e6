package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("replans", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(NewRescheduleJob("u1"))
	require.Error(t, err)
}

func TestQueueDeliversJobToHandler(t *testing.T) {
	got := make(chan Job, 1)
	q := NewQueue("replans", func(ctx context.Context, job Job) error {
		got <- job
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(NewRescheduleJob("u1")))

	select {
	case job := <-got:
		assert.Equal(t, TypeReschedule, job.Type)
		assert.Equal(t, "u1", job.UserID)
		assert.NotEmpty(t, job.ID)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(time.Second):
		t.Fatal("job never reached the handler")
	}
}

func TestQueueCoalescesWaitingJobsPerUser(t *testing.T) {
	gate := make(chan struct{})
	var mu sync.Mutex
	handled := map[string]int{}
	q := NewQueue("replans", func(ctx context.Context, job Job) error {
		if job.UserID == "blocker" {
			<-gate
			return nil
		}
		mu.Lock()
		handled[job.UserID]++
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())
	defer q.Stop()

	// The single worker parks on the blocker, so the later duplicates sit in
	// the buffer where coalescing can see them.
	require.NoError(t, q.Enqueue(NewRescheduleJob("blocker")))
	require.NoError(t, q.Enqueue(NewRescheduleJob("u1")))
	require.NoError(t, q.Enqueue(NewRescheduleJob("u1")))
	require.NoError(t, q.Enqueue(NewRescheduleJob("u1")))
	close(gate)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return handled["u1"] >= 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, handled["u1"])
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	q := NewQueue("replans", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(NewRescheduleJob("u1")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 2
	}, time.Second, 5*time.Millisecond)
}
