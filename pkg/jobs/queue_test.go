package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDeliversPayload(t *testing.T) {
	got := make(chan string, 1)
	q := New("otp", func(_ context.Context, job Job[string]) error {
		got <- job.Payload
		return nil
	}, Config{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(context.Background(), "budi@school.id")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case payload := <-got:
		assert.Equal(t, "budi@school.id", payload)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not delivered")
	}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	done := make(chan int, 1)
	q := New("otp", func(_ context.Context, job Job[int]) error {
		if calls.Add(1) < 3 {
			return errors.New("smtp unavailable")
		}
		done <- job.Attempt
		return nil
	}, Config{MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(context.Background(), 1)
	require.NoError(t, err)

	select {
	case attempt := <-done:
		assert.Equal(t, 2, attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed after retries")
	}
}

func TestQueueRejectsWhenStopped(t *testing.T) {
	q := New("otp", func(context.Context, Job[int]) error { return nil }, Config{})
	_, err := q.Enqueue(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStopped)

	q.Start(context.Background())
	q.Stop()
	_, err = q.Enqueue(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStopped)
}
