package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRunner_Defaults(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{}, nil)
	assert.Equal(t, DefaultTaskRunnerConfig(), runner.config)
	assert.Equal(t, DefaultTaskRunnerConfig().QueueSize, cap(runner.queue.Tasks()))
}

func TestTaskRunner_ExecutesSubmittedTasks(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 3, QueueSize: 50}, setupTestLogger())
	runner.Start()

	var executed atomic.Int32
	for i := 0; i < 20; i++ {
		task := newTestTask()
		task.run = func(ctx context.Context) error {
			executed.Add(1)
			return nil
		}
		require.NoError(t, runner.Submit(context.Background(), task))
	}

	// Stop drains everything already queued
	runner.Stop()
	assert.Equal(t, int32(20), executed.Load())
}

func TestTaskRunner_Submit(t *testing.T) {
	t.Parallel()

	t.Run("queue full", func(t *testing.T) {
		t.Parallel()

		// Not started, so nothing consumes the queue
		runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, setupTestLogger())
		require.NoError(t, runner.Submit(context.Background(), newTestTask()))

		err := runner.Submit(context.Background(), newTestTask())
		assert.ErrorIs(t, err, ErrQueueFull)
	})

	t.Run("after stop", func(t *testing.T) {
		t.Parallel()

		runner := NewTaskRunner(DefaultTaskRunnerConfig(), setupTestLogger())
		runner.Start()
		runner.Stop()

		err := runner.Submit(context.Background(), newTestTask())
		assert.ErrorIs(t, err, ErrQueueClosed)
	})
}

func TestTaskRunner_ErrorHandler(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 5}, setupTestLogger())

	var (
		mu     sync.Mutex
		failed []error
	)
	runner.SetErrorHandler(func(task Task, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, err)
	})
	runner.Start()

	errBoom := errors.New("boom")
	failing := newTestTask()
	failing.run = func(ctx context.Context) error { return errBoom }
	panicking := newTestTask()
	panicking.run = func(ctx context.Context) error { panic("kaboom") }
	ok := newTestTask()

	require.NoError(t, runner.Submit(context.Background(), failing))
	require.NoError(t, runner.Submit(context.Background(), panicking))
	require.NoError(t, runner.Submit(context.Background(), ok))
	runner.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failed, 2)
	assert.ErrorIs(t, failed[0], errBoom)
	assert.Contains(t, failed[1].Error(), "kaboom")
}

func TestTaskRunner_ContextCancelledAfterStop(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, setupTestLogger())
	runner.Start()

	ctxCh := make(chan context.Context, 1)
	task := newTestTask()
	task.run = func(ctx context.Context) error {
		ctxCh <- ctx
		return nil
	}
	require.NoError(t, runner.Submit(context.Background(), task))
	runner.Stop()

	select {
	case ctx := <-ctxCh:
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("task was not executed")
	}
}
