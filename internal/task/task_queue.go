package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Errors returned by TaskQueue.Enqueue.
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue is the bounded buffer between Submit and the workers. A full
// buffer rejects the task instead of blocking the producer. After Close the
// workers still receive everything accepted before it.
type TaskQueue struct {
	mu      sync.RWMutex // write-held only by Close
	pending chan Task
	stopped bool
	logger  *slog.Logger
}

// NewTaskQueue creates a queue holding up to capacity tasks (at least one).
func NewTaskQueue(capacity int, logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskQueue{
		pending: make(chan Task, max(capacity, 1)),
		logger:  logger.With(slog.String("component", "task_queue")),
	}
}

// Enqueue accepts t or fails at once with ErrQueueFull or ErrQueueClosed.
func (q *TaskQueue) Enqueue(t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		return fmt.Errorf("%w: %s task %s rejected", ErrQueueClosed, t.Type(), t.ID())
	}
	select {
	case q.pending <- t:
	default:
		return fmt.Errorf("%w: %d of %d slots taken", ErrQueueFull, len(q.pending), cap(q.pending))
	}

	q.logger.Debug("task queued",
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.Int("pending", len(q.pending)))
	return nil
}

// Len reports how many accepted tasks no worker has picked up yet.
func (q *TaskQueue) Len() int {
	return len(q.pending)
}

// Close stops accepting tasks. It may be called more than once.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.stopped = true
	close(q.pending)
	q.logger.Debug("task queue closed", slog.Int("pending", len(q.pending)))
}

// Tasks is the receive side the workers range over. It is closed, once
// drained, after Close.
func (q *TaskQueue) Tasks() <-chan Task {
	return q.pending
}
