package notification

import (
	"context"
	"log"
)

// Sender delivers a notice over one channel (Telegram group, web push, ...).
type Sender interface {
	Name() string
	Send(ctx context.Context, n Notice) error
}

// WorkerPool fans notices out to all configured senders from a fixed set of
// workers, keeping slow notification channels off the request path.
type WorkerPool struct {
	size    int
	jobs    chan Notice
	senders []Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, senders ...Sender) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Notice, size*4),
		senders: senders,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// Dispatch enqueues a notice. When the queue is full the notice is dropped
// with a log line rather than blocking the caller: notifications are a side
// channel and must not stall lifecycle operations.
func (wp *WorkerPool) Dispatch(n Notice) {
	select {
	case wp.jobs <- n:
	default:
		log.Printf("notification queue full, dropping %s notice for reservation %d", n.Kind, n.ReservationID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Notice {
	return wp.jobs
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	for {
		select {
		case n := <-wp.jobs:
			wp.deliver(ctx, n)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

func (wp *WorkerPool) deliver(ctx context.Context, n Notice) {
	for _, s := range wp.senders {
		if err := s.Send(ctx, n); err != nil {
			log.Printf("Error sending %s notice for reservation %d via %s: %v",
				n.Kind, n.ReservationID, s.Name(), err)
		}
	}
}
