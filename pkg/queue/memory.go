package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"CandleCast/pkg/logger"
)

// MemoryQueue is an in-process QueueService backed by a buffered channel and
// a fixed worker pool. Messages do not survive a restart.
type MemoryQueue struct {
	cfg  QueueConfig
	log  *logger.Logger
	ch   chan *Message
	stop chan struct{}
	wg   sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]Job

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewMemoryQueue creates a queue with the given worker pool configuration.
func NewMemoryQueue(cfg QueueConfig, log *logger.Logger) *MemoryQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &MemoryQueue{
		cfg:  cfg,
		log:  log,
		ch:   make(chan *Message, cfg.QueueSize),
		stop: make(chan struct{}),
		jobs: make(map[string]Job),
	}
}

// Register binds a job handler to its message type. Later registrations for
// the same type win.
func (q *MemoryQueue) Register(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[job.Type()] = job
}

// Start launches the worker pool.
func (q *MemoryQueue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		for i := 0; i < q.cfg.Workers; i++ {
			q.wg.Add(1)
			go q.worker(ctx)
		}
	})
}

// Stop drains no further messages and waits for in-flight jobs to finish.
func (q *MemoryQueue) Stop() {
	q.stopOnce.Do(func() { close(q.stop) })
	q.wg.Wait()
}

// PublishMessage enqueues a message, failing fast when the queue is full.
func (q *MemoryQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	msg := &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stop:
		return fmt.Errorf("queue stopped")
	default:
		return fmt.Errorf("queue full (%d)", q.cfg.QueueSize)
	}
}

func (q *MemoryQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-q.stop:
			return
		case <-ctx.Done():
			return
		case msg := <-q.ch:
			q.handle(ctx, msg)
		}
	}
}

func (q *MemoryQueue) handle(ctx context.Context, msg *Message) {
	q.mu.RLock()
	job, ok := q.jobs[msg.Type]
	q.mu.RUnlock()
	if !ok {
		if q.log != nil {
			q.log.Warn("no job registered for message type",
				logger.String("type", msg.Type),
				logger.String("message_id", msg.ID))
		}
		return
	}

	for {
		msg.Attempts++
		err := job.Handle(ctx, msg.Payload)
		if err == nil {
			return
		}
		if q.log != nil {
			q.log.Error("job failed",
				logger.String("job", job.Name()),
				logger.String("message_id", msg.ID),
				logger.Int("attempt", msg.Attempts),
				logger.Error(err))
		}
		if msg.Attempts > q.cfg.RetryLimit {
			return
		}
		select {
		case <-time.After(q.cfg.RetryDelay):
		case <-ctx.Done():
			return
		case <-q.stop:
			return
		}
	}
}
