package queue

import "context"

// Job consumes messages of one type from the queue.
type Job interface {
	// Name identifies the handler in logs.
	Name() string

	// Type is the message type this job consumes.
	Type() string

	// Handle processes one payload. A non-nil error triggers the queue's
	// retry policy.
	Handle(ctx context.Context, payload interface{}) error
}
