package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// QueueService is the publishing side of the job queue. Consumers register
// Job handlers with the concrete queue implementation.
type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// QueueConfig sizes the worker pool and its retry policy.
type QueueConfig struct {
	Workers    int
	QueueSize  int
	RetryLimit int
	RetryDelay time.Duration
}

// Message is one unit of work in flight. Attempts counts deliveries to a
// handler, including the first.
type Message struct {
	ID        string
	Type      string
	Payload   interface{}
	Attempts  int
	Timestamp time.Time
}

// ParsePayload recovers a typed payload. In-process publishers hand over the
// value directly; payloads that crossed a serialization boundary arrive as
// generic JSON shapes and are decoded.
func ParsePayload[T any](payload interface{}) (*T, error) {
	var result T

	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return &result, nil
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("re-encode payload: %w", err)
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return &result, nil
	default:
		return nil, fmt.Errorf("unexpected payload type %T", payload)
	}
}
