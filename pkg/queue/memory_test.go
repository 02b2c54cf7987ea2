package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	typ      string
	failures int32
	handled  atomic.Int32
}

func (j *countingJob) Name() string { return "counting-" + j.typ }
func (j *countingJob) Type() string { return j.typ }

func (j *countingJob) Handle(_ context.Context, _ interface{}) error {
	n := j.handled.Add(1)
	if n <= j.failures {
		return fmt.Errorf("transient failure %d", n)
	}
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached within deadline")
}

func TestMemoryQueueDelivers(t *testing.T) {
	job := &countingJob{typ: "work"}
	q := NewMemoryQueue(QueueConfig{Workers: 2, QueueSize: 8, RetryLimit: 0, RetryDelay: time.Millisecond}, nil)
	q.Register(job)
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 4; i++ {
		if err := q.PublishMessage(context.Background(), "work", i); err != nil {
			t.Fatalf("PublishMessage: %v", err)
		}
	}
	waitFor(t, func() bool { return job.handled.Load() == 4 })
}

func TestMemoryQueueRetries(t *testing.T) {
	job := &countingJob{typ: "flaky", failures: 2}
	q := NewMemoryQueue(QueueConfig{Workers: 1, QueueSize: 4, RetryLimit: 3, RetryDelay: time.Millisecond}, nil)
	q.Register(job)
	q.Start(context.Background())
	defer q.Stop()

	if err := q.PublishMessage(context.Background(), "flaky", nil); err != nil {
		t.Fatalf("PublishMessage: %v", err)
	}
	// two failures then one success
	waitFor(t, func() bool { return job.handled.Load() == 3 })
}

func TestMemoryQueueFull(t *testing.T) {
	q := NewMemoryQueue(QueueConfig{Workers: 1, QueueSize: 1}, nil)
	// not started: nothing drains the channel
	if err := q.PublishMessage(context.Background(), "work", nil); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := q.PublishMessage(context.Background(), "work", nil); err == nil {
		t.Fatalf("expected queue full error")
	}
}

func TestParsePayloadRoundTrip(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	direct, err := ParsePayload[payload](payload{Name: "a", Count: 2})
	if err != nil || direct.Count != 2 {
		t.Fatalf("direct payload: %+v, %v", direct, err)
	}

	fromMap, err := ParsePayload[payload](map[string]interface{}{"name": "b", "count": 3})
	if err != nil || fromMap.Name != "b" || fromMap.Count != 3 {
		t.Fatalf("map payload: %+v, %v", fromMap, err)
	}

	if _, err := ParsePayload[payload](42); err == nil {
		t.Fatalf("expected error for unsupported payload type")
	}
}
