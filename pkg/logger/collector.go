package logger

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"
)

// Publisher receives batches of aggregated log entries.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

// CollectionConfig controls how error logs are batched before publishing.
type CollectionConfig struct {
	TimeInterval   time.Duration // flush period
	CountThreshold int           // flush early once this many distinct entries accumulate
	Topic          string        // message type handed to the publisher
	Publisher      Publisher
}

// AggregatedLogEntry is one distinct log line with its occurrence count over
// the collection window.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector deduplicates repeated log lines and periodically publishes
// them as a batch. Identity is level+message+caller+fields.
type LogCollector struct {
	cfg    *CollectionConfig
	mu     sync.Mutex
	byKey  map[uint64]*AggregatedLogEntry
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLogCollector(cfg *CollectionConfig) *LogCollector {
	ctx, cancel := context.WithCancel(context.Background())
	c := &LogCollector{
		cfg:    cfg,
		byKey:  make(map[uint64]*AggregatedLogEntry),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run(ctx)
	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byKey[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.byKey[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}

	if len(c.byKey) >= c.cfg.CountThreshold {
		c.flushLocked()
	}
}

func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%s", level, message, caller)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(h, "\x00%s=%v", name, fields[name])
	}
	return h.Sum64()
}

func (c *LogCollector) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
		case <-ctx.Done():
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
			return
		}
	}
}

// flushLocked hands the accumulated batch to the publisher. Publishing runs
// outside the lock so a slow publisher cannot stall logging.
func (c *LogCollector) flushLocked() {
	if len(c.byKey) == 0 {
		return
	}

	batch := make([]AggregatedLogEntry, 0, len(c.byKey))
	for _, e := range c.byKey {
		batch = append(batch, *e)
	}
	c.byKey = make(map[uint64]*AggregatedLogEntry)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch); err != nil {
			fmt.Printf("log collector: publish failed: %v\n", err)
		}
	}()
}

func (c *LogCollector) Close() {
	c.cancel()
	<-c.done
}
