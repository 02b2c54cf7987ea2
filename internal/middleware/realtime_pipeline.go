package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CandleCast/internal/domain/models"
	domrepo "CandleCast/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, c *models.Candle) error
}

// RealtimePipeline sits between the exchange WebSocket and the session
// store. It validates, throttles, optionally transforms, and buffers candles
// when downstream is unavailable.
type RealtimePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxRPS  int
	bufSize int
	bufCh   chan *models.Candle
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	// last accepted candle time, the stream carries a single symbol
	lastSeen time.Time
	// simple format transform hook (optional)
	transform func(*models.Candle) *models.Candle
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max candles accepted per second.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to modify candles in flight.
func WithTransform(fn func(*models.Candle) *models.Candle) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:    proc,
		metrics: metrics,
		maxRPS:  20,   // default throttle
		bufSize: 1000, // default buffer
		bufCh:   make(chan *models.Candle, 1000),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Candle, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered candles.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case c := <-p.bufCh:
				if c == nil {
					continue
				}
				if err := p.proc.Process(ctx, c); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- c:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a candle downstream, buffering
// on errors.
func (p *RealtimePipeline) Process(ctx context.Context, c *models.Candle) error {
	start := time.Now()
	if err := validateCandle(c); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		c = p.transform(c)
		if err := validateCandle(c); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, c); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- c:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	return nil
}

func validateCandle(c *models.Candle) error {
	if c == nil {
		return fmt.Errorf("candle nil")
	}
	if c.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	return c.Validate()
}

func (p *RealtimePipeline) allow(now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastSeen.IsZero() || now.Sub(p.lastSeen) >= time.Second/time.Duration(p.maxRPS) {
		p.lastSeen = now
		return true
	}
	return false
}
