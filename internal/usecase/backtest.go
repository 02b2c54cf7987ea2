package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"CandleCast/internal/domain/models"
	drepo "CandleCast/internal/domain/repository"
	"CandleCast/internal/services/backtest"
	"CandleCast/internal/services/features"
	"CandleCast/internal/services/prediction"
	"CandleCast/pkg/cache"
	"CandleCast/pkg/logger"
	"CandleCast/pkg/queue"
	"CandleCast/pkg/random"
)

// BacktestJobType is the queue message type for asynchronous runs.
const BacktestJobType = "backtest:run"

// Queued runs hold a per-session advisory lock; the TTL is a fallback for
// crashed workers, normal completion releases it explicitly.
const runLockTTL = 15 * time.Minute

var (
	ErrJobNotFound        = errors.New("backtest job not found")
	ErrBacktestInProgress = errors.New("backtest already running for session")
)

func runLockKey(sessionID string) string {
	return cache.GenerateKey("backtest", "lock", sessionID)
}

type BacktestJobStatus string

const (
	JobPending   BacktestJobStatus = "pending"
	JobRunning   BacktestJobStatus = "running"
	JobCompleted BacktestJobStatus = "completed"
	JobFailed    BacktestJobStatus = "failed"
)

// BacktestJobPayload travels through the queue.
type BacktestJobPayload struct {
	JobID     string                `json:"job_id"`
	SessionID string                `json:"session_id"`
	Config    models.BacktestConfig `json:"config"`
}

// BacktestJobState is the observable state of an asynchronous run.
type BacktestJobState struct {
	ID         string                 `json:"id"`
	SessionID  string                 `json:"session_id"`
	Status     BacktestJobStatus      `json:"status"`
	Error      string                 `json:"error,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	FinishedAt time.Time              `json:"finished_at,omitempty"`
	Report     *models.BacktestReport `json:"report,omitempty"`
}

// BacktestUsecase replays a session's stored candle series through the trade
// simulator, synchronously or via the job queue.
type BacktestUsecase struct {
	store     drepo.SessionStore
	extractor *features.Extractor
	scorer    *prediction.Scorer
	seeds     random.SeedSource
	queue     queue.QueueService
	kv        cache.Service
	metrics   drepo.Metrics
	log       *logger.Logger

	mu   sync.RWMutex
	jobs map[string]*BacktestJobState
}

// NewBacktestUsecase creates a new BacktestUsecase instance.
func NewBacktestUsecase(
	store drepo.SessionStore,
	extractor *features.Extractor,
	scorer *prediction.Scorer,
	seeds random.SeedSource,
	q queue.QueueService,
	kv cache.Service,
	metrics drepo.Metrics,
	log *logger.Logger,
) *BacktestUsecase {
	return &BacktestUsecase{
		store:     store,
		extractor: extractor,
		scorer:    scorer,
		seeds:     seeds,
		queue:     q,
		kv:        kv,
		metrics:   metrics,
		log:       log,
		jobs:      make(map[string]*BacktestJobState),
	}
}

// Run executes a backtest over the session's full candle series and blocks
// until the report is ready.
func (u *BacktestUsecase) Run(ctx context.Context, sessionID string, cfg models.BacktestConfig) (*models.BacktestReport, error) {
	candles, err := u.store.Candles(ctx, sessionID, 0, -1)
	if err != nil {
		return nil, err
	}
	if len(candles) < 2 {
		return nil, fmt.Errorf("backtest needs at least 2 candles, session has %d", len(candles))
	}

	preds := u.predictions(candles)

	sim, err := backtest.NewSimulator(cfg, u.log, u.seeds)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report, err := sim.Run(candles, preds)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		u.metrics.RecordBacktest("failed", elapsed)
		u.metrics.RecordError("backtest_run")
		return nil, err
	}
	u.metrics.RecordBacktest("completed", elapsed)
	return report, nil
}

// predictions scores every series position. Positions without enough history
// get a neutral placeholder whose confidence keeps the simulator flat.
func (u *BacktestUsecase) predictions(candles []models.Candle) []models.PredictionResult {
	preds := make([]models.PredictionResult, len(candles))
	for i := range candles {
		fv, err := u.extractor.Extract(candles, i)
		if err != nil {
			preds[i] = models.PredictionResult{
				Direction:   models.DirectionUp,
				Probability: 0.5,
				Confidence:  0.1,
			}
			continue
		}
		preds[i] = u.scorer.Score(fv, u.seeds.Seed())
	}
	return preds
}

// Enqueue registers an asynchronous run and returns its job id. Only one
// queued run per session may be in flight at a time.
func (u *BacktestUsecase) Enqueue(ctx context.Context, sessionID string, cfg models.BacktestConfig) (string, error) {
	if _, err := u.store.GetSession(ctx, sessionID); err != nil {
		return "", err
	}

	locked, err := u.kv.TryLock(ctx, runLockKey(sessionID), runLockTTL)
	if err != nil {
		return "", fmt.Errorf("backtest lock: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("%w: %s", ErrBacktestInProgress, sessionID)
	}

	state := &BacktestJobState{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Status:    JobPending,
		CreatedAt: time.Now().UTC(),
	}
	u.mu.Lock()
	u.jobs[state.ID] = state
	u.mu.Unlock()

	payload := BacktestJobPayload{JobID: state.ID, SessionID: sessionID, Config: cfg}
	if err := u.queue.PublishMessage(ctx, BacktestJobType, payload); err != nil {
		u.mu.Lock()
		delete(u.jobs, state.ID)
		u.mu.Unlock()
		_ = u.kv.Unlock(ctx, runLockKey(sessionID))
		return "", fmt.Errorf("enqueue backtest: %w", err)
	}
	return state.ID, nil
}

// Job returns a snapshot of an asynchronous run's state.
func (u *BacktestUsecase) Job(_ context.Context, id string) (*BacktestJobState, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	state, ok := u.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	snapshot := *state
	return &snapshot, nil
}

func (u *BacktestUsecase) setJobStatus(id string, mutate func(*BacktestJobState)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if state, ok := u.jobs[id]; ok {
		mutate(state)
	}
}

// BacktestJob is the queue handler executing asynchronous runs.
type BacktestJob struct {
	uc *BacktestUsecase
}

// NewBacktestJob creates the queue job bound to a BacktestUsecase.
func NewBacktestJob(uc *BacktestUsecase) *BacktestJob { return &BacktestJob{uc: uc} }

func (j *BacktestJob) Name() string { return "backtest-runner" }
func (j *BacktestJob) Type() string { return BacktestJobType }

// Handle runs one queued backtest and records its outcome on the job state.
func (j *BacktestJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[BacktestJobPayload](payload)
	if err != nil {
		return fmt.Errorf("backtest job payload: %w", err)
	}

	j.uc.setJobStatus(p.JobID, func(s *BacktestJobState) { s.Status = JobRunning })
	defer func() {
		_ = j.uc.kv.Unlock(ctx, runLockKey(p.SessionID))
	}()

	report, err := j.uc.Run(ctx, p.SessionID, p.Config)
	if err != nil {
		j.uc.setJobStatus(p.JobID, func(s *BacktestJobState) {
			s.Status = JobFailed
			s.Error = err.Error()
			s.FinishedAt = time.Now().UTC()
		})
		j.uc.log.Error("queued backtest failed",
			logger.String("job_id", p.JobID),
			logger.String("session_id", p.SessionID),
			logger.Error(err))
		return nil // terminal; retrying would fail the same way
	}

	j.uc.setJobStatus(p.JobID, func(s *BacktestJobState) {
		s.Status = JobCompleted
		s.Report = report
		s.FinishedAt = time.Now().UTC()
	})
	return nil
}
