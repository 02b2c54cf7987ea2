package server

import (
	"context"

	applogger "CandleCast/pkg/logger"
	"CandleCast/pkg/queue"
)

const errorDigestTopic = "logs:error-digest"

// errorDigestJob consumes aggregated error batches flushed by the log
// collector and re-emits them as a single Info-level digest per entry.
// Repeated errors collapse into one line with a count instead of flooding
// the output.
type errorDigestJob struct {
	log *applogger.Logger
}

func newErrorDigestJob(log *applogger.Logger) *errorDigestJob {
	return &errorDigestJob{log: log}
}

func (j *errorDigestJob) Type() string { return errorDigestTopic }
func (j *errorDigestJob) Name() string { return "error-digest" }

func (j *errorDigestJob) Handle(_ context.Context, payload interface{}) error {
	entries, err := queue.ParsePayload[[]applogger.AggregatedLogEntry](payload)
	if err != nil {
		return err
	}
	for _, e := range *entries {
		j.log.Info("error digest",
			applogger.String("message", e.Message),
			applogger.String("caller", e.Caller),
			applogger.Int("count", e.Count),
			applogger.String("first_seen", e.FirstSeen.Format("15:04:05")),
			applogger.String("last_seen", e.LastSeen.Format("15:04:05")))
	}
	return nil
}
