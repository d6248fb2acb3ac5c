package rankingsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/shortlist/pkg/logx"
	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/google/uuid"
)

// MaxRunAttempts bounds automatic retries of a queued pipeline run.
const MaxRunAttempts = 3

// EnableAsync wires the run queue and run repository into the service. Without
// it SubmitRun and GetRunStatus report the feature as unavailable.
func (s *Service) EnableAsync(queue ranking.RunQueue, runs ranking.RunRepository) {
	s.queue = queue
	s.runs = runs
}

// AsyncEnabled reports whether queued runs are available.
func (s *Service) AsyncEnabled() bool {
	return s.queue != nil && s.runs != nil
}

// SubmitRun queues a full pipeline run for background processing and returns
// immediately with the run's id.
func (s *Service) SubmitRun(ctx context.Context, req ranking.RunPipelineRequest) (*ranking.RunStatusResponse, error) {
	if !s.AsyncEnabled() {
		return nil, ranking.ErrQueueFailed().WithDetail("reason", "async runs are not configured")
	}

	run := &ranking.PipelineRun{
		ID:          uuid.NewString(),
		OwnerID:     req.OwnerID,
		Status:      ranking.RunStatusPending,
		Request:     req,
		MaxAttempts: MaxRunAttempts,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.runs.Save(ctx, run); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, run.ID, run); err != nil {
		s.markRunFailed(ctx, run, "failed to enqueue: "+err.Error())
		return nil, ranking.ErrQueueFailed().
			WithDetail("run_id", run.ID).
			WithDetail("error", err.Error())
	}

	logx.Infof("Run queued: RunID=%s, OwnerID=%s, JobID=%s", run.ID, req.OwnerID, req.JobID)
	return ranking.ToRunStatusResponse(run), nil
}

// GetRunStatus resolves the current state of a queued run.
func (s *Service) GetRunStatus(ctx context.Context, id string) (*ranking.RunStatusResponse, error) {
	if !s.AsyncEnabled() {
		return nil, ranking.ErrQueueFailed().WithDetail("reason", "async runs are not configured")
	}

	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ranking.ToRunStatusResponse(run), nil
}

// QueueStats returns run queue depth for the stats endpoint.
func (s *Service) QueueStats(ctx context.Context) (map[string]any, error) {
	if !s.AsyncEnabled() {
		return nil, nil
	}
	return s.queue.Stats(ctx)
}

// ProcessRun executes one dequeued run. Called by the run worker; failures are
// retried with exponential backoff until MaxAttempts is exhausted.
func (s *Service) ProcessRun(ctx context.Context, run *ranking.PipelineRun) error {
	logx.Infof("Processing run: RunID=%s, Attempt=%d/%d", run.ID, run.AttemptCount+1, run.MaxAttempts)

	now := time.Now().UTC()
	run.Status = ranking.RunStatusProcessing
	run.StartedAt = &now
	if err := s.runs.Save(ctx, run); err != nil {
		logx.Errorf("Failed to mark run %s as processing: %v", run.ID, err)
	}

	result, err := s.RunPipeline(ctx, run.Request)
	if err != nil {
		return s.handleRunError(ctx, run, err)
	}

	done := time.Now().UTC()
	run.Status = ranking.RunStatusCompleted
	run.SessionID = result.SessionID
	run.Result = result
	run.CompletedAt = &done
	run.ErrorMessage = ""
	run.NextRetryAt = nil
	if err := s.runs.Save(ctx, run); err != nil {
		// The session and its records exist; only the status record lags.
		logx.Errorf("Failed to mark run %s as completed: %v", run.ID, err)
		return err
	}

	logx.Infof("Run completed: RunID=%s, SessionID=%s", run.ID, run.SessionID)
	return nil
}

// handleRunError requeues the run with exponential backoff, or marks it
// permanently failed once attempts are exhausted.
func (s *Service) handleRunError(ctx context.Context, run *ranking.PipelineRun, cause error) error {
	run.AttemptCount++

	if run.CanRetry() {
		retryDelay := time.Duration(1<<uint(run.AttemptCount)) * time.Minute
		nextRetry := time.Now().UTC().Add(retryDelay)
		run.Status = ranking.RunStatusPending
		run.ErrorMessage = cause.Error()
		run.NextRetryAt = &nextRetry

		logx.Warnf("Run failed, will retry: RunID=%s, Attempt=%d/%d, NextRetry=%v, Error=%v",
			run.ID, run.AttemptCount, run.MaxAttempts, nextRetry, cause)

		if queueErr := s.queue.EnqueueDelayed(ctx, run.ID, run, retryDelay); queueErr != nil {
			logx.Errorf("Failed to enqueue run %s for retry: %v", run.ID, queueErr)
			s.markRunFailed(ctx, run, cause.Error()+" (retry enqueue failed)")
			return queueErr
		}

		if err := s.runs.Save(ctx, run); err != nil {
			logx.Errorf("Failed to update run %s for retry: %v", run.ID, err)
		}
		return cause
	}

	logx.Errorf("Run permanently failed: RunID=%s, Attempts=%d/%d, Error=%v",
		run.ID, run.AttemptCount, run.MaxAttempts, cause)
	s.markRunFailed(ctx, run, cause.Error())
	return cause
}

func (s *Service) markRunFailed(ctx context.Context, run *ranking.PipelineRun, message string) {
	now := time.Now().UTC()
	run.Status = ranking.RunStatusFailed
	run.ErrorMessage = message
	run.FailedAt = &now
	run.NextRetryAt = nil
	if err := s.runs.Save(ctx, run); err != nil {
		logx.Errorf("Failed to mark run %s as failed: %v", run.ID, err)
	}
}
