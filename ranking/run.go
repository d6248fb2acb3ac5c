package ranking

import (
	"path"
	"time"

	"github.com/Abraxas-365/shortlist/pkg/kernel"
)

// RunStatus is the lifecycle state of an asynchronous pipeline run.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// PipelineRun tracks one queued pipeline execution from submission to its
// final leaderboard. The original request rides along so a dequeued run is
// self-contained and retries need no extra lookups.
type PipelineRun struct {
	ID           string             `json:"run_id"`
	OwnerID      kernel.CompanyID   `json:"owner_id"`
	Status       RunStatus          `json:"status"`
	Request      RunPipelineRequest `json:"request"`
	AttemptCount int                `json:"attempt_count"`
	MaxAttempts  int                `json:"max_attempts"`

	SessionID    kernel.SessionID     `json:"session_id,omitempty"`
	Result       *LeaderboardResponse `json:"result,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// RunRecordPath returns the storage path of a run record. Runs live outside
// the per-session roots: a run exists before its session does.
func RunRecordPath(id string) string {
	return path.Join("runs", id+".json")
}

// CanRetry reports whether the run has attempts left.
func (r *PipelineRun) CanRetry() bool {
	return r.AttemptCount < r.MaxAttempts
}
