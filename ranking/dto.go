package ranking

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/shortlist/pkg/kernel"
)

// ============================================================================
// Request DTOs
// ============================================================================

// CreateSessionRequest - Request to open a new ranking session for a job posting
type CreateSessionRequest struct {
	OwnerID  kernel.CompanyID `json:"owner_id" validate:"required"`
	JobID    kernel.JobID     `json:"job_id" validate:"required"`
	JobTitle kernel.JobTitle  `json:"job_title"`
}

// ScoreRequest - Request to score a batch of candidates against a job spec
type ScoreRequest struct {
	JobSpecText string           `json:"job_spec_text" validate:"required"`
	Candidates  []CandidateInput `json:"candidates" validate:"required,min=1"`
}

// EnrichRequest - Request to enrich candidates with external profile signals
type EnrichRequest struct {
	JobRequirements string           `json:"job_requirements"`
	Candidates      []CandidateInput `json:"candidates" validate:"required,min=1"`
}

// RankRequest - Request to fuse signals and produce the leaderboard
type RankRequest struct {
	Weights  FusionWeights `json:"weights"`
	MinScore float64       `json:"min_score"`
	TopN     int           `json:"top_n"`
}

// RunPipelineRequest - Request to run the whole pipeline in one call:
// create session, score, enrich (best-effort), rank.
type RunPipelineRequest struct {
	OwnerID         kernel.CompanyID `json:"owner_id" validate:"required"`
	JobID           kernel.JobID     `json:"job_id" validate:"required"`
	JobTitle        kernel.JobTitle  `json:"job_title"`
	JobSpecText     string           `json:"job_spec_text" validate:"required"`
	JobRequirements string           `json:"job_requirements"`
	Candidates      []CandidateInput `json:"candidates" validate:"required,min=1"`
	Weights         *FusionWeights   `json:"weights,omitempty"`
	MinScore        float64          `json:"min_score"`
	TopN            int              `json:"top_n"`
}

// GenerateQuestionsRequest - Request interview questions for one candidate
type GenerateQuestionsRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
	CandidateText  string `json:"candidate_text" validate:"required"`
	Count          int    `json:"count"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// SessionResponse - Public view of a session
type SessionResponse struct {
	SessionID kernel.SessionID `json:"session_id"`
	OwnerID   kernel.CompanyID `json:"owner_id"`
	JobID     kernel.JobID     `json:"job_id"`
	JobTitle  kernel.JobTitle  `json:"job_title"`
	CreatedAt time.Time        `json:"created_at"`
}

// ToSessionResponse converts a session entity to its public view. The storage
// root stays private to the store.
func ToSessionResponse(s *Session) *SessionResponse {
	return &SessionResponse{
		SessionID: s.ID,
		OwnerID:   s.OwnerID,
		JobID:     s.JobID,
		JobTitle:  s.JobTitle,
		CreatedAt: s.CreatedAt,
	}
}

// ScoreResponse - Result of a scoring call
type ScoreResponse struct {
	SessionID kernel.SessionID   `json:"session_id"`
	Records   []SimilarityRecord `json:"records"`
}

// EnrichResponse - Result of an enrichment call
type EnrichResponse struct {
	SessionID kernel.SessionID  `json:"session_id"`
	Summary   EnrichmentSummary `json:"summary"`
}

// LeaderboardResponse - The ranked output plus run metadata
type LeaderboardResponse struct {
	SessionID   kernel.SessionID   `json:"session_id"`
	JobID       kernel.JobID       `json:"job_id"`
	JobTitle    kernel.JobTitle    `json:"job_title"`
	Entries     []LeaderboardEntry `json:"entries"`
	Considered  int                `json:"candidates_considered"`
	Enriched    int                `json:"candidates_enriched"`
	FilteredOut int                `json:"candidates_filtered_out"`

	// Present only on full pipeline runs.
	Enrichment *EnrichmentSummary `json:"enrichment,omitempty"`
}

// ExtractedCandidate - One file's extraction result
type ExtractedCandidate struct {
	FileName string `json:"file_name"`
	Name     string `json:"name"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ExtractResponse - Batch extraction result; failed files are reported, not fatal
type ExtractResponse struct {
	Candidates []ExtractedCandidate `json:"candidates"`
}

// GenerateQuestionsResponse - Interview questions for a candidate
type GenerateQuestionsResponse struct {
	Questions []string `json:"questions"`
}

// RunStatusResponse - Public view of an async pipeline run
type RunStatusResponse struct {
	RunID       string               `json:"run_id"`
	Status      RunStatus            `json:"status"`
	Message     string               `json:"message,omitempty"`
	SessionID   kernel.SessionID     `json:"session_id,omitempty"`
	Result      *LeaderboardResponse `json:"result,omitempty"`
	Error       string               `json:"error,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	NextRetryAt *time.Time           `json:"next_retry_at,omitempty"`
}

// ToRunStatusResponse converts a run record to its public view.
func ToRunStatusResponse(run *PipelineRun) *RunStatusResponse {
	resp := &RunStatusResponse{
		RunID:       run.ID,
		Status:      run.Status,
		SessionID:   run.SessionID,
		CreatedAt:   run.CreatedAt,
		CompletedAt: run.CompletedAt,
		NextRetryAt: run.NextRetryAt,
	}

	switch run.Status {
	case RunStatusPending:
		resp.Message = "Run queued and waiting to be processed"
		if run.AttemptCount > 0 {
			resp.Message = fmt.Sprintf("Run pending retry (attempt %d/%d)", run.AttemptCount, run.MaxAttempts)
		}
	case RunStatusProcessing:
		resp.Message = "Run in progress"
	case RunStatusCompleted:
		resp.Message = "Run completed"
		resp.Result = run.Result
	case RunStatusFailed:
		resp.Message = "Run failed"
		resp.Error = run.ErrorMessage
	}
	return resp
}
