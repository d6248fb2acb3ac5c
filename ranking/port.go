package ranking

import (
	"context"
	"encoding/json"
	"time"
)

// ProfileAnalysis is what the external profile analysis service returns for a
// resolved identifier. Stats is an opaque pass-through payload. MatchScore is
// normalized to [0,1] and present only when job requirements were supplied
// and the service produced a score.
type ProfileAnalysis struct {
	Stats      json.RawMessage `json:"stats"`
	MatchScore *float64        `json:"match_score,omitempty"`
}

// ProfileAnalyzer is the port to the external profile analysis service.
// Implementations are network-bound, rate-limited and fallible; callers treat
// every error as a per-candidate skip.
type ProfileAnalyzer interface {
	AnalyzeProfile(ctx context.Context, externalID string, jobRequirements string) (*ProfileAnalysis, error)
}

// TextExtractor is the port to the resume text extraction collaborator.
// Errors are per-file and must not abort a batch.
type TextExtractor interface {
	ExtractText(ctx context.Context, fileName string, data []byte) (string, error)
}

// QuestionGenerator is the port to the remote question-generation service.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, jobDescription, resumeText string, count int) ([]string, error)
}

// RunQueue is the port to the async run queue. Dequeue blocks up to timeout
// and returns (nil, nil) when the queue stays empty.
type RunQueue interface {
	Enqueue(ctx context.Context, runID string, payload any) error
	Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error)
	EnqueueDelayed(ctx context.Context, runID string, payload any, delay time.Duration) error
	MoveDelayedToReady(ctx context.Context) (int, error)
	Stats(ctx context.Context) (map[string]any, error)
}

// RunRepository persists pipeline run records. Save covers both creation and
// updates; run records are single-writer at any point in their lifecycle.
type RunRepository interface {
	Save(ctx context.Context, run *PipelineRun) error
	Get(ctx context.Context, id string) (*PipelineRun, error)
}
