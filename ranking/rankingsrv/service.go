// Package rankingsrv orchestrates the candidate ranking pipeline: session
// creation, similarity scoring, best-effort profile enrichment and
// leaderboard fusion.
package rankingsrv

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/Abraxas-365/shortlist/pkg/kernel"
	"github.com/Abraxas-365/shortlist/pkg/logx"
	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/Abraxas-365/shortlist/ranking/enrich"
	"github.com/Abraxas-365/shortlist/ranking/leaderboard"
	"github.com/Abraxas-365/shortlist/ranking/sessionstore"
	"github.com/Abraxas-365/shortlist/ranking/similarity"
)

// Service wires the pipeline stages together. The scorer and enricher are the
// only writers of their record types; the fuser is read-only.
type Service struct {
	store     *sessionstore.Store
	scorer    *similarity.Scorer
	enricher  *enrich.Enricher
	fuser     *leaderboard.Fuser
	extractor ranking.TextExtractor
	questions ranking.QuestionGenerator

	// Async run support, wired by EnableAsync when Redis is available.
	queue ranking.RunQueue
	runs  ranking.RunRepository
}

// NewService creates a ranking service. extractor and questions may be nil
// when the surrounding deployment does not provide those collaborators.
func NewService(
	store *sessionstore.Store,
	scorer *similarity.Scorer,
	enricher *enrich.Enricher,
	fuser *leaderboard.Fuser,
	extractor ranking.TextExtractor,
	questions ranking.QuestionGenerator,
) *Service {
	return &Service{
		store:     store,
		scorer:    scorer,
		enricher:  enricher,
		fuser:     fuser,
		extractor: extractor,
		questions: questions,
	}
}

// ============================================================================
// Session Lifecycle
// ============================================================================

// CreateSession opens a fresh, isolated session for one job posting.
func (s *Service) CreateSession(ctx context.Context, req ranking.CreateSessionRequest) (*ranking.SessionResponse, error) {
	session, err := s.store.Create(ctx, req.OwnerID, req.JobID, req.JobTitle)
	if err != nil {
		return nil, err
	}
	return ranking.ToSessionResponse(session), nil
}

// GetSession resolves an existing session.
func (s *Service) GetSession(ctx context.Context, id kernel.SessionID) (*ranking.SessionResponse, error) {
	session, err := s.store.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return ranking.ToSessionResponse(session), nil
}

// Sweep removes sessions older than maxAge and returns how many were deleted.
func (s *Service) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	return s.store.Sweep(ctx, maxAge)
}

// StoreStats returns read-only storage introspection.
func (s *Service) StoreStats(ctx context.Context) (*ranking.StoreStats, error) {
	return s.store.Stats(ctx)
}

// ============================================================================
// Pipeline Stages
// ============================================================================

// ScoreSession scores a candidate batch against the job spec inside a session.
func (s *Service) ScoreSession(ctx context.Context, id kernel.SessionID, req ranking.ScoreRequest) (*ranking.ScoreResponse, error) {
	session, err := s.store.Open(ctx, id)
	if err != nil {
		return nil, err
	}

	records, err := s.scorer.Score(ctx, session, req.JobSpecText, req.Candidates)
	if err != nil {
		return nil, err
	}
	return &ranking.ScoreResponse{SessionID: session.ID, Records: records}, nil
}

// EnrichSession enriches a candidate batch with external profile signals.
// Per-candidate failures are reported in the summary, never raised.
func (s *Service) EnrichSession(ctx context.Context, id kernel.SessionID, req ranking.EnrichRequest) (*ranking.EnrichResponse, error) {
	session, err := s.store.Open(ctx, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.enricher.Enrich(ctx, session, req.JobRequirements, req.Candidates)
	if err != nil {
		return nil, err
	}
	return &ranking.EnrichResponse{SessionID: session.ID, Summary: *summary}, nil
}

// RankSession fuses a session's signals into the final leaderboard.
func (s *Service) RankSession(ctx context.Context, id kernel.SessionID, req ranking.RankRequest) (*ranking.LeaderboardResponse, error) {
	session, err := s.store.Open(ctx, id)
	if err != nil {
		return nil, err
	}

	weights := req.Weights
	if weights.Similarity == 0 && weights.Profile == 0 {
		weights = ranking.DefaultFusionWeights()
	}

	board, err := s.fuser.Rank(ctx, session, weights, req.MinScore, req.TopN)
	if err != nil {
		return nil, err
	}
	return toLeaderboardResponse(session, board, nil), nil
}

// RunPipeline executes the whole run synchronously: create a session, score,
// enrich and rank. Enrichment is an enhancement, not a dependency, of
// ranking: if it fails wholesale the run still returns a similarity-only
// leaderboard.
func (s *Service) RunPipeline(ctx context.Context, req ranking.RunPipelineRequest) (*ranking.LeaderboardResponse, error) {
	session, err := s.store.Create(ctx, req.OwnerID, req.JobID, req.JobTitle)
	if err != nil {
		return nil, err
	}

	if _, err := s.scorer.Score(ctx, session, req.JobSpecText, req.Candidates); err != nil {
		return nil, err
	}

	summary, err := s.enricher.Enrich(ctx, session, req.JobRequirements, req.Candidates)
	if err != nil {
		logx.Warnf("Enrichment failed for session %s, ranking on similarity only: %v", session.ID, err)
		summary = nil
	}

	weights := ranking.DefaultFusionWeights()
	if req.Weights != nil {
		weights = *req.Weights
	}

	board, err := s.fuser.Rank(ctx, session, weights, req.MinScore, req.TopN)
	if err != nil {
		return nil, err
	}
	return toLeaderboardResponse(session, board, summary), nil
}

// ============================================================================
// Collaborators
// ============================================================================

// ExtractCandidates converts uploaded resume files into candidate inputs.
// Extraction errors are contained to their file.
func (s *Service) ExtractCandidates(ctx context.Context, files map[string][]byte) (*ranking.ExtractResponse, error) {
	if s.extractor == nil {
		return nil, ranking.ErrExtractionFailed().WithDetail("reason", "no text extractor configured")
	}
	if len(files) == 0 {
		return nil, ranking.ErrInvalidInput().WithDetail("field", "files")
	}

	resp := &ranking.ExtractResponse{}
	for fileName, data := range files {
		candidate := ranking.ExtractedCandidate{
			FileName: fileName,
			Name:     candidateNameFromFile(fileName),
		}
		text, err := s.extractor.ExtractText(ctx, fileName, data)
		if err != nil {
			logx.Warnf("Text extraction failed for %s: %v", fileName, err)
			candidate.Error = err.Error()
		} else {
			candidate.Text = text
		}
		resp.Candidates = append(resp.Candidates, candidate)
	}
	return resp, nil
}

// GenerateQuestions produces interview questions for one candidate.
func (s *Service) GenerateQuestions(ctx context.Context, req ranking.GenerateQuestionsRequest) (*ranking.GenerateQuestionsResponse, error) {
	if s.questions == nil {
		return nil, ranking.ErrQuestionGenFailed().WithDetail("reason", "no question generator configured")
	}
	if strings.TrimSpace(req.JobDescription) == "" || strings.TrimSpace(req.CandidateText) == "" {
		return nil, ranking.ErrInvalidInput().
			WithDetail("required", []string{"job_description", "candidate_text"})
	}

	questions, err := s.questions.GenerateQuestions(ctx, req.JobDescription, req.CandidateText, req.Count)
	if err != nil {
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeQuestionGenFailed, err)
	}
	return &ranking.GenerateQuestionsResponse{Questions: questions}, nil
}

func toLeaderboardResponse(session *ranking.Session, board *ranking.Leaderboard, summary *ranking.EnrichmentSummary) *ranking.LeaderboardResponse {
	return &ranking.LeaderboardResponse{
		SessionID:   session.ID,
		JobID:       session.JobID,
		JobTitle:    session.JobTitle,
		Entries:     board.Entries,
		Considered:  board.Considered,
		Enriched:    board.Enriched,
		FilteredOut: board.FilteredOut,
		Enrichment:  summary,
	}
}

// candidateNameFromFile derives a display name from an uploaded file name.
func candidateNameFromFile(fileName string) string {
	base := filepath.Base(fileName)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.TrimSpace(name)
}
