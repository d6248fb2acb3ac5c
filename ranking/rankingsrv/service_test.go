package rankingsrv

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Abraxas-365/shortlist/pkg/errx"
	"github.com/Abraxas-365/shortlist/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/Abraxas-365/shortlist/ranking/enrich"
	"github.com/Abraxas-365/shortlist/ranking/leaderboard"
	"github.com/Abraxas-365/shortlist/ranking/sessionstore"
	"github.com/Abraxas-365/shortlist/ranking/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAnalyzer maps external ids to fixed match scores.
type stubAnalyzer struct {
	scores map[string]float64
	err    error
}

func (s *stubAnalyzer) AnalyzeProfile(ctx context.Context, externalID string, jobRequirements string) (*ranking.ProfileAnalysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	score, ok := s.scores[externalID]
	if !ok {
		return nil, errors.New("unknown profile")
	}
	return &ranking.ProfileAnalysis{
		Stats:      json.RawMessage(`{"login":"` + externalID + `"}`),
		MatchScore: &score,
	}, nil
}

func newTestService(t *testing.T, analyzer ranking.ProfileAnalyzer) *Service {
	t.Helper()
	fs, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)
	return NewService(
		sessionstore.New(fs),
		similarity.NewScorer(fs),
		enrich.NewEnricher(fs, analyzer, 2),
		leaderboard.NewFuser(fs),
		nil,
		nil,
	)
}

func TestRunPipeline_EndToEnd(t *testing.T) {
	analyzer := &stubAnalyzer{scores: map[string]float64{"alice": 0.7}}
	service := newTestService(t, analyzer)

	resp, err := service.RunPipeline(context.Background(), ranking.RunPipelineRequest{
		OwnerID:         "acme",
		JobID:           "job-1",
		JobTitle:        "Backend Engineer",
		JobSpecText:     "Python backend developer with Django experience",
		JobRequirements: "Python Django PostgreSQL",
		Candidates: []ranking.CandidateInput{
			{Name: "Alice", RawText: "Python Django backend engineer, profile github.com/alice"},
			{Name: "Bob", RawText: "Frontend designer working in Figma"},
		},
	})
	require.NoError(t, err)

	assert.False(t, resp.SessionID.IsEmpty())
	assert.Equal(t, 2, resp.Considered)
	assert.Equal(t, 1, resp.Enriched)
	require.NotNil(t, resp.Enrichment)
	assert.Equal(t, 1, resp.Enrichment.Generated)
	assert.Equal(t, 1, resp.Enrichment.Skipped)

	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "Alice", resp.Entries[0].CandidateName)
	assert.Equal(t, 1, resp.Entries[0].Rank)
	assert.Equal(t, "Bob", resp.Entries[1].CandidateName)
	assert.Greater(t, resp.Entries[0].CombinedScore, resp.Entries[1].CombinedScore)
}

func TestRunPipeline_EnrichmentFailureDegradesToSimilarity(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("github down")}
	service := newTestService(t, analyzer)

	resp, err := service.RunPipeline(context.Background(), ranking.RunPipelineRequest{
		OwnerID:     "acme",
		JobID:       "job-1",
		JobTitle:    "Backend Engineer",
		JobSpecText: "Python backend developer",
		Candidates: []ranking.CandidateInput{
			{Name: "Alice", RawText: "Python backend, github.com/alice"},
		},
	})
	require.NoError(t, err, "a failed enrichment must not fail the run")

	require.Len(t, resp.Entries, 1)
	assert.Equal(t, []string{ranking.SignalSimilarity}, resp.Entries[0].ComponentsUsed)
}

func TestScoreThenRank_AcrossCalls(t *testing.T) {
	service := newTestService(t, &stubAnalyzer{scores: map[string]float64{}})
	ctx := context.Background()

	session, err := service.CreateSession(ctx, ranking.CreateSessionRequest{
		OwnerID:  "acme",
		JobID:    "job-1",
		JobTitle: "Backend Engineer",
	})
	require.NoError(t, err)

	_, err = service.ScoreSession(ctx, session.SessionID, ranking.ScoreRequest{
		JobSpecText: "Go engineer",
		Candidates: []ranking.CandidateInput{
			{Name: "Alice", RawText: "Go engineer"},
		},
	})
	require.NoError(t, err)

	board, err := service.RankSession(ctx, session.SessionID, ranking.RankRequest{})
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Alice", board.Entries[0].CandidateName)
}

func TestRankSession_BeforeScoringIsNotFound(t *testing.T) {
	service := newTestService(t, &stubAnalyzer{})
	ctx := context.Background()

	session, err := service.CreateSession(ctx, ranking.CreateSessionRequest{
		OwnerID:  "acme",
		JobID:    "job-1",
		JobTitle: "Backend Engineer",
	})
	require.NoError(t, err)

	_, err = service.RankSession(ctx, session.SessionID, ranking.RankRequest{})
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ranking.CodeSessionNotFound))
}

func TestGenerateQuestions_Unconfigured(t *testing.T) {
	service := newTestService(t, &stubAnalyzer{})

	_, err := service.GenerateQuestions(context.Background(), ranking.GenerateQuestionsRequest{
		JobDescription: "Go engineer",
		CandidateText:  "resume",
	})
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ranking.CodeQuestionGenFailed))
}

func TestCandidateNameFromFile(t *testing.T) {
	assert.Equal(t, "jane doe", candidateNameFromFile("jane_doe.pdf"))
	assert.Equal(t, "john smith", candidateNameFromFile("uploads/john-smith.txt"))
	assert.Equal(t, "resume", candidateNameFromFile("resume"))
}
