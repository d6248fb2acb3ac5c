package leaderboard

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Abraxas-365/shortlist/pkg/errx"
	"github.com/Abraxas-365/shortlist/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFuser(t *testing.T) (*Fuser, *fsxlocal.LocalFileSystem) {
	t.Helper()
	fs, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)
	return NewFuser(fs), fs
}

func testSession() *ranking.Session {
	return &ranking.Session{
		ID:       "test-session",
		RootPath: "sessions/test-session",
	}
}

func seedSimilarity(t *testing.T, fs *fsxlocal.LocalFileSystem, session *ranking.Session, table ranking.SimilarityTable) {
	t.Helper()
	data, err := json.Marshal(table)
	require.NoError(t, err)
	require.NoError(t, fs.WriteFile(context.Background(), session.SimilarityPath(), data))
}

func seedEnrichment(t *testing.T, fs *fsxlocal.LocalFileSystem, session *ranking.Session, name string, matchScore *float64) {
	t.Helper()
	record := ranking.EnrichmentRecord{
		CandidateName:     name,
		ExternalID:        "gh-" + name,
		ProfileMatchScore: matchScore,
	}
	data, err := json.Marshal(record)
	require.NoError(t, err)
	require.NoError(t, fs.WriteFile(context.Background(), session.EnrichmentPath(name), data))
}

func score(v float64) *float64 { return &v }

func TestRank_FusesBothSignals(t *testing.T) {
	fuser, fs := newTestFuser(t)
	session := testSession()
	seedSimilarity(t, fs, session, ranking.SimilarityTable{"alice": 0.9, "bob": 0.6})
	seedEnrichment(t, fs, session, "alice", score(0.7))

	board, err := fuser.Rank(context.Background(), session, ranking.DefaultFusionWeights(), 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, board.Considered)
	assert.Equal(t, 1, board.Enriched)
	assert.Zero(t, board.FilteredOut)
	require.Len(t, board.Entries, 2)

	alice := board.Entries[0]
	assert.Equal(t, 1, alice.Rank)
	assert.Equal(t, "alice", alice.CandidateName)
	assert.InDelta(t, 0.8, alice.CombinedScore, 1e-9) // 0.5*0.9 + 0.5*0.7
	assert.InDelta(t, 0.9, alice.SimilarityScore, 1e-9)
	require.NotNil(t, alice.ProfileMatchScore)
	assert.InDelta(t, 0.7, *alice.ProfileMatchScore, 1e-9)
	assert.Equal(t, []string{ranking.SignalSimilarity, ranking.SignalProfile}, alice.ComponentsUsed)

	bob := board.Entries[1]
	assert.Equal(t, 2, bob.Rank)
	assert.Equal(t, "bob", bob.CandidateName)
	assert.InDelta(t, 0.6, bob.CombinedScore, 1e-9, "missing signal renormalizes to similarity alone")
	assert.Nil(t, bob.ProfileMatchScore)
	assert.Equal(t, []string{ranking.SignalSimilarity}, bob.ComponentsUsed)
}

func TestRank_NilMatchScoreCountsAsMissing(t *testing.T) {
	fuser, fs := newTestFuser(t)
	session := testSession()
	seedSimilarity(t, fs, session, ranking.SimilarityTable{"alice": 0.9})
	seedEnrichment(t, fs, session, "alice", nil)

	board, err := fuser.Rank(context.Background(), session, ranking.DefaultFusionWeights(), 0, 0)
	require.NoError(t, err)

	assert.Zero(t, board.Enriched)
	require.Len(t, board.Entries, 1)
	assert.InDelta(t, 0.9, board.Entries[0].CombinedScore, 1e-9)
	assert.Equal(t, []string{ranking.SignalSimilarity}, board.Entries[0].ComponentsUsed)
}

func TestRank_MinScoreFilters(t *testing.T) {
	fuser, fs := newTestFuser(t)
	session := testSession()
	seedSimilarity(t, fs, session, ranking.SimilarityTable{"alice": 0.9, "bob": 0.6})
	seedEnrichment(t, fs, session, "alice", score(0.7))

	board, err := fuser.Rank(context.Background(), session, ranking.DefaultFusionWeights(), 0.65, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, board.FilteredOut)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "alice", board.Entries[0].CandidateName)
	assert.Equal(t, 1, board.Entries[0].Rank)
}

func TestRank_TopNTruncates(t *testing.T) {
	fuser, fs := newTestFuser(t)
	session := testSession()
	seedSimilarity(t, fs, session, ranking.SimilarityTable{
		"alice": 0.9, "bob": 0.8, "carol": 0.7, "dave": 0.6,
	})

	board, err := fuser.Rank(context.Background(), session, ranking.DefaultFusionWeights(), 0, 2)
	require.NoError(t, err)

	require.Len(t, board.Entries, 2)
	assert.Equal(t, "alice", board.Entries[0].CandidateName)
	assert.Equal(t, "bob", board.Entries[1].CandidateName)
	assert.Equal(t, 4, board.Considered, "truncation does not change what was considered")
	assert.Zero(t, board.FilteredOut, "truncation is not filtering")
}

func TestRank_TiesBreakByName(t *testing.T) {
	fuser, fs := newTestFuser(t)
	session := testSession()
	seedSimilarity(t, fs, session, ranking.SimilarityTable{
		"zoe": 0.7, "anna": 0.7, "mila": 0.7,
	})

	board, err := fuser.Rank(context.Background(), session, ranking.DefaultFusionWeights(), 0, 0)
	require.NoError(t, err)

	require.Len(t, board.Entries, 3)
	assert.Equal(t, "anna", board.Entries[0].CandidateName)
	assert.Equal(t, "mila", board.Entries[1].CandidateName)
	assert.Equal(t, "zoe", board.Entries[2].CandidateName)
	for i, entry := range board.Entries {
		assert.Equal(t, i+1, entry.Rank, "ranks are dense and 1-based")
	}
}

func TestRank_CustomWeightsClampToUnitRange(t *testing.T) {
	fuser, fs := newTestFuser(t)
	session := testSession()
	seedSimilarity(t, fs, session, ranking.SimilarityTable{"alice": 0.9})
	seedEnrichment(t, fs, session, "alice", score(0.9))

	weights := ranking.FusionWeights{Similarity: 1, Profile: 1}
	board, err := fuser.Rank(context.Background(), session, weights, 0, 0)
	require.NoError(t, err)

	require.Len(t, board.Entries, 1)
	assert.InDelta(t, 1.0, board.Entries[0].CombinedScore, 1e-9)
}

func TestRank_UnscoredSessionIsNotFound(t *testing.T) {
	fuser, _ := newTestFuser(t)

	_, err := fuser.Rank(context.Background(), testSession(), ranking.DefaultFusionWeights(), 0, 0)
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ranking.CodeSessionNotFound))
}

func TestRank_SkipsUnreadableEnrichmentRecord(t *testing.T) {
	fuser, fs := newTestFuser(t)
	session := testSession()
	seedSimilarity(t, fs, session, ranking.SimilarityTable{"alice": 0.9})
	require.NoError(t, fs.WriteFile(context.Background(),
		session.EnrichmentPath("alice"), []byte("not json")))

	board, err := fuser.Rank(context.Background(), session, ranking.DefaultFusionWeights(), 0, 0)
	require.NoError(t, err, "a damaged enrichment record must not sink the ranking")

	require.Len(t, board.Entries, 1)
	assert.Zero(t, board.Enriched)
	assert.InDelta(t, 0.9, board.Entries[0].CombinedScore, 1e-9)
}
