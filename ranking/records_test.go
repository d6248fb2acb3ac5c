package ranking

import (
	"testing"

	"github.com/Abraxas-365/shortlist/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeCandidates(t *testing.T) {
	in := []CandidateInput{
		{Name: "alice", RawText: "v1"},
		{Name: "bob", RawText: "b1"},
		{Name: "alice", RawText: "v2"},
	}

	out := DedupeCandidates(in)
	require.Len(t, out, 2)
	assert.Equal(t, "alice", out[0].Name, "first-seen order is preserved")
	assert.Equal(t, "v2", out[0].RawText, "last occurrence wins")
	assert.Equal(t, "bob", out[1].Name)
}

func TestDedupeCandidates_CaseSensitiveNames(t *testing.T) {
	out := DedupeCandidates([]CandidateInput{
		{Name: "Alice", RawText: "a"},
		{Name: "alice", RawText: "b"},
	})
	assert.Len(t, out, 2, "names join case-sensitively")
}

func TestNewSimilarityRecord_Validation(t *testing.T) {
	_, err := NewSimilarityRecord("", 0.5)
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, CodeInvalidInput))

	_, err = NewSimilarityRecord("alice", 1.2)
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, CodeInvalidInput))

	_, err = NewSimilarityRecord("alice", -0.1)
	require.Error(t, err)

	record, err := NewSimilarityRecord("alice", 0.0)
	require.NoError(t, err)
	assert.Equal(t, "alice", record.CandidateName)
	assert.Zero(t, record.SimilarityScore)
}

func TestNewEnrichmentRecord_Validation(t *testing.T) {
	bad := 1.5
	_, err := NewEnrichmentRecord("alice", "gh-alice", &bad, nil)
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, CodeInvalidInput))

	_, err = NewEnrichmentRecord("", "gh-alice", nil, nil)
	require.Error(t, err)

	_, err = NewEnrichmentRecord("alice", "", nil, nil)
	require.Error(t, err)

	record, err := NewEnrichmentRecord("alice", "gh-alice", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, record.ProfileMatchScore, "a missing score stays missing, never becomes zero")
}

func TestSimilarityTable_RecordsSortedByName(t *testing.T) {
	table := SimilarityTable{"zoe": 0.1, "anna": 0.9, "mila": 0.5}

	records := table.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "anna", records[0].CandidateName)
	assert.Equal(t, "mila", records[1].CandidateName)
	assert.Equal(t, "zoe", records[2].CandidateName)
}

func TestSession_EnrichmentPathIsStablePerName(t *testing.T) {
	s := &Session{ID: "s1", RootPath: "sessions/s1"}

	assert.Equal(t, s.EnrichmentPath("Alice"), s.EnrichmentPath("Alice"))
	assert.NotEqual(t, s.EnrichmentPath("Alice"), s.EnrichmentPath("alice"))
	assert.Contains(t, s.EnrichmentPath("Alice"), "sessions/s1/enrichment/")
}
