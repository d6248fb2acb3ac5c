package ranking

import (
	"encoding/json"
	"sort"
)

// CandidateInput is a transient per-invocation record. Name is the unique,
// case-sensitive join key across the scorer and enricher outputs.
type CandidateInput struct {
	Name    string `json:"name"`
	RawText string `json:"raw_text"`
}

// DedupeCandidates keeps exactly one input per distinct name, last occurrence
// winning, preserving first-seen order.
func DedupeCandidates(candidates []CandidateInput) []CandidateInput {
	index := make(map[string]int, len(candidates))
	out := make([]CandidateInput, 0, len(candidates))
	for _, c := range candidates {
		if i, ok := index[c.Name]; ok {
			out[i] = c
			continue
		}
		index[c.Name] = len(out)
		out = append(out, c)
	}
	return out
}

// ============================================================================
// Persisted Records
// ============================================================================

// SimilarityRecord is one row of a session's similarity table. Scores live in
// [0,1] and are comparable only within the session that produced them.
type SimilarityRecord struct {
	CandidateName   string  `json:"candidate_name"`
	SimilarityScore float64 `json:"similarity_score"`
}

// NewSimilarityRecord validates and constructs a record.
func NewSimilarityRecord(name string, score float64) (SimilarityRecord, error) {
	if name == "" {
		return SimilarityRecord{}, ErrInvalidInput().WithDetail("field", "candidate_name")
	}
	if score < 0 || score > 1 {
		return SimilarityRecord{}, ErrInvalidInput().
			WithDetail("field", "similarity_score").
			WithDetail("value", score)
	}
	return SimilarityRecord{CandidateName: name, SimilarityScore: score}, nil
}

// SimilarityTable is the persisted session similarity table, keyed by
// candidate name.
type SimilarityTable map[string]float64

// Records returns the table as validated records sorted by candidate name.
func (t SimilarityTable) Records() []SimilarityRecord {
	records := make([]SimilarityRecord, 0, len(t))
	for name, score := range t {
		records = append(records, SimilarityRecord{CandidateName: name, SimilarityScore: score})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CandidateName < records[j].CandidateName
	})
	return records
}

// EnrichmentRecord is the per-candidate output of the profile enricher. A
// candidate with no resolvable external identifier has no record at all,
// which keeps "unknown" distinct from "scored zero".
type EnrichmentRecord struct {
	CandidateName     string          `json:"candidate_name"`
	ExternalID        string          `json:"external_id"`
	ProfileMatchScore *float64        `json:"profile_match_score,omitempty"`
	RawStats          json.RawMessage `json:"raw_stats,omitempty"`
}

// NewEnrichmentRecord validates and constructs a record. A match score, when
// present, must already be normalized to [0,1].
func NewEnrichmentRecord(name, externalID string, matchScore *float64, rawStats json.RawMessage) (EnrichmentRecord, error) {
	if name == "" {
		return EnrichmentRecord{}, ErrInvalidInput().WithDetail("field", "candidate_name")
	}
	if externalID == "" {
		return EnrichmentRecord{}, ErrInvalidInput().WithDetail("field", "external_id")
	}
	if matchScore != nil && (*matchScore < 0 || *matchScore > 1) {
		return EnrichmentRecord{}, ErrInvalidInput().
			WithDetail("field", "profile_match_score").
			WithDetail("value", *matchScore)
	}
	return EnrichmentRecord{
		CandidateName:     name,
		ExternalID:        externalID,
		ProfileMatchScore: matchScore,
		RawStats:          rawStats,
	}, nil
}

// ============================================================================
// Enrichment Outcomes
// ============================================================================

// EnrichmentStatus is the per-candidate result of an enrichment attempt.
type EnrichmentStatus string

const (
	// EnrichmentGenerated - an enrichment record was written.
	EnrichmentGenerated EnrichmentStatus = "generated"
	// EnrichmentSkipped - no external identifier could be resolved; normal outcome.
	EnrichmentSkipped EnrichmentStatus = "skipped"
	// EnrichmentFailed - an identifier was found but the external call or the
	// record write failed; the candidate is treated as skipped for ranking.
	EnrichmentFailed EnrichmentStatus = "failed"
)

// EnrichmentOutcome records what happened to one candidate during enrichment.
type EnrichmentOutcome struct {
	CandidateName string           `json:"candidate_name"`
	Status        EnrichmentStatus `json:"status"`
	ExternalID    string           `json:"external_id,omitempty"`
	Reason        string           `json:"reason,omitempty"`
}

// EnrichmentSummary is the result of one enrich call. Failed attempts count
// toward Skipped: enrichment is best-effort and never aborts the batch.
type EnrichmentSummary struct {
	Generated int                 `json:"generated"`
	Skipped   int                 `json:"skipped"`
	Outcomes  []EnrichmentOutcome `json:"outcomes"`
}

// ============================================================================
// Leaderboard
// ============================================================================

// Signal names reported in LeaderboardEntry.ComponentsUsed.
const (
	SignalSimilarity = "similarity"
	SignalProfile    = "profile"
)

// FusionWeights controls how the two signals are combined. Weights need not
// sum to 1; callers are responsible for sane weighting.
type FusionWeights struct {
	Similarity float64 `json:"similarity"`
	Profile    float64 `json:"profile"`
}

// DefaultFusionWeights weighs both signals equally.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Similarity: 0.5, Profile: 0.5}
}

// LeaderboardEntry is one row of the final ranked output. Rank is 1-based and
// dense; CombinedScore orders entries descending with ties broken by
// ascending candidate name.
type LeaderboardEntry struct {
	Rank              int      `json:"rank"`
	CandidateName     string   `json:"candidate_name"`
	CombinedScore     float64  `json:"combined_score"`
	SimilarityScore   float64  `json:"similarity_score"`
	ProfileMatchScore *float64 `json:"profile_match_score,omitempty"`
	ComponentsUsed    []string `json:"components_used"`
}

// Leaderboard is the fuser's output plus run metadata for the caller.
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`

	// Run metadata: how many candidates were considered, how many carried an
	// enrichment record, and how many were filtered out by the score floor.
	Considered  int `json:"candidates_considered"`
	Enriched    int `json:"candidates_enriched"`
	FilteredOut int `json:"candidates_filtered_out"`
}

// StoreStats is the session store's read-only introspection result.
type StoreStats struct {
	SessionCount int   `json:"session_count"`
	TotalBytes   int64 `json:"total_bytes"`
}
