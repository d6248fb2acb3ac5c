// Package similarity computes normalized textual-match scores for candidates
// against a job specification.
//
// The scorer builds one term-weighting vector space per invocation from the
// job spec plus every candidate text, so the run's rarity statistics apply
// uniformly to all candidates. Scores are therefore comparable only within a
// single session, never across sessions.
package similarity

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/Abraxas-365/shortlist/pkg/fsx"
	"github.com/Abraxas-365/shortlist/pkg/logx"
	"github.com/Abraxas-365/shortlist/ranking"
)

// Scorer persists one similarity record per distinct candidate name into the
// session's similarity table.
type Scorer struct {
	fs fsx.FileSystem
}

// NewScorer creates a scorer writing through the given filesystem.
func NewScorer(fs fsx.FileSystem) *Scorer {
	return &Scorer{fs: fs}
}

// Score builds the per-run vector space, computes the cosine similarity of
// each candidate against the job spec and persists the resulting table.
// Re-invoking with overlapping candidate names overwrites prior rows, so the
// operation is idempotent per name. A malformed or empty candidate text never
// fails the batch; such a candidate simply scores 0.
func (s *Scorer) Score(ctx context.Context, session *ranking.Session, jobSpecText string, candidates []ranking.CandidateInput) ([]ranking.SimilarityRecord, error) {
	if strings.TrimSpace(jobSpecText) == "" {
		return nil, ranking.ErrInvalidInput().WithDetail("field", "job_spec_text")
	}
	if len(candidates) == 0 {
		return nil, ranking.ErrInvalidInput().WithDetail("field", "candidates")
	}

	candidates = ranking.DedupeCandidates(candidates)

	// Corpus: job spec first, then every candidate.
	docs := make([][]string, 0, len(candidates)+1)
	docs = append(docs, tokenize(jobSpecText))
	for _, c := range candidates {
		docs = append(docs, tokenize(c.RawText))
	}

	idf := inverseDocumentFrequencies(docs)
	jobVec := weightedVector(docs[0], idf)

	table, err := s.loadTable(ctx, session)
	if err != nil {
		return nil, err
	}

	records := make([]ranking.SimilarityRecord, 0, len(candidates))
	for i, c := range candidates {
		score := cosine(jobVec, weightedVector(docs[i+1], idf))
		record, err := ranking.NewSimilarityRecord(c.Name, score)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		table[c.Name] = score
	}

	if err := s.saveTable(ctx, session, table); err != nil {
		return nil, err
	}

	logx.Infof("Scored %d candidates for session %s", len(records), session.ID)
	return records, nil
}

// LoadTable reads the session's persisted similarity table. A session that
// has never been scored yields an empty table.
func (s *Scorer) LoadTable(ctx context.Context, session *ranking.Session) (ranking.SimilarityTable, error) {
	return s.loadTable(ctx, session)
}

func (s *Scorer) loadTable(ctx context.Context, session *ranking.Session) (ranking.SimilarityTable, error) {
	data, err := s.fs.ReadFile(ctx, session.SimilarityPath())
	if err != nil {
		if errors.Is(err, fsx.ErrNotFound) {
			return ranking.SimilarityTable{}, nil
		}
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("session_id", session.ID.String())
	}

	var table ranking.SimilarityTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("session_id", session.ID.String())
	}
	return table, nil
}

func (s *Scorer) saveTable(ctx context.Context, session *ranking.Session, table ranking.SimilarityTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("session_id", session.ID.String())
	}
	if err := s.fs.WriteFile(ctx, session.SimilarityPath(), data); err != nil {
		return ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("session_id", session.ID.String())
	}
	return nil
}

// ============================================================================
// Vector Space
// ============================================================================

// inverseDocumentFrequencies computes smoothed IDF weights over the corpus.
// The smoothing keeps every weight strictly positive, so term vectors stay
// non-negative and cosine similarity stays inside [0,1].
func inverseDocumentFrequencies(docs [][]string) map[string]float64 {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}
	return idf
}

// weightedVector builds an L2-normalized tf-idf vector for one document.
func weightedVector(doc []string, idf map[string]float64) map[string]float64 {
	tf := make(map[string]int, len(doc))
	for _, term := range doc {
		tf[term]++
	}

	vec := make(map[string]float64, len(tf))
	var norm float64
	for term, count := range tf {
		w := float64(count) * idf[term]
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

// cosine returns the cosine similarity between two normalized vectors. The
// cosine of a zero vector is defined as 0, not an error.
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for term, wa := range a {
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	// Guard against floating point drift past the unit bound.
	if dot > 1 {
		dot = 1
	}
	if dot < 0 {
		dot = 0
	}
	return dot
}
