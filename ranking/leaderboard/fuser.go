// Package leaderboard fuses a session's similarity and profile signals into
// the final ranked, filtered, size-bounded output.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/Abraxas-365/shortlist/pkg/fsx"
	"github.com/Abraxas-365/shortlist/pkg/logx"
	"github.com/Abraxas-365/shortlist/ranking"
)

// Fuser is read-only over a session's records.
type Fuser struct {
	fs fsx.FileSystem
}

// NewFuser creates a fuser reading through the given filesystem.
func NewFuser(fs fsx.FileSystem) *Fuser {
	return &Fuser{fs: fs}
}

// Rank loads the session's similarity and enrichment records, joins them by
// candidate name, fuses the available signals under the given weights,
// filters by minScore, sorts descending by combined score with ties broken by
// ascending candidate name, truncates to topN (<= 0 means unbounded) and
// assigns dense 1-based ranks.
//
// A candidate with no enrichment record is ranked on similarity alone: a
// missing measurement is not a measured zero, so the fusion renormalizes to
// the one available signal instead of letting the absent term drag the score
// down. Weights are otherwise applied as given.
func (f *Fuser) Rank(ctx context.Context, session *ranking.Session, weights ranking.FusionWeights, minScore float64, topN int) (*ranking.Leaderboard, error) {
	table, err := f.loadSimilarityTable(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		// Nothing to rank: the session has no scored candidates, which is
		// indistinguishable from a swept or never-scored session.
		return nil, ranking.ErrSessionNotFound().
			WithDetail("session_id", session.ID.String()).
			WithDetail("reason", "no similarity records")
	}

	enrichments, err := f.loadEnrichments(ctx, session)
	if err != nil {
		return nil, err
	}

	board := &ranking.Leaderboard{Considered: len(table)}
	entries := make([]ranking.LeaderboardEntry, 0, len(table))

	for name, simScore := range table {
		entry := ranking.LeaderboardEntry{
			CandidateName:   name,
			SimilarityScore: simScore,
			CombinedScore:   simScore,
			ComponentsUsed:  []string{ranking.SignalSimilarity},
		}

		if record, ok := enrichments[name]; ok && record.ProfileMatchScore != nil {
			board.Enriched++
			entry.ProfileMatchScore = record.ProfileMatchScore
			entry.CombinedScore = clamp01(weights.Similarity*simScore + weights.Profile**record.ProfileMatchScore)
			entry.ComponentsUsed = []string{ranking.SignalSimilarity, ranking.SignalProfile}
		}

		if entry.CombinedScore < minScore {
			board.FilteredOut++
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CombinedScore != entries[j].CombinedScore {
			return entries[i].CombinedScore > entries[j].CombinedScore
		}
		return entries[i].CandidateName < entries[j].CandidateName
	})

	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	board.Entries = entries

	logx.Infof("Ranked session %s: %d entries, %d enriched, %d filtered",
		session.ID, len(entries), board.Enriched, board.FilteredOut)
	return board, nil
}

func (f *Fuser) loadSimilarityTable(ctx context.Context, session *ranking.Session) (ranking.SimilarityTable, error) {
	data, err := f.fs.ReadFile(ctx, session.SimilarityPath())
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

// loadEnrichments reads every persisted enrichment record for the session,
// keyed by candidate name. A record that fails to parse is dropped with a
// warning: a damaged enrichment must not sink the whole ranking.
func (f *Fuser) loadEnrichments(ctx context.Context, session *ranking.Session) (map[string]ranking.EnrichmentRecord, error) {
	infos, err := f.fs.List(ctx, session.EnrichmentDir())
	if err != nil {
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("session_id", session.ID.String())
	}

	records := make(map[string]ranking.EnrichmentRecord, len(infos))
	for _, info := range infos {
		data, err := f.fs.ReadFile(ctx, info.Path)
		if err != nil {
			if errors.Is(err, fsx.ErrNotFound) {
				continue // swept mid-read
			}
			return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
				WithDetail("session_id", session.ID.String()).
				WithDetail("path", info.Path)
		}

		var record ranking.EnrichmentRecord
		if err := json.Unmarshal(data, &record); err != nil {
			logx.Warnf("Skipping unreadable enrichment record %s: %v", info.Path, err)
			continue
		}
		if record.CandidateName == "" {
			logx.Warnf("Skipping enrichment record %s with empty candidate name", info.Path)
			continue
		}
		records[record.CandidateName] = record
	}
	return records, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
