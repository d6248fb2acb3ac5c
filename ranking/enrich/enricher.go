// Package enrich resolves external profile identifiers from resume text and
// asks the profile analysis service for a match score per candidate.
//
// Enrichment is best-effort by design: a candidate without a resolvable
// identifier is skipped, an external failure is logged and skipped, and
// neither ever aborts the batch. External calls dominate the latency of the
// whole pipeline, so independent candidates run with bounded parallelism.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abraxas-365/shortlist/pkg/fsx"
	"github.com/Abraxas-365/shortlist/pkg/logx"
	"github.com/Abraxas-365/shortlist/ranking"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent external calls when no budget is configured.
const DefaultWorkers = 4

// Enricher writes per-candidate enrichment records into a session.
type Enricher struct {
	fs       fsx.FileSystem
	analyzer ranking.ProfileAnalyzer
	workers  int
}

// NewEnricher creates an enricher with the given worker budget. A budget of
// zero or less falls back to DefaultWorkers.
func NewEnricher(fs fsx.FileSystem, analyzer ranking.ProfileAnalyzer, workers int) *Enricher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Enricher{fs: fs, analyzer: analyzer, workers: workers}
}

// Enrich attempts to enrich every candidate, fanning external calls out over
// a bounded worker pool. It returns once all dispatched attempts have settled.
// Records are written atomically one file per candidate, so a cancellation or
// crash mid-fan-out degrades to "fewer candidates enriched", never to a
// corrupted record. A storage write failure is surfaced as the call's error
// after all workers settle, with already-written records left intact.
func (e *Enricher) Enrich(ctx context.Context, session *ranking.Session, jobRequirements string, candidates []ranking.CandidateInput) (*ranking.EnrichmentSummary, error) {
	if len(candidates) == 0 {
		return nil, ranking.ErrInvalidInput().WithDetail("field", "candidates")
	}

	candidates = ranking.DedupeCandidates(candidates)
	outcomes := make([]ranking.EnrichmentOutcome, len(candidates))
	storageErrs := make([]error, len(candidates))

	g := errgroup.Group{}
	g.SetLimit(e.workers)

	for i, candidate := range candidates {
		externalID := extractExternalID(candidate.RawText)
		if externalID == "" {
			outcomes[i] = ranking.EnrichmentOutcome{
				CandidateName: candidate.Name,
				Status:        ranking.EnrichmentSkipped,
				Reason:        "no profile identifier in resume text",
			}
			continue
		}

		g.Go(func() error {
			outcomes[i], storageErrs[i] = e.enrichOne(ctx, session, jobRequirements, candidate, externalID)
			return nil
		})
	}

	_ = g.Wait()

	summary := &ranking.EnrichmentSummary{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Status == ranking.EnrichmentGenerated {
			summary.Generated++
		} else {
			summary.Skipped++
		}
	}

	for _, err := range storageErrs {
		if err != nil {
			return summary, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
				WithDetail("session_id", session.ID.String())
		}
	}

	logx.Infof("Enrichment for session %s: %d generated, %d skipped",
		session.ID, summary.Generated, summary.Skipped)
	return summary, nil
}

// enrichOne performs a single candidate's external call and record write. The
// second return value is non-nil only for storage failures, which the caller
// surfaces after the whole batch settles.
func (e *Enricher) enrichOne(ctx context.Context, session *ranking.Session, jobRequirements string, candidate ranking.CandidateInput, externalID string) (ranking.EnrichmentOutcome, error) {
	failed := func(reason string) ranking.EnrichmentOutcome {
		return ranking.EnrichmentOutcome{
			CandidateName: candidate.Name,
			Status:        ranking.EnrichmentFailed,
			ExternalID:    externalID,
			Reason:        reason,
		}
	}

	if err := ctx.Err(); err != nil {
		return failed("enrichment cancelled before dispatch"), nil
	}

	analysis, err := e.analyzer.AnalyzeProfile(ctx, externalID, jobRequirements)
	if err != nil {
		logx.Warnf("Profile analysis failed for candidate %q (id=%s): %v", candidate.Name, externalID, err)
		return failed(fmt.Sprintf("profile analysis failed: %v", err)), nil
	}

	record, err := ranking.NewEnrichmentRecord(candidate.Name, externalID, analysis.MatchScore, analysis.Stats)
	if err != nil {
		logx.Warnf("Discarding invalid enrichment for candidate %q: %v", candidate.Name, err)
		return failed(fmt.Sprintf("invalid enrichment payload: %v", err)), nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return failed(fmt.Sprintf("marshal enrichment record: %v", err)), err
	}
	if err := e.fs.WriteFile(ctx, session.EnrichmentPath(candidate.Name), data); err != nil {
		return failed(fmt.Sprintf("write enrichment record: %v", err)), err
	}

	return ranking.EnrichmentOutcome{
		CandidateName: candidate.Name,
		Status:        ranking.EnrichmentGenerated,
		ExternalID:    externalID,
	}, nil
}
