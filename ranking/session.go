package ranking

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"time"

	"github.com/Abraxas-365/shortlist/pkg/kernel"
)

// Session is the isolated working set for one ranking run tied to one job
// posting. Every session owns a disjoint storage root; roots are never shared
// and never reused after deletion.
type Session struct {
	ID        kernel.SessionID `json:"session_id"`
	OwnerID   kernel.CompanyID `json:"owner_id"`
	JobID     kernel.JobID     `json:"job_id"`
	JobTitle  kernel.JobTitle  `json:"job_title"`
	CreatedAt time.Time        `json:"created_at"`
	RootPath  string           `json:"root_path"`
}

// ============================================================================
// Storage Layout
// ============================================================================

const (
	metadataFile   = "metadata.json"
	similarityFile = "similarity.json"
	enrichmentDir  = "enrichment"
)

// MetadataPath returns the path of the session metadata record.
func (s *Session) MetadataPath() string {
	return path.Join(s.RootPath, metadataFile)
}

// SimilarityPath returns the path of the similarity table for this session.
func (s *Session) SimilarityPath() string {
	return path.Join(s.RootPath, similarityFile)
}

// EnrichmentDir returns the directory holding per-candidate enrichment records.
func (s *Session) EnrichmentDir() string {
	return path.Join(s.RootPath, enrichmentDir)
}

// EnrichmentPath returns the record path for one candidate. The file name is a
// digest of the candidate name so arbitrary (case-sensitive) names map to safe,
// collision-free paths.
func (s *Session) EnrichmentPath(candidateName string) string {
	sum := sha256.Sum256([]byte(candidateName))
	return path.Join(s.EnrichmentDir(), hex.EncodeToString(sum[:8])+".json")
}

// ============================================================================
// Domain Methods
// ============================================================================

// Age returns how long ago the session was created.
func (s *Session) Age() time.Duration {
	return time.Since(s.CreatedAt)
}

// OlderThan reports whether the session has exceeded the given age.
func (s *Session) OlderThan(maxAge time.Duration) bool {
	return s.Age() > maxAge
}
