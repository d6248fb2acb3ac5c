// Package sessionstore owns the on-disk isolation for ranking runs. Every
// session gets a storage root no other session ever shares or reuses, which
// is the only isolation mechanism concurrent ranking runs need.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Abraxas-365/shortlist/pkg/fsx"
	"github.com/Abraxas-365/shortlist/pkg/kernel"
	"github.com/Abraxas-365/shortlist/pkg/logx"
	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/google/uuid"
)

const sessionsPrefix = "sessions"

// Store manages session lifecycles over an fsx backend.
type Store struct {
	fs fsx.FileSystem
}

// New creates a session store on the given filesystem.
func New(fs fsx.FileSystem) *Store {
	return &Store{fs: fs}
}

// Create allocates a fresh session with a never-before-used storage root.
// The id combines a creation timestamp with a random component, so concurrent
// creations for the same (owner, job) pair can never collide.
func (s *Store) Create(ctx context.Context, ownerID kernel.CompanyID, jobID kernel.JobID, jobTitle kernel.JobTitle) (*ranking.Session, error) {
	if ownerID.IsEmpty() {
		return nil, ranking.ErrInvalidInput().WithDetail("field", "owner_id")
	}
	if jobID.IsEmpty() {
		return nil, ranking.ErrInvalidInput().WithDetail("field", "job_id")
	}

	now := time.Now().UTC()
	id := kernel.NewSessionID(fmt.Sprintf("%s-%s", now.Format("20060102t150405"), uuid.NewString()))

	session := &ranking.Session{
		ID:        id,
		OwnerID:   ownerID,
		JobID:     jobID,
		JobTitle:  jobTitle,
		CreatedAt: now,
		RootPath:  path.Join(sessionsPrefix, id.String()),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("session_id", id.String())
	}
	if err := s.fs.WriteFile(ctx, session.MetadataPath(), data); err != nil {
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("session_id", id.String())
	}

	logx.Infof("Session created: SessionID=%s, OwnerID=%s, JobID=%s", id, ownerID, jobID)
	return session, nil
}

// Open resolves an existing session by id. A swept or unknown session yields
// SessionNotFound, never a partially-read result: the metadata record is the
// first file the sweeper deletes, so its presence is authoritative.
func (s *Store) Open(ctx context.Context, id kernel.SessionID) (*ranking.Session, error) {
	if id.IsEmpty() {
		return nil, ranking.ErrSessionNotFound().WithDetail("session_id", "missing or empty")
	}

	metaPath := path.Join(sessionsPrefix, id.String(), "metadata.json")
	data, err := s.fs.ReadFile(ctx, metaPath)
	if err != nil {
		if errors.Is(err, fsx.ErrNotFound) {
			return nil, ranking.ErrSessionNotFound().WithDetail("session_id", id.String())
		}
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("session_id", id.String())
	}

	var session ranking.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("session_id", id.String())
	}
	return &session, nil
}

// Sweep deletes every session older than maxAge, best-effort, and returns how
// many were removed. Metadata goes first so a concurrent Open on a
// half-deleted session resolves to SessionNotFound.
func (s *Store) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	infos, err := s.fs.List(ctx, sessionsPrefix)
	if err != nil {
		return 0, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err)
	}

	oldest := make(map[string]time.Time)
	for _, info := range infos {
		id, ok := sessionIDFromPath(info.Path)
		if !ok {
			continue
		}
		if t, seen := oldest[id]; !seen || info.ModTime.Before(t) {
			oldest[id] = info.ModTime
		}
	}

	swept := 0
	for id, fallback := range oldest {
		createdAt := fallback
		if session, err := s.Open(ctx, kernel.NewSessionID(id)); err == nil {
			createdAt = session.CreatedAt
		}
		if time.Since(createdAt) <= maxAge {
			continue
		}

		root := path.Join(sessionsPrefix, id)
		if err := s.fs.DeleteFile(ctx, path.Join(root, "metadata.json")); err != nil {
			logx.Warnf("Sweep: failed to delete metadata for session %s: %v", id, err)
			continue
		}
		if err := s.fs.DeletePrefix(ctx, root); err != nil {
			// Partially-deleted state is acceptable: without metadata the
			// session already resolves to SessionNotFound.
			logx.Warnf("Sweep: failed to delete storage root for session %s: %v", id, err)
		}
		swept++
	}

	if swept > 0 {
		logx.Infof("Sweep removed %d expired sessions", swept)
	}
	return swept, nil
}

// Stats returns read-only storage introspection with no side effects.
func (s *Store) Stats(ctx context.Context) (*ranking.StoreStats, error) {
	infos, err := s.fs.List(ctx, sessionsPrefix)
	if err != nil {
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err)
	}

	sessions := make(map[string]struct{})
	var totalBytes int64
	for _, info := range infos {
		if id, ok := sessionIDFromPath(info.Path); ok {
			sessions[id] = struct{}{}
		}
		totalBytes += info.Size
	}

	return &ranking.StoreStats{
		SessionCount: len(sessions),
		TotalBytes:   totalBytes,
	}, nil
}

// sessionIDFromPath extracts the session id component from a stored file path
// of the form "sessions/<id>/...".
func sessionIDFromPath(p string) (string, bool) {
	rest := strings.TrimPrefix(p, sessionsPrefix+"/")
	if rest == p {
		return "", false
	}
	id, _, found := strings.Cut(rest, "/")
	if !found || id == "" {
		return "", false
	}
	return id, true
}
