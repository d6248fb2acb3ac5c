package runinfra

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Abraxas-365/shortlist/pkg/fsx"
	"github.com/Abraxas-365/shortlist/ranking"
)

// FSRunRepository persists run records through an fsx backend, one file per
// run. Writes go through the backend's atomic write, so status readers never
// observe a half-written record.
type FSRunRepository struct {
	fs fsx.FileSystem
}

// NewFSRunRepository creates a run repository on the given filesystem.
func NewFSRunRepository(fs fsx.FileSystem) ranking.RunRepository {
	return &FSRunRepository{fs: fs}
}

// Save writes the run record, creating or overwriting it.
func (r *FSRunRepository) Save(ctx context.Context, run *ranking.PipelineRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("run_id", run.ID)
	}
	if err := r.fs.WriteFile(ctx, ranking.RunRecordPath(run.ID), data); err != nil {
		return ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("run_id", run.ID)
	}
	return nil
}

// Get resolves a run record by id.
func (r *FSRunRepository) Get(ctx context.Context, id string) (*ranking.PipelineRun, error) {
	if id == "" {
		return nil, ranking.ErrRunNotFound().WithDetail("run_id", "missing or empty")
	}

	data, err := r.fs.ReadFile(ctx, ranking.RunRecordPath(id))
	if err != nil {
		if errors.Is(err, fsx.ErrNotFound) {
			return nil, ranking.ErrRunNotFound().WithDetail("run_id", id)
		}
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("run_id", id)
	}

	var run ranking.PipelineRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, ranking.ErrRegistry.NewWithCause(ranking.CodeStorageFailed, err).
			WithDetail("run_id", id)
	}
	return &run, nil
}
