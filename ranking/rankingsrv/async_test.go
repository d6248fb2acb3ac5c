package rankingsrv

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Abraxas-365/shortlist/pkg/errx"
	"github.com/Abraxas-365/shortlist/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/Abraxas-365/shortlist/ranking/enrich"
	"github.com/Abraxas-365/shortlist/ranking/leaderboard"
	"github.com/Abraxas-365/shortlist/ranking/runinfra"
	"github.com/Abraxas-365/shortlist/ranking/sessionstore"
	"github.com/Abraxas-365/shortlist/ranking/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memQueue is an in-memory RunQueue for tests.
type memQueue struct {
	ready   [][]byte
	delayed [][]byte
}

func (q *memQueue) Enqueue(ctx context.Context, runID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	q.ready = append(q.ready, data)
	return nil
}

func (q *memQueue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if len(q.ready) == 0 {
		return nil, nil
	}
	data := q.ready[0]
	q.ready = q.ready[1:]
	return data, nil
}

func (q *memQueue) EnqueueDelayed(ctx context.Context, runID string, payload any, delay time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	q.delayed = append(q.delayed, data)
	return nil
}

func (q *memQueue) MoveDelayedToReady(ctx context.Context) (int, error) {
	n := len(q.delayed)
	q.ready = append(q.ready, q.delayed...)
	q.delayed = nil
	return n, nil
}

func (q *memQueue) Stats(ctx context.Context) (map[string]any, error) {
	return map[string]any{"ready_runs": len(q.ready), "delayed_runs": len(q.delayed)}, nil
}

func newAsyncService(t *testing.T) (*Service, *memQueue) {
	t.Helper()
	fs, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	service := NewService(
		sessionstore.New(fs),
		similarity.NewScorer(fs),
		enrich.NewEnricher(fs, &stubAnalyzer{scores: map[string]float64{}}, 2),
		leaderboard.NewFuser(fs),
		nil,
		nil,
	)
	queue := &memQueue{}
	service.EnableAsync(queue, runinfra.NewFSRunRepository(fs))
	return service, queue
}

func validRunRequest() ranking.RunPipelineRequest {
	return ranking.RunPipelineRequest{
		OwnerID:     "acme",
		JobID:       "job-1",
		JobTitle:    "Backend Engineer",
		JobSpecText: "Go engineer",
		Candidates: []ranking.CandidateInput{
			{Name: "Alice", RawText: "Go engineer with five years of services work"},
		},
	}
}

func TestSubmitRun_QueuesPendingRun(t *testing.T) {
	service, queue := newAsyncService(t)
	ctx := context.Background()

	resp, err := service.SubmitRun(ctx, validRunRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, ranking.RunStatusPending, resp.Status)
	assert.Len(t, queue.ready, 1)

	status, err := service.GetRunStatus(ctx, resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, ranking.RunStatusPending, status.Status)
	assert.Nil(t, status.Result)
}

func TestSubmitRun_WithoutAsyncConfigured(t *testing.T) {
	service := newTestService(t, &stubAnalyzer{})

	_, err := service.SubmitRun(context.Background(), validRunRequest())
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ranking.CodeQueueFailed))
}

func TestProcessRun_CompletesAndStoresResult(t *testing.T) {
	service, queue := newAsyncService(t)
	ctx := context.Background()

	submitted, err := service.SubmitRun(ctx, validRunRequest())
	require.NoError(t, err)

	data, err := queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	var run ranking.PipelineRun
	require.NoError(t, json.Unmarshal(data, &run))

	require.NoError(t, service.ProcessRun(ctx, &run))

	status, err := service.GetRunStatus(ctx, submitted.RunID)
	require.NoError(t, err)
	assert.Equal(t, ranking.RunStatusCompleted, status.Status)
	assert.False(t, status.SessionID.IsEmpty())
	require.NotNil(t, status.Result)
	require.Len(t, status.Result.Entries, 1)
	assert.Equal(t, "Alice", status.Result.Entries[0].CandidateName)

	// The run's session is a real, openable session.
	_, err = service.GetSession(ctx, status.SessionID)
	assert.NoError(t, err)
}

func TestProcessRun_RetriesWithBackoff(t *testing.T) {
	service, queue := newAsyncService(t)
	ctx := context.Background()

	bad := validRunRequest()
	bad.Candidates = nil // scoring rejects an empty batch

	submitted, err := service.SubmitRun(ctx, bad)
	require.NoError(t, err)

	data, err := queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	var run ranking.PipelineRun
	require.NoError(t, json.Unmarshal(data, &run))

	require.Error(t, service.ProcessRun(ctx, &run))

	status, err := service.GetRunStatus(ctx, submitted.RunID)
	require.NoError(t, err)
	assert.Equal(t, ranking.RunStatusPending, status.Status, "a failed attempt with retries left goes back to pending")
	assert.NotNil(t, status.NextRetryAt)
	assert.Len(t, queue.delayed, 1, "retry lands on the delayed queue")
}

func TestProcessRun_FailsPermanentlyAfterMaxAttempts(t *testing.T) {
	service, queue := newAsyncService(t)
	ctx := context.Background()

	bad := validRunRequest()
	bad.Candidates = nil

	submitted, err := service.SubmitRun(ctx, bad)
	require.NoError(t, err)

	for attempt := 0; attempt < MaxRunAttempts; attempt++ {
		_, _ = queue.MoveDelayedToReady(ctx)
		data, err := queue.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotEmpty(t, data)

		var run ranking.PipelineRun
		require.NoError(t, json.Unmarshal(data, &run))
		require.Error(t, service.ProcessRun(ctx, &run))
	}

	status, err := service.GetRunStatus(ctx, submitted.RunID)
	require.NoError(t, err)
	assert.Equal(t, ranking.RunStatusFailed, status.Status)
	assert.NotEmpty(t, status.Error)
	assert.Empty(t, queue.ready)
	assert.Empty(t, queue.delayed)
}

func TestGetRunStatus_UnknownRun(t *testing.T) {
	service, _ := newAsyncService(t)

	_, err := service.GetRunStatus(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, ranking.CodeRunNotFound))
}
