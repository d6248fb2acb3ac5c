package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/shortlist/pkg/logx"
	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/Abraxas-365/shortlist/ranking/rankingsrv"
)

// RunWorker drains the async run queue with a fixed pool of goroutines.
type RunWorker struct {
	service *rankingsrv.Service
	queue   ranking.RunQueue
	workers int
}

// NewRunWorker creates a worker pool of the given size over the run queue.
func NewRunWorker(service *rankingsrv.Service, queue ranking.RunQueue, workers int) *RunWorker {
	return &RunWorker{
		service: service,
		queue:   queue,
		workers: workers,
	}
}

// Start launches the worker pool and the delayed-run mover. Both stop when
// ctx is cancelled.
func (w *RunWorker) Start(ctx context.Context) {
	logx.Infof("Starting %d run workers", w.workers)

	go w.moveDelayedRuns(ctx)

	for i := 0; i < w.workers; i++ {
		go w.processRuns(ctx, i)
	}
}

func (w *RunWorker) processRuns(ctx context.Context, workerID int) {
	logx.Infof("Run worker %d started", workerID)

	for {
		select {
		case <-ctx.Done():
			logx.Infof("Run worker %d stopping", workerID)
			return
		default:
			// Dequeue with a short timeout so shutdown stays responsive.
			data, err := w.queue.Dequeue(ctx, 5*time.Second)
			if err != nil {
				logx.Errorf("Run worker %d dequeue error: %v", workerID, err)
				continue
			}
			if len(data) == 0 {
				continue // queue timeout, nothing to do
			}

			var run ranking.PipelineRun
			if err := json.Unmarshal(data, &run); err != nil {
				logx.Errorf("Run worker %d unmarshal error: %v (data: %s)", workerID, err, string(data))
				continue
			}

			logx.Infof("Run worker %d processing run: %s", workerID, run.ID)
			if err := w.service.ProcessRun(ctx, &run); err != nil {
				logx.Errorf("Run worker %d run failed: %v", workerID, err)
			}
		}
	}
}

func (w *RunWorker) moveDelayedRuns(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := w.queue.MoveDelayedToReady(ctx)
			if err != nil {
				logx.Errorf("Failed to move delayed runs: %v", err)
			} else if count > 0 {
				logx.Infof("Moved %d delayed runs to ready queue", count)
			}
		}
	}
}
