// Package worker runs the session retention sweeper in the background.
package worker

import (
	"context"
	"time"

	"github.com/Abraxas-365/shortlist/pkg/logx"
	"github.com/Abraxas-365/shortlist/ranking/sessionstore"
)

// Sweeper deletes sessions past their retention age on a fixed interval,
// independent of whether their ranking run ever completed.
type Sweeper struct {
	store    *sessionstore.Store
	maxAge   time.Duration
	interval time.Duration
}

// NewSweeper creates a sweeper removing sessions older than maxAge every interval.
func NewSweeper(store *sessionstore.Store, maxAge, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
	}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	logx.Infof("Starting session sweeper: maxAge=%s, interval=%s", s.maxAge, s.interval)
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("Session sweeper stopping")
			return
		case <-ticker.C:
			if _, err := s.store.Sweep(ctx, s.maxAge); err != nil {
				logx.Errorf("Session sweep failed: %v", err)
			}
		}
	}
}
