package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/domain"
)

var inventorySyncMu sync.Mutex

// SyncAllExclusive runs SyncAll under the package-wide sync mutex so a
// manually triggered sync and the scheduled loop never interleave.
func (s *SyncService) SyncAllExclusive(ctx context.Context) (*domain.SyncReport, error) {
	inventorySyncMu.Lock()
	defer inventorySyncMu.Unlock()
	return s.SyncAll(ctx)
}

// RunSyncLoop runs a full inventory sync once, then every interval.
// Call from a goroutine; returns when ctx is done. Overlapping runs are
// prevented by a package mutex so a slow batch never races a manual
// sync triggered over HTTP.
func RunSyncLoop(ctx context.Context, svc *SyncService, interval time.Duration, logger *zap.Logger) {
	runOnce(ctx, svc, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *SyncService, logger *zap.Logger) {
	if _, err := svc.SyncAllExclusive(ctx); err != nil {
		logger.Error("Scheduled inventory sync failed", zap.Error(err))
	}
}
