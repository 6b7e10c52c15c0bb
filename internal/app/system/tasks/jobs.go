// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	requeststore "github.com/dalemusser/linguahub/internal/app/store/requests"
	"go.uber.org/zap"
)

// StaleRequestCleanupJob creates a job that deletes pending partner
// requests older than the given threshold.
func StaleRequestCleanupJob(requests *requeststore.Store, logger *zap.Logger, threshold time.Duration) Job {
	return Job{
		Name:     "stale-request-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := requests.DeleteStalePending(ctx, threshold)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("deleted stale pending requests",
					zap.Int64("count", count),
					zap.Duration("threshold", threshold))
			}
			return nil
		},
	}
}
