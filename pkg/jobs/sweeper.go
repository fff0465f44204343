package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
)

// sweepLockKey keeps several API instances from sweeping at once
const sweepLockKey = "jobs:stale-report-sweep"

// StaleReportFailer fails reports stuck in processing. *reports.Service satisfies it.
type StaleReportFailer interface {
	FailStaleReports(ctx context.Context, olderThan time.Duration) (int, error)
}

// StaleSweeper fails reports whose generation never finished
type StaleSweeper struct {
	reports   StaleReportFailer
	locker    domain.Locker
	olderThan time.Duration
	logger    *log.Logger
}

// NewStaleSweeper creates a new sweeper. locker may be nil on single-instance deployments.
func NewStaleSweeper(reports StaleReportFailer, locker domain.Locker, olderThan time.Duration, logger *log.Logger) *StaleSweeper {
	if logger == nil {
		logger = log.Default()
	}

	return &StaleSweeper{
		reports:   reports,
		locker:    locker,
		olderThan: olderThan,
		logger:    logger,
	}
}

// Sweep runs one pass and returns how many reports were failed.
// A pass already running elsewhere is skipped without error.
func (s *StaleSweeper) Sweep(ctx context.Context) (int, error) {
	if s.olderThan <= 0 {
		return 0, fmt.Errorf("stale threshold must be positive, got %s", s.olderThan)
	}

	if s.locker != nil {
		ok, err := s.locker.Acquire(ctx, sweepLockKey, s.olderThan)
		if err != nil {
			s.logger.Printf("Warning: failed to acquire sweep lock: %v", err)
		} else if !ok {
			s.logger.Println("Stale report sweep already running elsewhere, skipping")
			return 0, nil
		} else {
			defer func() {
				if err := s.locker.Release(ctx, sweepLockKey); err != nil {
					s.logger.Printf("Warning: failed to release sweep lock: %v", err)
				}
			}()
		}
	}

	n, err := s.reports.FailStaleReports(ctx, s.olderThan)
	if err != nil {
		return 0, fmt.Errorf("stale report sweep failed: %w", err)
	}
	return n, nil
}
