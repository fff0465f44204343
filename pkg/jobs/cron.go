package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the stale report sweep every ten minutes
const DefaultSweepSchedule = "*/10 * * * *"

// CronManager manages scheduled jobs
type CronManager struct {
	cron     *cron.Cron
	sweeper  *StaleSweeper
	schedule string
	logger   *log.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(sweeper *StaleSweeper, schedule string, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	return &CronManager{
		cron:     cron.New(),
		sweeper:  sweeper,
		schedule: schedule,
		logger:   logger,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	cm.logger.Println("Setting up cron jobs...")

	_, err := cm.cron.AddFunc(cm.schedule, cm.runSweep)
	if err != nil {
		return err
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Printf("  - %s: Fail reports stuck in processing", cm.schedule)

	return nil
}

func (cm *CronManager) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := cm.sweeper.Sweep(ctx)
	if err != nil {
		cm.logger.Printf("❌ %v", err)
		return
	}
	if n > 0 {
		cm.logger.Printf("⚠️ Failed %d stale reports", n)
	}
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler and waits for a running job to finish
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	<-cm.cron.Stop().Done()
}

// Entries returns the number of scheduled jobs
func (cm *CronManager) Entries() int {
	return len(cm.cron.Entries())
}

// Sweeper returns the stale sweeper (for manual triggers)
func (cm *CronManager) Sweeper() *StaleSweeper {
	return cm.sweeper
}
