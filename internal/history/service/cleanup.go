package service

import (
	"context"
	"time"

	"github.com/JamshedLatipov/crm-sub002/platform/config"
	"github.com/JamshedLatipov/crm-sub002/platform/logger"
)

// CleanupJob periodically prunes audit entries past the retention window.
// Retention of zero or fewer days disables pruning entirely.
type CleanupJob struct {
	svc      *Service
	days     int
	interval time.Duration
	log      *logger.Logger

	stop    chan struct{}
	done    chan struct{}
	started bool
}

// NewCleanupJob creates the retention cleanup job.
func NewCleanupJob(svc *Service, cfg config.HistoryConfig, log *logger.Logger) *CleanupJob {
	return &CleanupJob{
		svc:      svc,
		days:     cfg.GetHistoryRetentionDays(),
		interval: cfg.GetHistoryCleanupInterval(),
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the cleanup loop. A no-op when retention is disabled or the
// job is already running.
func (j *CleanupJob) Start() {
	if j.started || j.days <= 0 {
		return
	}
	j.started = true

	go func() {
		defer close(j.done)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.log.Info("history cleanup started", "retentionDays", j.days, "interval", j.interval.String())
		for {
			select {
			case <-j.stop:
				return
			case <-ticker.C:
				j.run()
			}
		}
	}()
}

// Stop halts the cleanup loop.
func (j *CleanupJob) Stop() {
	if !j.started {
		return
	}
	close(j.stop)
	<-j.done
}

func (j *CleanupJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := j.svc.DeleteOlderThan(ctx, j.days)
	if err != nil {
		j.log.Error("history cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		j.log.Info("history entries pruned", "deleted", deleted)
	}
}
