// Package cron runs the background maintenance jobs.
package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/blobstore"
)

// Job names as stored in cron_job_logs
const (
	JobSweepOrphanBlobs = "sweep_orphan_blobs"
	JobCleanupOldLogs   = "cleanup_old_logs"
	JobPurgeRevoked     = "purge_revoked_tokens"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron   *cron.Cron
	db     *gorm.DB
	store  blobstore.Store
	logger *zap.Logger
	now    func() time.Time

	// OrphanMinAge keeps the sweeper away from uploads whose record has not
	// been written yet
	OrphanMinAge time.Duration
	// LogRetention is how long cron_job_logs rows are kept
	LogRetention time.Duration
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, store blobstore.Store, logger *zap.Logger) *CronManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronManager{
		cron:         cron.New(cron.WithSeconds()),
		db:           db,
		store:        store,
		logger:       logger.Named("cron"),
		now:          time.Now,
		OrphanMinAge: time.Hour,
		LogRetention: 30 * 24 * time.Hour,
	}
}

// Start registers every job and starts the scheduler
func (m *CronManager) Start() error {
	if err := m.registerJobs(); err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("cron jobs started", zap.Int("jobs", len(m.cron.Entries())))
	return nil
}

// Stop waits for running jobs to finish
func (m *CronManager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	// Every 30 minutes
	if _, err := m.cron.AddFunc("0 */30 * * * *", func() {
		m.Run(context.Background(), JobSweepOrphanBlobs, m.SweepOrphanBlobs)
	}); err != nil {
		return err
	}

	// Hourly
	if _, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.Run(context.Background(), JobPurgeRevoked, m.PurgeRevokedTokens)
	}); err != nil {
		return err
	}

	// Daily at 2 AM
	if _, err := m.cron.AddFunc("0 0 2 * * *", func() {
		m.Run(context.Background(), JobCleanupOldLogs, m.CleanupOldLogs)
	}); err != nil {
		return err
	}
	return nil
}

// Run executes fn as jobName and records the run in cron_job_logs
func (m *CronManager) Run(ctx context.Context, jobName string, fn func(context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	started := m.now()
	entry := model.CronJobLog{JobName: jobName, Status: model.CronStatusRunning, StartedAt: started}
	if err := m.db.WithContext(ctx).Create(&entry).Error; err != nil {
		m.logger.Warn("failed to record job start", zap.String("job", jobName), zap.Error(err))
	}

	message, err := fn(ctx)

	finished := m.now()
	updates := map[string]interface{}{
		"completed_at": finished,
		"duration":     finished.Sub(started).Milliseconds(),
		"message":      message,
		"status":       model.CronStatusCompleted,
	}
	if err != nil {
		updates["status"] = model.CronStatusFailed
		updates["error_msg"] = err.Error()
		m.logger.Error("job failed", zap.String("job", jobName), zap.Error(err))
	} else {
		m.logger.Info("job completed", zap.String("job", jobName), zap.String("result", message))
	}

	if entry.ID != 0 {
		if err := m.db.WithContext(ctx).Model(&entry).Updates(updates).Error; err != nil {
			m.logger.Warn("failed to record job result", zap.String("job", jobName), zap.Error(err))
		}
	}
}

// CleanupOldLogs deletes job logs older than LogRetention
func (m *CronManager) CleanupOldLogs(ctx context.Context) (string, error) {
	cutoff := m.now().Add(-m.LogRetention)
	res := m.db.WithContext(ctx).Where("started_at < ?", cutoff).Delete(&model.CronJobLog{})
	if res.Error != nil {
		return "", res.Error
	}
	return formatCount(res.RowsAffected, "log entry", "log entries") + " deleted", nil
}

// PurgeRevokedTokens drops revocation rows for tokens that have expired
func (m *CronManager) PurgeRevokedTokens(ctx context.Context) (string, error) {
	res := m.db.WithContext(ctx).Where("expires_at <= ?", m.now()).Delete(&model.RevokedToken{})
	if res.Error != nil {
		return "", res.Error
	}
	return formatCount(res.RowsAffected, "revoked token", "revoked tokens") + " purged", nil
}
