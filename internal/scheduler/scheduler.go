// Package scheduler runs the automatic backup job.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mdiouf/bookkeep/internal/config"
	"github.com/mdiouf/bookkeep/internal/service/backup"
	"github.com/mdiouf/bookkeep/pkg/clients/backupsync"
)

// Scheduler renders a backup workbook on the configured cron schedule,
// writes it to the backup directory and optionally uploads it. Backup
// failures are logged and never interrupt the application.
type Scheduler struct {
	cron     *cron.Cron
	exporter *backup.Exporter
	uploader backupsync.Client
	cfg      config.Backup
	logger   *zap.Logger
}

// New creates a scheduler instance. uploader may be nil when no upload
// endpoint is configured.
func New(cfg config.Backup, exporter *backup.Exporter, uploader backupsync.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(),
		exporter: exporter,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the backup job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runBackup); err != nil {
		return fmt.Errorf("schedule backup job %q: %w", s.cfg.CronSchedule, err)
	}
	s.cron.Start()
	s.logger.Info("backup scheduler started", zap.String("schedule", s.cfg.CronSchedule))
	return nil
}

// Stop stops the cron loop.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping backup scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runBackup() {
	s.logger.Info("running scheduled backup")

	content, err := s.exporter.ExportWorkbook()
	if err != nil {
		s.logger.Error("scheduled backup failed", zap.Error(err))
		return
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		s.logger.Error("cannot create backup directory", zap.String("dir", s.cfg.Dir), zap.Error(err))
		return
	}

	filename := fmt.Sprintf("bookkeep-backup-%s.xlsx", time.Now().Format("20060102-150405"))
	path := filepath.Join(s.cfg.Dir, filename)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		s.logger.Error("cannot write backup file", zap.String("path", path), zap.Error(err))
		return
	}
	s.logger.Info("backup written", zap.String("path", path), zap.Int("bytes", len(content)))

	if s.uploader == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := s.uploader.Upload(ctx, filename, content); err != nil {
		s.logger.Error("backup upload failed", zap.Error(err))
	} else {
		s.logger.Info("backup uploaded", zap.String("filename", filename))
	}
}
