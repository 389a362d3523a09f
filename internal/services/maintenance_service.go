package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// MaintenanceService manages the editor's scheduled background jobs. Session
// expiry has its own sweeper; this covers the slower housekeeping that runs
// off-peak.
type MaintenanceService struct {
	cron           *cron.Cron
	audit          *EditorAuditService
	auditRetention time.Duration
	logger         *logrus.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(audit *EditorAuditService, auditRetention time.Duration, logger *logrus.Logger) *MaintenanceService {
	return &MaintenanceService{
		cron:           cron.New(),
		audit:          audit,
		auditRetention: auditRetention,
		logger:         logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *MaintenanceService) Start() error {
	// Audit retention cleanup daily at 3 AM
	if _, err := s.cron.AddFunc("0 3 * * *", s.cleanupAuditJob); err != nil {
		return fmt.Errorf("failed to schedule audit cleanup job: %w", err)
	}
	s.logger.WithField("retention", s.auditRetention).Info("Scheduled: audit event cleanup (daily at 3:00 AM)")

	s.cron.Start()
	s.logger.Info("Maintenance service started")

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Maintenance service stopped")
}

// cleanupAuditJob removes audit events past the retention window
func (s *MaintenanceService) cleanupAuditJob() {
	startTime := time.Now()

	removed, err := s.audit.CleanupOldEvents(context.Background(), s.auditRetention)
	if err != nil {
		s.logger.WithError(err).Error("Audit cleanup job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"removed":  removed,
		"duration": time.Since(startTime),
	}).Info("Audit cleanup job finished")
}

// RunAuditCleanupNow runs the audit cleanup immediately (manual trigger)
func (s *MaintenanceService) RunAuditCleanupNow() {
	s.logger.Info("Running audit cleanup now")
	s.cleanupAuditJob()
}
