// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs: snapshots of the link
// collection and pruning of the audit log.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// EventPruner deletes audit log entries older than a given age.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Scheduler owns a cron instance and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithParser(parser)),
		logger: logger,
	}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// AddSnapshotJob writes a snapshot on schedule.
func (s *Scheduler) AddSnapshotJob(schedule string, snap *Snapshotter) error {
	_, err := s.cron.AddFunc(schedule, func() {
		path, err := snap.Snapshot()
		if errors.Is(err, ErrSourceNotReady) {
			s.logger.Warn("skipping navigation snapshot, links not loaded")
			return
		}
		if err != nil {
			s.logger.Error("failed to write navigation snapshot", "error", err)
			return
		}
		s.logger.Info("navigation snapshot written", "path", path)
	})
	if err != nil {
		return fmt.Errorf("adding snapshot job: %w", err)
	}
	return nil
}

// AddEventCleanupJob prunes audit events older than retention on schedule.
func (s *Scheduler) AddEventCleanupJob(schedule string, pruner EventPruner, retention time.Duration) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		deleted, err := pruner.DeleteOldEvents(ctx, retention)
		if err != nil {
			s.logger.Error("failed to delete old events", "error", err)
			return
		}
		if deleted > 0 {
			s.logger.Info("deleted old events", "count", deleted, "retention", retention)
		}
	})
	if err != nil {
		return fmt.Errorf("adding event cleanup job: %w", err)
	}
	return nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", s.Jobs())
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
