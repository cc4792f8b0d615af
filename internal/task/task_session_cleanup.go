package task

import (
	"context"

	"github.com/penflow/penflow-sync-service/internal/service"

	"go.uber.org/zap"
)

// SessionCleanupTask removes expired sessions so the auth table does not
// grow without bound.
type SessionCleanupTask struct {
	sessions service.SessionService
	logger   *zap.Logger
	schedule string
}

// NewSessionCleanupTask creates a SessionCleanupTask instance.
func NewSessionCleanupTask(sessions service.SessionService, logger *zap.Logger, schedule string) *SessionCleanupTask {
	if schedule == "" {
		schedule = "@every 1h"
	}
	return &SessionCleanupTask{
		sessions: sessions,
		logger:   logger,
		schedule: schedule,
	}
}

func (t *SessionCleanupTask) Name() string {
	return "session-cleanup"
}

func (t *SessionCleanupTask) Schedule() string {
	return t.schedule
}

func (t *SessionCleanupTask) IsStartupRun() bool {
	return true
}

func (t *SessionCleanupTask) Run(ctx context.Context) error {
	removed, err := t.sessions.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		t.logger.Info("session cleanup done", zap.Int64("removed", removed))
	}
	return nil
}
