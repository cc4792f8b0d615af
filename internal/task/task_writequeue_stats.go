package task

import (
	"context"

	"github.com/penflow/penflow-sync-service/pkg/writequeue"

	"go.uber.org/zap"
)

// WriteQueueStatsTask logs the write queue's shape so idle-queue cleanup and
// backlog growth stay visible without a debugger.
type WriteQueueStatsTask struct {
	manager *writequeue.Manager
	logger  *zap.Logger
}

// NewWriteQueueStatsTask creates a WriteQueueStatsTask instance.
func NewWriteQueueStatsTask(manager *writequeue.Manager, logger *zap.Logger) *WriteQueueStatsTask {
	return &WriteQueueStatsTask{manager: manager, logger: logger}
}

func (t *WriteQueueStatsTask) Name() string {
	return "writequeue-stats"
}

func (t *WriteQueueStatsTask) Schedule() string {
	return "@every 10m"
}

func (t *WriteQueueStatsTask) IsStartupRun() bool {
	return false
}

func (t *WriteQueueStatsTask) Run(ctx context.Context) error {
	m := t.manager.GetMetrics()
	t.logger.Info("write queue stats",
		zap.Int("activeQueues", m.ActiveQueues),
		zap.Int("queueCapacity", m.QueueCapacity),
		zap.Bool("closed", m.IsClosed))
	return nil
}
