// Package task runs the background housekeeping jobs.
package task

import (
	"context"

	"github.com/penflow/penflow-sync-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task defines one scheduled job.
type Task interface {
	// Name task name
	Name() string
	// Run executes the task
	Run(ctx context.Context) error
	// Schedule cron spec, e.g. "@every 1h"
	Schedule() string
	// IsStartupRun whether to run once immediately
	IsStartupRun() bool
}

// Scheduler drives the registered tasks with a cron runner and stops them
// with the service's close signal.
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	cron   *cron.Cron
	sc     *safe_close.SafeClose
}

// NewScheduler creates a task scheduler.
func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		cron:   cron.New(),
		sc:     sc,
	}
}

// AddTask registers a task.
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start schedules every task and ties the runner to the close signal.
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		if task.IsStartupRun() {
			go s.runTask(task, true)
		}

		t := task
		if _, err := s.cron.AddFunc(task.Schedule(), func() {
			s.runTask(t, false)
		}); err != nil {
			s.logger.Error("task schedule invalid",
				zap.String("name", task.Name()),
				zap.String("schedule", task.Schedule()),
				zap.Error(err))
		}
	}

	s.cron.Start()

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		s.logger.Info("tasks stopped")
	})
}

func (s *Scheduler) runTask(task Task, startupRun bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String("name", task.Name()),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	s.logger.Info("task running",
		zap.String("name", task.Name()),
		zap.Bool("startupRun", startupRun))

	if err := task.Run(context.Background()); err != nil {
		s.logger.Error("task running error",
			zap.String("name", task.Name()),
			zap.Error(err))
	}
}
