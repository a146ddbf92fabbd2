package queue

import (
	"time"

	"github.com/hibiken/asynq"

	"delivery-backend/internal/config"
	"delivery-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterRefundJobs() error {
	return s.registerCleanupExpiredOrdersJob()
}

// ================================================
// JOB: Cleanup Expired Orders (default daily at 4 AM)
// ================================================
func (s *Scheduler) registerCleanupExpiredOrdersJob() error {
	task, err := NewCleanupExpiredOrdersTask(TriggeredByScheduler)
	if err != nil {
		return err
	}

	entryID, err := s.scheduler.Register(
		s.jobConfig.ExpiredOrderCleanupCron,
		task,
		CleanupTaskOptions(s.jobConfig)...,
	)
	if err != nil {
		logger.Error("Failed to register CleanupExpiredOrders job", err)
		return err
	}

	logger.Info("✓ Registered CleanupExpiredOrders", map[string]interface{}{
		"cron":     s.jobConfig.ExpiredOrderCleanupCron,
		"entry_id": entryID,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
