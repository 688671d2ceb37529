package cron

import (
	"context"
	"fmt"
	"time"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/multierr"

	"github.com/jordanmarch/upkeep-backend/pkg/logger"
	"github.com/jordanmarch/upkeep-backend/pkg/metrics"
)

const defaultSchedule = "0 3 * * *"

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Schedule string
}

// Service executes registered jobs on a cron schedule. A Redis lock keeps a
// cycle exclusive across worker replicas.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	schedule string
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	schedule := params.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		schedule: schedule,
	}, nil
}

// Run schedules the cycle and blocks until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	scheduler := robfig.New()
	_, err := scheduler.AddFunc(s.schedule, func() {
		if cycleErr := s.RunCycle(ctx); cycleErr != nil {
			s.logg.Error(ctx, "scheduled run failed", cycleErr)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	scheduler.Start()
	s.logg.Info(s.logg.WithField(ctx, "schedule", s.schedule), "cron worker started")

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	s.logg.Info(ctx, "cron worker stopped")
	return ctx.Err()
}

// RunCycle executes every registered job once, under the distributed lock.
// Job failures are collected rather than aborting the cycle.
func (s *Service) RunCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	s.logg.Info(ctx, "scheduled run starting")
	var cycleErr error
	for _, job := range s.registry.Jobs() {
		cycleErr = multierr.Append(cycleErr, s.runJob(ctx, job))
	}
	s.logg.Info(ctx, "scheduled run complete")
	return cycleErr
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	s.logg.Info(jobCtx, "job start")

	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
	return nil
}
