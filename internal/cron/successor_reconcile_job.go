package cron

import (
	"context"
	"fmt"

	"github.com/jordanmarch/upkeep-backend/pkg/logger"
)

const defaultReconcileLimit = 200

type SuccessorReconcileJobParams struct {
	Logger *logger.Logger
	Tasks  successorReconciler
	Limit  int
}

type successorReconciler interface {
	ReconcileSuccessors(ctx context.Context, limit int) (int, error)
}

// NewSuccessorReconcileJob builds the job that repairs recurring tasks left
// completed with no successor by a crash between the two advance writes.
func NewSuccessorReconcileJob(params SuccessorReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tasks == nil {
		return nil, fmt.Errorf("task service required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &successorReconcileJob{
		logg:  params.Logger,
		tasks: params.Tasks,
		limit: limit,
	}, nil
}

type successorReconcileJob struct {
	logg  *logger.Logger
	tasks successorReconciler
	limit int
}

func (j *successorReconcileJob) Name() string { return "successor-reconcile" }

func (j *successorReconcileJob) Run(ctx context.Context) error {
	spawned, err := j.tasks.ReconcileSuccessors(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("successor reconcile: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"limit":   j.limit,
		"spawned": spawned,
	})
	j.logg.Info(logCtx, "successor reconcile complete")
	return nil
}
