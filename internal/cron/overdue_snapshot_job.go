package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
	"github.com/jordanmarch/upkeep-backend/pkg/metrics"
)

type OverdueSnapshotJobParams struct {
	Logger     *logger.Logger
	Tasks      overdueCounter
	Properties propertyFinder
	Metrics    *metrics.TaskMetrics
}

type overdueCounter interface {
	OverdueCounts(ctx context.Context) (map[uuid.UUID]int64, error)
}

type propertyFinder interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Property, error)
}

// NewOverdueSnapshotJob builds the job that publishes the overdue-task gauge
// broken down by the parent property's status.
func NewOverdueSnapshotJob(params OverdueSnapshotJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tasks == nil {
		return nil, fmt.Errorf("task service required")
	}
	if params.Properties == nil {
		return nil, fmt.Errorf("property repository required")
	}
	if params.Metrics == nil {
		return nil, fmt.Errorf("task metrics required")
	}
	return &overdueSnapshotJob{
		logg:       params.Logger,
		tasks:      params.Tasks,
		properties: params.Properties,
		metrics:    params.Metrics,
	}, nil
}

type overdueSnapshotJob struct {
	logg       *logger.Logger
	tasks      overdueCounter
	properties propertyFinder
	metrics    *metrics.TaskMetrics
}

func (j *overdueSnapshotJob) Name() string { return "overdue-snapshot" }

func (j *overdueSnapshotJob) Run(ctx context.Context) error {
	counts, err := j.tasks.OverdueCounts(ctx)
	if err != nil {
		return fmt.Errorf("overdue snapshot: %w", err)
	}

	propertyIDs := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		propertyIDs = append(propertyIDs, id)
	}
	properties, err := j.properties.FindByIDs(ctx, propertyIDs)
	if err != nil {
		return fmt.Errorf("overdue snapshot: load properties: %w", err)
	}

	statusByProperty := make(map[uuid.UUID]enums.PropertyStatus, len(properties))
	for _, property := range properties {
		statusByProperty[property.ID] = property.Status
	}

	totals := map[enums.PropertyStatus]int64{
		enums.PropertyStatusActive:   0,
		enums.PropertyStatusSold:     0,
		enums.PropertyStatusArchived: 0,
	}
	var total int64
	for propertyID, count := range counts {
		status, ok := statusByProperty[propertyID]
		if !ok {
			// Task rows pointing at a deleted property; nothing to label.
			continue
		}
		totals[status] += count
		total += count
	}
	for status, count := range totals {
		j.metrics.SetOverdue(status.String(), float64(count))
	}

	j.logg.Info(j.logg.WithField(ctx, "overdue_total", total), "overdue snapshot published")
	return nil
}
