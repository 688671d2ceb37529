package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
	"github.com/jordanmarch/upkeep-backend/pkg/metrics"
)

func newTestTaskMetrics() *metrics.TaskMetrics {
	return metrics.NewTaskMetrics(prometheus.NewRegistry())
}

type fakeReconciler struct {
	spawned   int
	err       error
	gotLimit  int
	runCalled bool
}

func (f *fakeReconciler) ReconcileSuccessors(_ context.Context, limit int) (int, error) {
	f.runCalled = true
	f.gotLimit = limit
	return f.spawned, f.err
}

func TestSuccessorReconcileJobRuns(t *testing.T) {
	reconciler := &fakeReconciler{spawned: 3}
	job, err := NewSuccessorReconcileJob(SuccessorReconcileJobParams{
		Logger: testLogger(),
		Tasks:  reconciler,
		Limit:  50,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "successor-reconcile" {
		t.Fatalf("unexpected name %q", job.Name())
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reconciler.runCalled || reconciler.gotLimit != 50 {
		t.Fatalf("expected reconcile with limit 50, got %d", reconciler.gotLimit)
	}
}

func TestSuccessorReconcileJobDefaultsLimit(t *testing.T) {
	reconciler := &fakeReconciler{}
	job, err := NewSuccessorReconcileJob(SuccessorReconcileJobParams{
		Logger: testLogger(),
		Tasks:  reconciler,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if reconciler.gotLimit != defaultReconcileLimit {
		t.Fatalf("expected default limit %d, got %d", defaultReconcileLimit, reconciler.gotLimit)
	}
}

func TestSuccessorReconcileJobPropagatesFailure(t *testing.T) {
	job, err := NewSuccessorReconcileJob(SuccessorReconcileJobParams{
		Logger: testLogger(),
		Tasks:  &fakeReconciler{err: errors.New("store down")},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeOverdueCounter struct {
	counts map[uuid.UUID]int64
	err    error
}

func (f fakeOverdueCounter) OverdueCounts(context.Context) (map[uuid.UUID]int64, error) {
	return f.counts, f.err
}

type fakePropertyFinder struct {
	properties []models.Property
}

func (f fakePropertyFinder) FindByIDs(context.Context, []uuid.UUID) ([]models.Property, error) {
	return f.properties, nil
}

func TestOverdueSnapshotJobRequiresMetrics(t *testing.T) {
	_, err := NewOverdueSnapshotJob(OverdueSnapshotJobParams{
		Logger:     testLogger(),
		Tasks:      fakeOverdueCounter{},
		Properties: fakePropertyFinder{},
	})
	if err == nil {
		t.Fatal("expected error without metrics")
	}
}

func TestOverdueSnapshotJobRuns(t *testing.T) {
	activeID := uuid.New()
	soldID := uuid.New()
	job, err := NewOverdueSnapshotJob(OverdueSnapshotJobParams{
		Logger: testLogger(),
		Tasks: fakeOverdueCounter{counts: map[uuid.UUID]int64{
			activeID: 2,
			soldID:   1,
		}},
		Properties: fakePropertyFinder{properties: []models.Property{
			{ID: activeID, Status: enums.PropertyStatusActive},
			{ID: soldID, Status: enums.PropertyStatusSold},
		}},
		Metrics: newTestTaskMetrics(),
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "overdue-snapshot" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}
