package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
)

// Repository handles task persistence. Queries stay coarse (equality and
// membership filters only); predicate filtering and sorting happen in the
// service layer.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to task operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new task row.
func (r *Repository) Create(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID loads a task by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Update saves the provided task.
func (r *Repository) Update(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	return r.db.WithContext(ctx).Save(task).Error
}

// Delete removes the task row. No cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id).Error
}

// FindByProperty returns every task attached to the property.
func (r *Repository) FindByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).Where("property_id = ?", propertyID).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindByProperties returns every task attached to any of the properties.
func (r *Repository) FindByProperties(ctx context.Context, propertyIDs []uuid.UUID) ([]models.Task, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	var tasks []models.Task
	if err := r.db.WithContext(ctx).Where("property_id IN ?", propertyIDs).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindCompletedRecurring returns up to limit completed tasks that carry a
// recurrence rule, oldest first. Used by the successor reconciliation job.
func (r *Repository) FindCompletedRecurring(ctx context.Context, limit int) ([]models.Task, error) {
	var tasks []models.Task
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.TaskStatusCompleted).
		Where("recurrence_freq IS NOT NULL").
		Where("recurrence_interval IS NOT NULL").
		Order("updated_at")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// HasSuccessor reports whether a later occurrence was already spawned from
// the given task. Matches on the predecessor link, so a renamed successor
// still counts and an unrelated task sharing the title does not.
func (r *Repository) HasSuccessor(ctx context.Context, task *models.Task) (bool, error) {
	if task == nil {
		return false, fmt.Errorf("task is required")
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("predecessor_id = ?", task.ID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountPendingOverdue returns, per property, the number of pending tasks due
// strictly before the cutoff. Feeds the overdue snapshot gauge.
func (r *Repository) CountPendingOverdue(ctx context.Context, cutoff time.Time) (map[uuid.UUID]int64, error) {
	type row struct {
		PropertyID uuid.UUID
		Total      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("property_id, COUNT(*) AS total").
		Where("status = ?", enums.TaskStatusPending).
		Where("due_date < ?", cutoff).
		Group("property_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.PropertyID] = r.Total
	}
	return out, nil
}
