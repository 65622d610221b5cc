package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"flynesis-planner/internal/model"
)

// TaskRepository handles CRUD for planner tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListByAccount returns the account's tasks, newest first.
func (r *TaskRepository) ListByAccount(ctx context.Context, flyID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("flyid = ?", flyID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update overwrites the mutable columns of the task with the given id and
// returns the stored row. The creation time is never touched.
func (r *TaskRepository) Update(ctx context.Context, id string, task *model.Task) (*model.Task, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&model.Task{}).Where("id = ? AND flyid = ?", id, task.FlyID).
		Updates(map[string]interface{}{
			"title":      task.Title,
			"status":     task.Status,
			"priority":   task.Priority,
			"tag":        task.Tag,
			"due_iso":    task.DueISO,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update task %s: %w", id, gorm.ErrRecordNotFound)
	}
	return r.FindByID(ctx, task.FlyID, id)
}

func (r *TaskRepository) FindByID(ctx context.Context, flyID, id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("flyid = ? AND id = ?", flyID, id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task of the given account. Deleting a missing task is not an error.
func (r *TaskRepository) Delete(ctx context.Context, flyID, id string) error {
	if err := r.db.WithContext(ctx).Where("flyid = ? AND id = ?", flyID, id).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (r *TaskRepository) DeleteAll(ctx context.Context, flyID string) error {
	if err := r.db.WithContext(ctx).Where("flyid = ?", flyID).Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	return nil
}
