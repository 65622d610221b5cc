package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"flynesis-planner/internal/model"
)

// FocusRepository stores completed focus sessions. Rows are never updated.
type FocusRepository struct {
	db *gorm.DB
}

func NewFocusRepository(db *gorm.DB) *FocusRepository {
	return &FocusRepository{db: db}
}

// ListByAccount returns sessions, most recently completed first.
func (r *FocusRepository) ListByAccount(ctx context.Context, flyID string) ([]model.FocusSession, error) {
	var sessions []model.FocusSession
	if err := r.db.WithContext(ctx).Where("flyid = ?", flyID).
		Order("completed_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list focus sessions: %w", err)
	}
	return sessions, nil
}

func (r *FocusRepository) Create(ctx context.Context, session *model.FocusSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create focus session: %w", err)
	}
	return nil
}

func (r *FocusRepository) DeleteAll(ctx context.Context, flyID string) error {
	if err := r.db.WithContext(ctx).Where("flyid = ?", flyID).Delete(&model.FocusSession{}).Error; err != nil {
		return fmt.Errorf("delete focus sessions: %w", err)
	}
	return nil
}
