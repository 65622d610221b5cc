package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"flynesis-planner/internal/model"
)

// SettingsRepository manages the per-account settings row.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Find returns gorm.ErrRecordNotFound when the account has no settings row.
func (r *SettingsRepository) Find(ctx context.Context, flyID string) (*model.Settings, error) {
	var settings model.Settings
	if err := r.db.WithContext(ctx).Where("flyid = ?", flyID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert writes the row keyed by flyid, replacing the three preferences.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *model.Settings) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "flyid"}},
		DoUpdates: clause.AssignmentColumns([]string{"week_start", "time_format", "default_view", "updated_at"}),
	}).Create(settings).Error
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// EnsureDefault inserts defaults unless a row already exists. Losing an
// insert race to another writer counts as success.
func (r *SettingsRepository) EnsureDefault(ctx context.Context, defaults *model.Settings) error {
	_, err := r.Find(ctx, defaults.FlyID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(defaults).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return fmt.Errorf("create default settings: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("find settings: %w", err)
	}
}
