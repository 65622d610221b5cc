package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"flynesis-planner/internal/model"
)

// ProfileRepository manages planner profiles.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetOrCreate returns the account's profile, creating it on first use. When a
// concurrent caller wins the insert, the duplicate key is resolved by reading
// the winner's row.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, flyID string) (*model.Profile, error) {
	var profile model.Profile
	db := r.db.WithContext(ctx)
	err := db.Where("flyid = ?", flyID).First(&profile).Error
	switch {
	case err == nil:
		return &profile, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = model.Profile{FlyID: flyID}
		if err := db.Create(&profile).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("create profile: %w", err)
			}
			var existing model.Profile
			if err := db.Where("flyid = ?", flyID).First(&existing).Error; err != nil {
				return nil, fmt.Errorf("refetch profile: %w", err)
			}
			return &existing, nil
		}
		return &profile, nil
	default:
		return nil, fmt.Errorf("find profile: %w", err)
	}
}

// Exists reports whether the account already has a profile.
func (r *ProfileRepository) Exists(ctx context.Context, flyID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).Where("flyid = ?", flyID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count profiles: %w", err)
	}
	return count > 0, nil
}
