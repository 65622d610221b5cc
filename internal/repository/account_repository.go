package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"flynesis-planner/internal/model"
)

// AccountRepository resolves authenticated identities to account ids.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Link finds or creates the account of an authenticated identity.
func (r *AccountRepository) Link(ctx context.Context, authUserID string) (*model.Account, error) {
	var account model.Account
	db := r.db.WithContext(ctx)
	err := db.Where("auth_user_id = ?", authUserID).First(&account).Error
	switch {
	case err == nil:
		return &account, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		account = model.Account{AuthUserID: authUserID}
		if err := db.Create(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return r.FindByAuthUserID(ctx, authUserID)
			}
			return nil, fmt.Errorf("create account: %w", err)
		}
		return &account, nil
	default:
		return nil, fmt.Errorf("find account: %w", err)
	}
}

func (r *AccountRepository) FindByAuthUserID(ctx context.Context, authUserID string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("auth_user_id = ?", authUserID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) ListAll(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
