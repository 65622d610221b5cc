package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account links an authenticated identity to its opaque flyid (the row ID).
type Account struct {
	ID         string `gorm:"primaryKey;size:36"`
	AuthUserID string `gorm:"column:auth_user_id;uniqueIndex;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Account) TableName() string { return "fly_accounts" }

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	return nil
}

// Profile marks that an account has used the planner.
type Profile struct {
	ID        string `gorm:"primaryKey;size:36"`
	FlyID     string `gorm:"column:flyid;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Profile) TableName() string { return "planner_profiles" }

func (p *Profile) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}
