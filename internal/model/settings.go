package model

import (
	"time"

	"gorm.io/gorm"
)

// Settings is the planner_settings row, one per account.
type Settings struct {
	ID          string `gorm:"primaryKey;size:36"`
	FlyID       string `gorm:"column:flyid;uniqueIndex;not null"`
	WeekStart   string `gorm:"column:week_start;not null"`
	TimeFormat  string `gorm:"column:time_format;not null"`
	DefaultView string `gorm:"column:default_view;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Settings) TableName() string { return "planner_settings" }

func (s *Settings) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}
