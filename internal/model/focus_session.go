package model

import (
	"time"

	"gorm.io/gorm"
)

// FocusSession is an append-only planner_focus_sessions row.
type FocusSession struct {
	ID          string  `gorm:"primaryKey;size:36"`
	FlyID       string  `gorm:"column:flyid;index;not null"`
	TaskID      *string `gorm:"column:task_id"`
	Duration    int     `gorm:"not null"`
	CompletedAt time.Time
	CreatedAt   time.Time
}

func (FocusSession) TableName() string { return "planner_focus_sessions" }

func (s *FocusSession) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}
