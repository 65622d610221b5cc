package model

import (
	"time"

	"gorm.io/gorm"
)

// Task is a planner_tasks row.
type Task struct {
	ID        string `gorm:"primaryKey;size:36"`
	FlyID     string `gorm:"column:flyid;index;not null"`
	Title     string `gorm:"not null"`
	Status    string `gorm:"not null;default:Todo"`
	Priority  string `gorm:"not null;default:Medium"`
	Tag       *string
	DueISO    *string `gorm:"column:due_iso"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Task) TableName() string { return "planner_tasks" }

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = newID()
	}
	return nil
}
