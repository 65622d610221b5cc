package model

import (
	"time"

	"gorm.io/gorm"
)

// Event is a planner_events row. StartMin/EndMin are minutes since midnight.
type Event struct {
	ID        string `gorm:"primaryKey;size:36"`
	FlyID     string `gorm:"column:flyid;index;not null"`
	Title     string `gorm:"not null"`
	DateISO   string `gorm:"column:date_iso;index;size:10;not null"`
	StartMin  int    `gorm:"column:start_min;not null"`
	EndMin    int    `gorm:"column:end_min;not null"`
	Type      string `gorm:"not null"`
	Priority  string `gorm:"not null"`
	Notes     *string
	Color     string `gorm:"size:16"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Event) TableName() string { return "planner_events" }

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = newID()
	}
	return nil
}
