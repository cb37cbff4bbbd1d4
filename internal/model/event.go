package model

import "time"

// OneOffEvent is an individually stored, non-recurring event.
type OneOffEvent struct {
	ID          uint      `gorm:"primaryKey"`
	OwnerID     uint      `gorm:"index"`
	Title       string    `gorm:"not null"`
	StartAt     time.Time `gorm:"index;not null"`
	EndAt       time.Time `gorm:"index;not null"`
	Priority    string
	Description string
	Completed   bool `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
