package model

import "time"

// CompletionRecord is the completion state of one logical schedule on one
// day. Absence means not completed.
type CompletionRecord struct {
	ID          uint `gorm:"primaryKey"`
	OwnerID     uint `gorm:"uniqueIndex:idx_completion_key;not null"`
	LogicalID   uint `gorm:"uniqueIndex:idx_completion_key;not null"`
	IsRecurring bool `gorm:"uniqueIndex:idx_completion_key;not null"`
	Date        Date `gorm:"column:completion_date;uniqueIndex:idx_completion_key;index;not null"`
	Completed   bool `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Target returns the logical id the record belongs to.
func (r CompletionRecord) Target() LogicalID {
	if r.IsRecurring {
		return RecurringID(r.LogicalID)
	}
	return OneOffID(r.LogicalID)
}
