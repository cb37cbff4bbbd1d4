package model

import (
	"fmt"
	"strings"
	"time"
)

// ExceptionKind is the per-date override applied on top of a pattern.
type ExceptionKind string

const (
	ExceptionSkip   ExceptionKind = "SKIP"
	ExceptionModify ExceptionKind = "MODIFY"
)

func ParseExceptionKind(s string) (ExceptionKind, error) {
	k := ExceptionKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case ExceptionSkip, ExceptionModify:
		return k, nil
	}
	return "", fmt.Errorf("unknown exception kind %q", s)
}

// RecurrenceException overrides a single occurrence of a pattern. There is
// at most one per (pattern, date).
type RecurrenceException struct {
	ID        uint          `gorm:"primaryKey"`
	PatternID uint          `gorm:"uniqueIndex:idx_exception_pattern_date;not null"`
	Date      Date          `gorm:"column:exception_date;uniqueIndex:idx_exception_pattern_date;not null"`
	Kind      ExceptionKind `gorm:"type:varchar(8);not null"`

	ModifiedTitle       *string
	ModifiedStartTime   *Clock
	ModifiedEndTime     *Clock
	ModifiedPriority    *string
	ModifiedDescription *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OccurrencePatch holds the fields a MODIFY exception replaces.
type OccurrencePatch struct {
	Title       Optional[string]
	StartTime   Optional[Clock]
	EndTime     Optional[Clock]
	Priority    Optional[string]
	Description Optional[string]
}

// Empty reports whether the patch changes nothing.
func (p OccurrencePatch) Empty() bool {
	return !p.Title.Set && !p.StartTime.Set && !p.EndTime.Set && !p.Priority.Set && !p.Description.Set
}

// Patch returns the overrides of a MODIFY exception; SKIP exceptions yield an
// empty patch.
func (e *RecurrenceException) Patch() OccurrencePatch {
	if e == nil || e.Kind != ExceptionModify {
		return OccurrencePatch{}
	}
	return OccurrencePatch{
		Title:       OptionalFromPtr(e.ModifiedTitle),
		StartTime:   OptionalFromPtr(e.ModifiedStartTime),
		EndTime:     OptionalFromPtr(e.ModifiedEndTime),
		Priority:    OptionalFromPtr(e.ModifiedPriority),
		Description: OptionalFromPtr(e.ModifiedDescription),
	}
}

// SetPatch stores p in the nullable override columns.
func (e *RecurrenceException) SetPatch(p OccurrencePatch) {
	e.ModifiedTitle = p.Title.Ptr()
	e.ModifiedStartTime = p.StartTime.Ptr()
	e.ModifiedEndTime = p.EndTime.Ptr()
	e.ModifiedPriority = p.Priority.Ptr()
	e.ModifiedDescription = p.Description.Ptr()
}
