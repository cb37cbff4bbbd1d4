package model

import (
	"fmt"
	"strings"
	"time"
)

// PatternKind selects how a recurrence pattern repeats.
type PatternKind string

const (
	PatternDaily   PatternKind = "DAILY"
	PatternWeekly  PatternKind = "WEEKLY"
	PatternMonthly PatternKind = "MONTHLY"
	PatternYearly  PatternKind = "YEARLY"
	PatternCustom  PatternKind = "CUSTOM"
)

// ParsePatternKind is case-insensitive.
func ParsePatternKind(s string) (PatternKind, error) {
	k := PatternKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown pattern kind %q", s)
	}
	return k, nil
}

func (k PatternKind) Valid() bool {
	switch k {
	case PatternDaily, PatternWeekly, PatternMonthly, PatternYearly, PatternCustom:
		return true
	}
	return false
}

// maxPatternYears bounds an open-ended pattern.
const maxPatternYears = 100

// RecurrencePattern is a stored recurrence rule. Occurrences are computed
// on demand and never persisted.
type RecurrencePattern struct {
	ID          uint        `gorm:"primaryKey"`
	OwnerID     uint        `gorm:"index"`
	Title       string      `gorm:"not null"`
	Kind        PatternKind `gorm:"type:varchar(16);not null"`
	Interval    int         `gorm:"column:repeat_interval;not null;default:1"`
	Weekdays    WeekdaySet
	DayOfMonth  *int
	WeekOfMonth *int
	// AnchorWeekday is the weekday of a MONTHLY "Nth weekday" pattern.
	AnchorWeekday *time.Weekday
	RangeStart    Date  `gorm:"index;not null"`
	RangeEnd      *Date `gorm:"index"`
	StartTime     Clock `gorm:"not null"`
	EndTime       Clock `gorm:"not null"`
	Priority      string
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectiveEnd is RangeEnd, or RangeStart plus a hundred years when the
// pattern is open-ended.
func (p *RecurrencePattern) EffectiveEnd() Date {
	if p.RangeEnd != nil {
		return *p.RangeEnd
	}
	return p.RangeStart.AddYears(maxPatternYears)
}

// ActiveOn reports whether date falls inside the pattern's own window.
func (p *RecurrencePattern) ActiveOn(date Date) bool {
	return !date.Before(p.RangeStart) && !date.After(p.EffectiveEnd())
}

// UsesDayOfMonth reports the MONTHLY "Nth day" mode.
func (p *RecurrencePattern) UsesDayOfMonth() bool {
	return p.DayOfMonth != nil
}

// UsesWeekOfMonth reports the MONTHLY "Nth weekday" mode.
func (p *RecurrencePattern) UsesWeekOfMonth() bool {
	return p.WeekOfMonth != nil && p.AnchorWeekday != nil
}
