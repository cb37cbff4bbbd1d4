package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Source tells one-off events and recurring occurrences apart.
type Source uint8

const (
	SourceOneOff Source = iota
	SourceRecurring
)

// Tag is the single-letter key prefix used by the completion overlay.
func (s Source) Tag() string {
	if s == SourceRecurring {
		return "R"
	}
	return "S"
}

func (s Source) String() string {
	if s == SourceRecurring {
		return "recurring"
	}
	return "one-off"
}

// LogicalID identifies what a completion record is about: a stored one-off
// event or a recurrence pattern. It is compared structurally.
type LogicalID struct {
	Source Source
	ID     uint
}

func OneOffID(id uint) LogicalID    { return LogicalID{Source: SourceOneOff, ID: id} }
func RecurringID(id uint) LogicalID { return LogicalID{Source: SourceRecurring, ID: id} }

func (l LogicalID) IsRecurring() bool {
	return l.Source == SourceRecurring
}

// String renders S12 or R7.
func (l LogicalID) String() string {
	return l.Source.Tag() + strconv.FormatUint(uint64(l.ID), 10)
}

// ParseLogicalID is the inverse of String.
func ParseLogicalID(s string) (LogicalID, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return LogicalID{}, fmt.Errorf("invalid schedule id %q", s)
	}
	var src Source
	switch strings.ToUpper(s[:1]) {
	case "S":
		src = SourceOneOff
	case "R":
		src = SourceRecurring
	default:
		return LogicalID{}, fmt.Errorf("invalid schedule id %q: expected S or R prefix", s)
	}
	id, err := strconv.ParseUint(s[1:], 10, 64)
	if err != nil || id == 0 {
		return LogicalID{}, fmt.Errorf("invalid schedule id %q", s)
	}
	return LogicalID{Source: src, ID: uint(id)}, nil
}

// CompletionKey keys completion state by (source, logical id, date).
type CompletionKey struct {
	ID   LogicalID
	Date Date
}

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// PriorityRank orders high, medium, low, then everything else.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// ScheduleView is one row of a day's schedule, either a stored one-off
// event or a materialized occurrence.
type ScheduleView struct {
	ID          LogicalID
	Date        Date
	Title       string
	Start       time.Time
	End         time.Time
	Completed   bool
	Priority    string
	Description string
	// PatternKind is empty for one-off events.
	PatternKind PatternKind
}

func (v ScheduleView) IsRecurring() bool {
	return v.ID.IsRecurring()
}

// Key is the completion overlay key of the view.
func (v ScheduleView) Key() CompletionKey {
	return CompletionKey{ID: v.ID, Date: v.Date}
}
