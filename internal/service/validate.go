package service

import (
	"strings"
	"time"

	"daycheck/internal/model"
)

// normalizePattern fills derived fields before validation.
func normalizePattern(p *model.RecurrencePattern) {
	p.Title = strings.TrimSpace(p.Title)
	// A "Nth weekday" pattern given a single weekday uses it as the anchor.
	if p.Kind == model.PatternMonthly && p.WeekOfMonth != nil && p.AnchorWeekday == nil && p.Weekdays.Len() == 1 {
		day := p.Weekdays.Days()[0]
		p.AnchorWeekday = &day
	}
}

func validatePattern(p *model.RecurrencePattern) error {
	if p.Title == "" {
		return invalid("title", "must not be empty")
	}
	if !p.Kind.Valid() {
		return invalid("kind", "unknown kind "+string(p.Kind))
	}
	if p.Interval < 1 {
		return invalid("interval", "must be at least 1")
	}
	if p.RangeStart.IsZero() {
		return invalid("rangeStart", "is required")
	}
	if p.RangeEnd != nil && p.RangeEnd.Before(p.RangeStart) {
		return invalid("rangeEnd", "is before rangeStart")
	}
	if p.EndTime < p.StartTime {
		return invalid("endTime", "is before startTime")
	}

	switch p.Kind {
	case model.PatternMonthly:
		hasDay, hasWeek := p.DayOfMonth != nil, p.WeekOfMonth != nil
		if hasDay == hasWeek {
			return invalid("monthly", "set exactly one of dayOfMonth or weekOfMonth")
		}
		if hasDay && (*p.DayOfMonth < 1 || *p.DayOfMonth > 31) {
			return invalid("dayOfMonth", "must be between 1 and 31")
		}
		if hasWeek {
			if *p.WeekOfMonth < 1 || *p.WeekOfMonth > 5 {
				return invalid("weekOfMonth", "must be between 1 and 5")
			}
			if p.AnchorWeekday == nil {
				return invalid("anchorWeekday", "is required with weekOfMonth")
			}
			if *p.AnchorWeekday < time.Sunday || *p.AnchorWeekday > time.Saturday {
				return invalid("anchorWeekday", "must be a weekday between 0 and 6")
			}
		}
	case model.PatternCustom:
		if p.Weekdays.IsEmpty() {
			return invalid("weekdays", "custom patterns need at least one weekday")
		}
	}
	return nil
}

// validateException checks an exception against the pattern it overrides.
func validateException(p *model.RecurrencePattern, exc *model.RecurrenceException) error {
	if exc.Date.IsZero() {
		return invalid("date", "is required")
	}
	switch exc.Kind {
	case model.ExceptionSkip:
		return nil
	case model.ExceptionModify:
	default:
		return invalid("kind", "unknown exception kind "+string(exc.Kind))
	}

	patch := exc.Patch()
	if patch.Empty() {
		return invalid("patch", "modify needs at least one override")
	}
	if title, ok := patch.Title.Get(); ok && strings.TrimSpace(title) == "" {
		return invalid("title", "must not be empty")
	}
	if patch.EndTime.Or(p.EndTime) < patch.StartTime.Or(p.StartTime) {
		return invalid("endTime", "is before startTime")
	}
	return nil
}
