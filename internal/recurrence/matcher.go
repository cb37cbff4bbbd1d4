// Package recurrence decides which days a stored pattern occurs on and turns
// a matched day into a concrete occurrence. Everything here is pure.
package recurrence

import (
	"daycheck/internal/model"
)

// Matches reports whether p has an occurrence on date. Dates outside the
// pattern's window never match. Patterns are assumed to be validated.
func Matches(p *model.RecurrencePattern, date model.Date) bool {
	if p == nil || !p.ActiveOn(date) {
		return false
	}
	interval := p.Interval
	if interval < 1 {
		interval = 1
	}

	switch p.Kind {
	case model.PatternDaily:
		return p.RangeStart.DaysUntil(date)%interval == 0

	case model.PatternWeekly:
		if p.Weekdays.IsEmpty() {
			if date.Weekday() != p.RangeStart.Weekday() {
				return false
			}
		} else if !p.Weekdays.Contains(date.Weekday()) {
			return false
		}
		return weeksBetween(p.RangeStart, date)%interval == 0

	case model.PatternMonthly:
		switch {
		case p.UsesDayOfMonth():
			if date.Day != *p.DayOfMonth {
				return false
			}
		case p.UsesWeekOfMonth():
			if WeekOfMonth(date) != *p.WeekOfMonth || date.Weekday() != *p.AnchorWeekday {
				return false
			}
		default:
			return false
		}
		return monthsBetween(p.RangeStart, date)%interval == 0

	case model.PatternYearly:
		if date.Month != p.RangeStart.Month || date.Day != p.RangeStart.Day {
			return false
		}
		return (date.Year-p.RangeStart.Year)%interval == 0

	case model.PatternCustom:
		// Interval is not applied to CUSTOM patterns.
		return p.Weekdays.Contains(date.Weekday())
	}
	return false
}

// WeekOfMonth numbers days 1-7 as week 1, 8-14 as week 2 and so on.
func WeekOfMonth(date model.Date) int {
	return (date.Day-1)/7 + 1
}

// weeksBetween counts whole weeks between the Mondays of from and to.
func weeksBetween(from, to model.Date) int {
	return from.MondayOf().DaysUntil(to.MondayOf()) / 7
}

// monthsBetween counts calendar months between the first days of the
// months of from and to.
func monthsBetween(from, to model.Date) int {
	return (to.Year-from.Year)*12 + int(to.Month) - int(from.Month)
}

// Occurrences checks every day in [from, to] clipped to the pattern's own
// window and returns the matching days in order.
func Occurrences(p *model.RecurrencePattern, from, to model.Date) []model.Date {
	if p == nil {
		return nil
	}
	if from.Before(p.RangeStart) {
		from = p.RangeStart
	}
	if end := p.EffectiveEnd(); to.After(end) {
		to = end
	}
	var out []model.Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		if Matches(p, d) {
			out = append(out, d)
		}
	}
	return out
}

// First returns the earliest day p occurs on, or false when it never does.
func First(p *model.RecurrencePattern) (model.Date, bool) {
	if p == nil {
		return model.Date{}, false
	}
	end := p.EffectiveEnd()
	for d := p.RangeStart; !d.After(end); d = d.AddDays(1) {
		if Matches(p, d) {
			return d, true
		}
	}
	return model.Date{}, false
}
