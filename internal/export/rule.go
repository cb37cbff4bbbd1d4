package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"daycheck/internal/model"
	"daycheck/internal/recurrence"
)

// ErrNoOccurrences is returned for patterns that never occur.
var ErrNoOccurrences = errors.New("pattern has no occurrences")

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

func byDay(days []time.Weekday) []rrule.Weekday {
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, rruleWeekdays[d])
	}
	return out
}

// Rule converts p into an RRULE whose occurrences match the pattern's. The
// rule starts at the first real occurrence, which keeps interval counting
// aligned with the pattern's own anchor. Open-ended patterns get no UNTIL.
func Rule(p *model.RecurrencePattern, loc *time.Location) (*rrule.RRule, error) {
	if loc == nil {
		loc = time.Local
	}
	first, ok := recurrence.First(p)
	if !ok {
		return nil, ErrNoOccurrences
	}
	interval := p.Interval
	if interval < 1 {
		interval = 1
	}

	opt := rrule.ROption{
		Dtstart:  first.At(p.StartTime, loc),
		Interval: interval,
		Wkst:     rrule.MO,
	}
	if p.RangeEnd != nil {
		opt.Until = p.RangeEnd.At(p.StartTime, loc)
	}

	switch p.Kind {
	case model.PatternDaily:
		opt.Freq = rrule.DAILY
	case model.PatternWeekly:
		opt.Freq = rrule.WEEKLY
		days := p.Weekdays.Days()
		if len(days) == 0 {
			days = []time.Weekday{p.RangeStart.Weekday()}
		}
		opt.Byweekday = byDay(days)
	case model.PatternMonthly:
		opt.Freq = rrule.MONTHLY
		switch {
		case p.UsesDayOfMonth():
			opt.Bymonthday = []int{*p.DayOfMonth}
		case p.UsesWeekOfMonth():
			wd := rruleWeekdays[*p.AnchorWeekday]
			opt.Byweekday = []rrule.Weekday{wd.Nth(*p.WeekOfMonth)}
		}
	case model.PatternYearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(p.RangeStart.Month)}
		opt.Bymonthday = []int{p.RangeStart.Day}
	case model.PatternCustom:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 1
		opt.Byweekday = byDay(p.Weekdays.Days())
	default:
		return nil, fmt.Errorf("unsupported pattern kind %q", p.Kind)
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build rule for pattern %d: %w", p.ID, err)
	}
	return r, nil
}
