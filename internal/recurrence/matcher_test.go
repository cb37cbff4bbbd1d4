package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"daycheck/internal/model"
)

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func intPtr(v int) *int { return &v }

func weekdayPtr(d time.Weekday) *time.Weekday { return &d }

func TestMatchesDailyEveryDayFromStart(t *testing.T) {
	start := date(t, "2024-01-01")
	p := &model.RecurrencePattern{Kind: model.PatternDaily, Interval: 1, RangeStart: start}

	assert.False(t, Matches(p, start.AddDays(-1)))
	for i := 0; i < 2000; i++ {
		d := start.AddDays(i)
		if !Matches(p, d) {
			t.Fatalf("daily pattern should match %s", d)
		}
	}
}

func TestMatchesDailyInterval(t *testing.T) {
	p := &model.RecurrencePattern{Kind: model.PatternDaily, Interval: 3, RangeStart: date(t, "2024-01-01")}

	assert.True(t, Matches(p, date(t, "2024-01-01")))
	assert.False(t, Matches(p, date(t, "2024-01-02")))
	assert.True(t, Matches(p, date(t, "2024-01-04")))
	assert.False(t, Matches(p, date(t, "2024-01-05")))
	assert.True(t, Matches(p, date(t, "2024-03-01")), "60 days after start")
}

func TestMatchesDailyBeyondDurationRange(t *testing.T) {
	start := date(t, "2000-01-01")
	end := date(t, "2500-01-01")
	p := &model.RecurrencePattern{Kind: model.PatternDaily, Interval: 7, RangeStart: start, RangeEnd: &end}

	far := start.AddDays(140000)
	assert.Equal(t, 140000, start.DaysUntil(far))
	assert.Equal(t, -140000, far.DaysUntil(start))
	assert.True(t, Matches(p, far))
	assert.False(t, Matches(p, far.AddDays(1)))
}

func TestMatchesRespectsRangeEnd(t *testing.T) {
	end := date(t, "2024-01-05")
	p := &model.RecurrencePattern{Kind: model.PatternDaily, Interval: 1, RangeStart: date(t, "2024-01-01"), RangeEnd: &end}

	assert.True(t, Matches(p, end))
	assert.False(t, Matches(p, end.AddDays(1)))
}

func TestMatchesOpenEndedPatternIsCapped(t *testing.T) {
	p := &model.RecurrencePattern{Kind: model.PatternDaily, Interval: 1, RangeStart: date(t, "2024-01-01")}

	assert.True(t, Matches(p, date(t, "2124-01-01")))
	assert.False(t, Matches(p, date(t, "2124-01-02")))
}

func TestMatchesWeeklyEveryOtherMonday(t *testing.T) {
	start := date(t, "2024-01-01") // Monday
	p := &model.RecurrencePattern{
		Kind:       model.PatternWeekly,
		Interval:   2,
		Weekdays:   model.NewWeekdaySet(time.Monday),
		RangeStart: start,
	}

	assert.True(t, Matches(p, start))
	assert.False(t, Matches(p, start.AddDays(7)))
	assert.True(t, Matches(p, start.AddDays(14)))
	assert.False(t, Matches(p, start.AddDays(15)))
}

func TestMatchesWeeklyCountsFromMondayOfStartWeek(t *testing.T) {
	p := &model.RecurrencePattern{
		Kind:       model.PatternWeekly,
		Interval:   2,
		Weekdays:   model.NewWeekdaySet(time.Monday),
		RangeStart: date(t, "2024-01-03"), // Wednesday
	}

	assert.False(t, Matches(p, date(t, "2024-01-01")), "before range start")
	assert.False(t, Matches(p, date(t, "2024-01-08")))
	assert.True(t, Matches(p, date(t, "2024-01-15")))
}

func TestMatchesWeeklyWithoutWeekdaysUsesStartWeekday(t *testing.T) {
	p := &model.RecurrencePattern{
		Kind:       model.PatternWeekly,
		Interval:   1,
		RangeStart: date(t, "2024-01-03"),
		StartTime:  model.NewClock(9, 0),
		EndTime:    model.NewClock(10, 0),
		Title:      "Standup",
	}

	assert.True(t, Matches(p, date(t, "2024-01-10")))
	assert.True(t, Matches(p, date(t, "2024-01-17")))
	assert.False(t, Matches(p, date(t, "2024-01-11")))
}

func TestMatchesStandupScenario(t *testing.T) {
	p := &model.RecurrencePattern{
		Kind:       model.PatternWeekly,
		Interval:   1,
		Weekdays:   model.NewWeekdaySet(time.Wednesday),
		RangeStart: date(t, "2024-01-03"),
	}

	assert.True(t, Matches(p, date(t, "2024-01-10")))
	assert.True(t, Matches(p, date(t, "2024-01-17")))
	assert.False(t, Matches(p, date(t, "2024-01-11")))
}

func TestMatchesMonthlyDayOfMonthNeverClamps(t *testing.T) {
	p := &model.RecurrencePattern{
		Kind:       model.PatternMonthly,
		Interval:   1,
		DayOfMonth: intPtr(31),
		RangeStart: date(t, "2024-01-01"),
	}

	short := map[time.Month]bool{
		time.February: true, time.April: true, time.June: true,
		time.September: true, time.November: true,
	}
	from := date(t, "2024-01-01")
	for d := from; d.Before(date(t, "2027-01-01")); d = d.AddDays(1) {
		if short[d.Month] {
			assert.False(t, Matches(p, d), "%s", d)
		}
	}
	assert.True(t, Matches(p, date(t, "2024-01-31")))
	assert.True(t, Matches(p, date(t, "2024-03-31")))
	assert.False(t, Matches(p, date(t, "2024-04-30")), "no clamping to the last day")
	assert.False(t, Matches(p, date(t, "2024-02-29")))
}

func TestMatchesMonthlyInterval(t *testing.T) {
	p := &model.RecurrencePattern{
		Kind:       model.PatternMonthly,
		Interval:   3,
		DayOfMonth: intPtr(15),
		RangeStart: date(t, "2024-01-20"),
	}

	assert.False(t, Matches(p, date(t, "2024-01-15")), "before range start")
	assert.False(t, Matches(p, date(t, "2024-02-15")))
	assert.True(t, Matches(p, date(t, "2024-04-15")))
	assert.True(t, Matches(p, date(t, "2025-01-15")))
}

func TestMatchesMonthlyNthWeekday(t *testing.T) {
	p := &model.RecurrencePattern{
		Kind:          model.PatternMonthly,
		Interval:      1,
		WeekOfMonth:   intPtr(2),
		AnchorWeekday: weekdayPtr(time.Tuesday),
		RangeStart:    date(t, "2024-01-01"),
	}

	assert.True(t, Matches(p, date(t, "2024-01-09")))
	assert.False(t, Matches(p, date(t, "2024-01-02")))
	assert.False(t, Matches(p, date(t, "2024-01-16")))
	assert.True(t, Matches(p, date(t, "2024-02-13")))
	assert.False(t, Matches(p, date(t, "2024-02-14")))
}

func TestMatchesMonthlyWithoutModeNeverMatches(t *testing.T) {
	p := &model.RecurrencePattern{Kind: model.PatternMonthly, Interval: 1, RangeStart: date(t, "2024-01-01")}
	assert.Empty(t, Occurrences(p, date(t, "2024-01-01"), date(t, "2024-12-31")))
}

func TestMatchesYearly(t *testing.T) {
	p := &model.RecurrencePattern{Kind: model.PatternYearly, Interval: 2, RangeStart: date(t, "2024-06-15")}

	assert.True(t, Matches(p, date(t, "2024-06-15")))
	assert.False(t, Matches(p, date(t, "2025-06-15")))
	assert.True(t, Matches(p, date(t, "2026-06-15")))
	assert.False(t, Matches(p, date(t, "2026-06-16")))
}

func TestMatchesYearlyLeapDay(t *testing.T) {
	p := &model.RecurrencePattern{Kind: model.PatternYearly, Interval: 1, RangeStart: date(t, "2024-02-29")}

	assert.False(t, Matches(p, date(t, "2025-02-28")))
	assert.False(t, Matches(p, date(t, "2025-03-01")))
	assert.True(t, Matches(p, date(t, "2028-02-29")))
}

// CUSTOM patterns repeat on every listed weekday; the interval is ignored.
func TestMatchesCustomIgnoresInterval(t *testing.T) {
	p := &model.RecurrencePattern{
		Kind:       model.PatternCustom,
		Interval:   5,
		Weekdays:   model.NewWeekdaySet(time.Monday, time.Friday),
		RangeStart: date(t, "2024-01-01"),
	}

	assert.True(t, Matches(p, date(t, "2024-01-05")))
	assert.True(t, Matches(p, date(t, "2024-01-08")))
	assert.True(t, Matches(p, date(t, "2024-01-12")))
	assert.False(t, Matches(p, date(t, "2024-01-09")))
}

func TestWeekOfMonth(t *testing.T) {
	assert.Equal(t, 1, WeekOfMonth(date(t, "2024-03-07")))
	assert.Equal(t, 2, WeekOfMonth(date(t, "2024-03-08")))
	assert.Equal(t, 5, WeekOfMonth(date(t, "2024-03-29")))
}

func TestOccurrencesClipsToPatternWindow(t *testing.T) {
	end := date(t, "2024-01-10")
	p := &model.RecurrencePattern{Kind: model.PatternDaily, Interval: 2, RangeStart: date(t, "2024-01-03"), RangeEnd: &end}

	got := Occurrences(p, date(t, "2024-01-01"), date(t, "2024-01-31"))
	want := []model.Date{date(t, "2024-01-03"), date(t, "2024-01-05"), date(t, "2024-01-07"), date(t, "2024-01-09")}
	assert.Equal(t, want, got)
}

func TestOccurrencesAgreeWithRRule(t *testing.T) {
	start := date(t, "2024-01-03")
	from, to := start, date(t, "2026-12-31")

	cases := []struct {
		name    string
		pattern *model.RecurrencePattern
		option  rrule.ROption
	}{
		{
			name:    "daily every 3 days",
			pattern: &model.RecurrencePattern{Kind: model.PatternDaily, Interval: 3, RangeStart: start},
			option:  rrule.ROption{Freq: rrule.DAILY, Interval: 3},
		},
		{
			name: "every other week on Monday and Thursday",
			pattern: &model.RecurrencePattern{
				Kind: model.PatternWeekly, Interval: 2, RangeStart: start,
				Weekdays: model.NewWeekdaySet(time.Monday, time.Thursday),
			},
			option: rrule.ROption{Freq: rrule.WEEKLY, Interval: 2, Wkst: rrule.MO, Byweekday: []rrule.Weekday{rrule.MO, rrule.TH}},
		},
		{
			name: "monthly on the 31st",
			pattern: &model.RecurrencePattern{
				Kind: model.PatternMonthly, Interval: 1, RangeStart: start, DayOfMonth: intPtr(31),
			},
			option: rrule.ROption{Freq: rrule.MONTHLY, Interval: 1, Bymonthday: []int{31}},
		},
		{
			name: "every second month on the second Tuesday",
			pattern: &model.RecurrencePattern{
				Kind: model.PatternMonthly, Interval: 2, RangeStart: start,
				WeekOfMonth: intPtr(2), AnchorWeekday: weekdayPtr(time.Tuesday),
			},
			option: rrule.ROption{Freq: rrule.MONTHLY, Interval: 2, Byweekday: []rrule.Weekday{rrule.TU.Nth(2)}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.option.Dtstart = start.In(time.UTC)
			r, err := rrule.NewRRule(tc.option)
			require.NoError(t, err)

			var want []model.Date
			for _, occ := range r.Between(from.In(time.UTC), to.In(time.UTC), true) {
				want = append(want, model.DateOf(occ))
			}
			assert.Equal(t, want, Occurrences(tc.pattern, from, to))
		})
	}
}

func TestFirst(t *testing.T) {
	p := &model.RecurrencePattern{
		Kind: model.PatternMonthly, Interval: 1, DayOfMonth: intPtr(31),
		RangeStart: date(t, "2024-04-01"),
	}
	first, ok := First(p)
	require.True(t, ok)
	assert.Equal(t, date(t, "2024-05-31"), first)

	end := date(t, "2024-04-30")
	p.RangeEnd = &end
	_, ok = First(p)
	assert.False(t, ok, "April has no 31st")
}
