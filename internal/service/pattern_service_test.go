package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daycheck/internal/model"
)

func TestValidatePattern(t *testing.T) {
	start := model.Date{Year: 2024, Month: time.January, Day: 1}
	before := start.AddDays(-1)
	tuesday := time.Tuesday

	base := func() model.RecurrencePattern {
		return model.RecurrencePattern{
			Title: "x", Kind: model.PatternDaily, Interval: 1, RangeStart: start,
			StartTime: model.NewClock(9, 0), EndTime: model.NewClock(10, 0),
		}
	}

	cases := []struct {
		name  string
		field string
		edit  func(p *model.RecurrencePattern)
	}{
		{"empty title", "title", func(p *model.RecurrencePattern) { p.Title = "" }},
		{"unknown kind", "kind", func(p *model.RecurrencePattern) { p.Kind = "HOURLY" }},
		{"negative interval", "interval", func(p *model.RecurrencePattern) { p.Interval = -1 }},
		{"zero interval", "interval", func(p *model.RecurrencePattern) { p.Interval = 0 }},
		{"missing start", "rangeStart", func(p *model.RecurrencePattern) { p.RangeStart = model.Date{} }},
		{"end before start", "rangeEnd", func(p *model.RecurrencePattern) { p.RangeEnd = &before }},
		{"reversed times", "endTime", func(p *model.RecurrencePattern) { p.EndTime = model.NewClock(8, 0) }},
		{"monthly without mode", "monthly", func(p *model.RecurrencePattern) { p.Kind = model.PatternMonthly }},
		{"monthly with both modes", "monthly", func(p *model.RecurrencePattern) {
			p.Kind = model.PatternMonthly
			p.DayOfMonth = intPtr(3)
			p.WeekOfMonth = intPtr(1)
			p.AnchorWeekday = &tuesday
		}},
		{"day of month out of range", "dayOfMonth", func(p *model.RecurrencePattern) {
			p.Kind = model.PatternMonthly
			p.DayOfMonth = intPtr(32)
		}},
		{"week of month out of range", "weekOfMonth", func(p *model.RecurrencePattern) {
			p.Kind = model.PatternMonthly
			p.WeekOfMonth = intPtr(6)
			p.AnchorWeekday = &tuesday
		}},
		{"week of month without anchor", "anchorWeekday", func(p *model.RecurrencePattern) {
			p.Kind = model.PatternMonthly
			p.WeekOfMonth = intPtr(2)
		}},
		{"anchor weekday out of range", "anchorWeekday", func(p *model.RecurrencePattern) {
			bogus := time.Weekday(9)
			p.Kind = model.PatternMonthly
			p.WeekOfMonth = intPtr(2)
			p.AnchorWeekday = &bogus
		}},
		{"custom without weekdays", "weekdays", func(p *model.RecurrencePattern) { p.Kind = model.PatternCustom }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base()
			tc.edit(&p)
			err := validatePattern(&p)
			require.ErrorIs(t, err, ErrInvalidPattern)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	p := base()
	assert.NoError(t, validatePattern(&p))
	p.EndTime = p.StartTime
	assert.NoError(t, validatePattern(&p), "zero-length occurrences are allowed")
}

func TestCreatePatternNormalizesMonthlyAnchor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.patterns.Create(ctx, alice, PatternInput{
		Title:       "  book club  ",
		Kind:        model.PatternMonthly,
		WeekOfMonth: intPtr(3),
		Weekdays:    model.NewWeekdaySet(time.Thursday),
		RangeStart:  day(t, "2024-01-01"),
		StartTime:   model.NewClock(19, 0),
		EndTime:     model.NewClock(21, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "book club", p.Title)
	assert.Equal(t, 1, p.Interval)
	require.NotNil(t, p.AnchorWeekday)
	assert.Equal(t, time.Thursday, *p.AnchorWeekday)

	// Third Thursday of January 2024 is the 18th.
	views, err := f.schedules.ListForDate(ctx, alice, day(t, "2024-01-18"))
	require.NoError(t, err)
	assert.Equal(t, []string{"book club"}, titles(views))

	_, err = f.patterns.Create(ctx, alice, PatternInput{
		Title:       "ambiguous",
		Kind:        model.PatternMonthly,
		WeekOfMonth: intPtr(3),
		Weekdays:    model.NewWeekdaySet(time.Thursday, time.Friday),
		RangeStart:  day(t, "2024-01-01"),
	})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestUpdatePatternPartialAndKindChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.patterns.Create(ctx, alice, PatternInput{
		Title:      "rent",
		Kind:       model.PatternMonthly,
		DayOfMonth: intPtr(25),
		RangeStart: day(t, "2024-01-01"),
		StartTime:  model.NewClock(10, 0),
		EndTime:    model.NewClock(10, 30),
		Priority:   model.PriorityHigh,
	})
	require.NoError(t, err)

	updated, err := f.patterns.Update(ctx, alice, p.ID, PatternUpdate{Title: model.Some("rent transfer")})
	require.NoError(t, err)
	assert.Equal(t, "rent transfer", updated.Title)
	assert.Equal(t, model.PriorityHigh, updated.Priority)
	require.NotNil(t, updated.DayOfMonth)
	assert.Equal(t, 25, *updated.DayOfMonth)

	_, err = f.patterns.Update(ctx, alice, p.ID, PatternUpdate{Interval: model.Some(0)})
	require.ErrorIs(t, err, ErrInvalidPattern)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "interval", verr.Field)
	stored, err := f.patterns.Get(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Interval)

	// Switching to CUSTOM without weekdays fails because the monthly fields
	// are cleared and nothing replaces them.
	_, err = f.patterns.Update(ctx, alice, p.ID, PatternUpdate{Kind: model.Some(model.PatternCustom)})
	assert.ErrorIs(t, err, ErrInvalidPattern)

	updated, err = f.patterns.Update(ctx, alice, p.ID, PatternUpdate{
		Kind:     model.Some(model.PatternCustom),
		Weekdays: model.Some(model.NewWeekdaySet(time.Saturday)),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.DayOfMonth)

	stored, err = f.patterns.Get(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PatternCustom, stored.Kind)
	assert.Nil(t, stored.DayOfMonth)
	assert.True(t, stored.Weekdays.Contains(time.Saturday))

	end := day(t, "2024-06-30")
	updated, err = f.patterns.Update(ctx, alice, p.ID, PatternUpdate{RangeEnd: model.Some(&end)})
	require.NoError(t, err)
	require.NotNil(t, updated.RangeEnd)
	updated, err = f.patterns.Update(ctx, alice, p.ID, PatternUpdate{RangeEnd: model.Some[*model.Date](nil)})
	require.NoError(t, err)
	assert.Nil(t, updated.RangeEnd, "an explicit nil clears the end")

	_, err = f.patterns.Update(ctx, bob, p.ID, PatternUpdate{Title: model.Some("mine")})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDeletePatternRemovesExceptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.standup(t)
	_, err := f.patterns.Skip(ctx, alice, p.ID, day(t, "2024-01-10"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.patterns.Delete(ctx, bob, p.ID), ErrUnauthorized)
	require.NoError(t, f.patterns.Delete(ctx, alice, p.ID))

	_, err = f.patterns.Get(ctx, alice, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.patterns.Delete(ctx, alice, p.ID), ErrNotFound)

	list, err := f.patterns.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEventServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	start := time.Date(2024, 1, 10, 12, 0, 0, 0, seoul)

	_, err := f.events.Create(ctx, alice, EventInput{Title: "bad", StartAt: start, EndAt: start.Add(-time.Minute)})
	assert.ErrorIs(t, err, ErrInvalidPattern)

	event, err := f.events.Create(ctx, alice, EventInput{Title: "lunch", StartAt: start, EndAt: start.Add(time.Hour)})
	require.NoError(t, err)

	updated, err := f.events.Update(ctx, alice, event.ID, EventUpdate{Priority: model.Some(model.PriorityLow)})
	require.NoError(t, err)
	assert.Equal(t, "lunch", updated.Title)
	assert.Equal(t, model.PriorityLow, updated.Priority)

	list, err := f.events.ListForDay(ctx, alice, day(t, "2024-01-10"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].StartAt.Equal(start))

	_, err = f.events.Get(ctx, bob, event.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, f.events.Delete(ctx, alice, event.ID))
	_, err = f.events.Get(ctx, alice, event.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
