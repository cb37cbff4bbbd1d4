// Package export writes schedules as iCalendar (RFC 5545) documents, either
// as concrete occurrences or as recurring series.
package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"daycheck/internal/model"
	"daycheck/internal/recurrence"
)

const (
	productID = "-//daycheck//schedule export//EN"
	uidDomain = "daycheck"

	propCompleted = ical.ComponentProperty("X-DAYCHECK-COMPLETED")
)

// Series is a pattern together with its exceptions.
type Series struct {
	Pattern    model.RecurrencePattern
	Exceptions []model.RecurrenceException
}

// Exporter builds calendars in a fixed location.
type Exporter struct {
	loc *time.Location
	now func() time.Time
}

func New(loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{loc: loc, now: time.Now}
}

func (x *Exporter) newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	return cal
}

// Views returns one VEVENT per schedule row. Completion state is carried in
// an X-DAYCHECK-COMPLETED property.
func (x *Exporter) Views(views []model.ScheduleView) *ical.Calendar {
	cal := x.newCalendar()
	stamp := x.now()
	for _, v := range views {
		event := cal.AddEvent(fmt.Sprintf("%s-%s@%s", v.ID, v.Date, uidDomain))
		event.SetDtStampTime(stamp)
		event.SetStartAt(v.Start)
		event.SetEndAt(v.End)
		event.SetSummary(v.Title)
		if v.Description != "" {
			event.SetDescription(v.Description)
		}
		setPriority(event, v.Priority)
		if v.IsRecurring() {
			event.SetProperty(ical.ComponentPropertyCategories, string(v.PatternKind))
		}
		event.SetProperty(propCompleted, strconv.FormatBool(v.Completed))
	}
	return cal
}

// Series returns one recurring VEVENT per pattern. SKIP exceptions become
// EXDATEs and MODIFY exceptions become RECURRENCE-ID overrides. Exceptions
// on days the pattern does not occur are left out, and so are patterns that
// never occur.
func (x *Exporter) Series(series []Series) (*ical.Calendar, error) {
	cal := x.newCalendar()
	stamp := x.now()
	for i := range series {
		p := &series[i].Pattern
		rule, err := Rule(p, x.loc)
		if errors.Is(err, ErrNoOccurrences) {
			continue
		}
		if err != nil {
			return nil, err
		}

		uid := fmt.Sprintf("%s@%s", model.RecurringID(p.ID), uidDomain)
		first := rule.OrigOptions.Dtstart
		event := cal.AddEvent(uid)
		event.SetDtStampTime(stamp)
		event.SetStartAt(first)
		event.SetEndAt(model.DateOf(first).At(p.EndTime, x.loc))
		event.SetSummary(p.Title)
		if p.Description != "" {
			event.SetDescription(p.Description)
		}
		setPriority(event, p.Priority)
		event.SetProperty(ical.ComponentPropertyCategories, string(p.Kind))
		event.AddProperty(ical.ComponentPropertyRrule, rule.OrigOptions.RRuleString())

		for j := range series[i].Exceptions {
			exc := &series[i].Exceptions[j]
			if !recurrence.Matches(p, exc.Date) {
				continue
			}
			original := exc.Date.At(p.StartTime, x.loc)
			if exc.Kind == model.ExceptionSkip {
				event.AddProperty(ical.ComponentPropertyExdate, formatUTC(original))
				continue
			}
			occ, _ := recurrence.Materialize(p, exc.Date, exc, x.loc)
			override := cal.AddEvent(uid)
			override.SetDtStampTime(stamp)
			override.AddProperty(ical.ComponentPropertyRecurrenceId, formatUTC(original))
			override.SetStartAt(occ.Start)
			override.SetEndAt(occ.End)
			override.SetSummary(occ.Title)
			if occ.Description != "" {
				override.SetDescription(occ.Description)
			}
			setPriority(override, occ.Priority)
		}
	}
	return cal, nil
}

// WriteViews serializes Views to w.
func (x *Exporter) WriteViews(w io.Writer, views []model.ScheduleView) error {
	_, err := io.WriteString(w, x.Views(views).Serialize())
	return err
}

// WriteSeries serializes Series to w.
func (x *Exporter) WriteSeries(w io.Writer, series []Series) error {
	cal, err := x.Series(series)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, cal.Serialize())
	return err
}

func formatUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// setPriority maps high, medium and low onto RFC 5545 levels 1, 5 and 9.
func setPriority(event *ical.VEvent, priority string) {
	var level string
	switch priority {
	case model.PriorityHigh:
		level = "1"
	case model.PriorityMedium:
		level = "5"
	case model.PriorityLow:
		level = "9"
	default:
		return
	}
	event.SetProperty(ical.ComponentPropertyPriority, level)
}
