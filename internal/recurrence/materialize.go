package recurrence

import (
	"time"

	"daycheck/internal/model"
)

// Occurrence is a pattern instance computed for one day. It is never
// persisted.
type Occurrence struct {
	ID          model.LogicalID
	PatternKind model.PatternKind
	Date        model.Date
	Title       string
	Start       time.Time
	End         time.Time
	Priority    string
	Description string
	Completed   bool
}

// View converts the occurrence into a schedule row.
func (o Occurrence) View() model.ScheduleView {
	return model.ScheduleView{
		ID:          o.ID,
		Date:        o.Date,
		Title:       o.Title,
		Start:       o.Start,
		End:         o.End,
		Completed:   o.Completed,
		Priority:    o.Priority,
		Description: o.Description,
		PatternKind: o.PatternKind,
	}
}

// Materialize builds the occurrence of p on date. It returns false when exc
// skips the day. A MODIFY exception replaces only the fields it carries;
// everything else comes from the pattern. Times are interpreted in loc.
func Materialize(p *model.RecurrencePattern, date model.Date, exc *model.RecurrenceException, loc *time.Location) (Occurrence, bool) {
	if exc != nil && exc.Kind == model.ExceptionSkip {
		return Occurrence{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	patch := exc.Patch()
	start := patch.StartTime.Or(p.StartTime)
	end := patch.EndTime.Or(p.EndTime)

	return Occurrence{
		ID:          model.RecurringID(p.ID),
		PatternKind: p.Kind,
		Date:        date,
		Title:       patch.Title.Or(p.Title),
		Start:       date.At(start, loc),
		End:         date.At(end, loc),
		Priority:    patch.Priority.Or(p.Priority),
		Description: patch.Description.Or(p.Description),
	}, true
}
