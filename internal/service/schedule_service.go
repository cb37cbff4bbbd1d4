package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"daycheck/internal/logger"
	"daycheck/internal/metrics"
	"daycheck/internal/model"
	"daycheck/internal/recurrence"
)

const (
	defaultMaxRangeDays = 366
	defaultRangeWorkers = 4
)

// DaySchedule is one day of a range listing.
type DaySchedule struct {
	Date  model.Date
	Items []model.ScheduleView
}

// ScheduleOptions tunes a ScheduleService. Zero values pick defaults.
type ScheduleOptions struct {
	Location     *time.Location
	MaxRangeDays int
	RangeWorkers int
	Metrics      *metrics.Metrics
	Logger       *logrus.Logger
}

// ScheduleService merges one-off events and recurring occurrences into a
// day's schedule and tracks their completion.
type ScheduleService struct {
	patterns PatternStore
	events   EventStore
	overlay  *CompletionOverlay
	resolver *ExceptionResolver

	loc          *time.Location
	maxRangeDays int
	workers      int
	metrics      *metrics.Metrics
	log          *logrus.Logger
}

func NewScheduleService(patterns PatternStore, events EventStore, ledger CompletionLedger, opts ScheduleOptions) *ScheduleService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = defaultMaxRangeDays
	}
	if opts.RangeWorkers <= 0 {
		opts.RangeWorkers = defaultRangeWorkers
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &ScheduleService{
		patterns:     patterns,
		events:       events,
		overlay:      NewCompletionOverlay(ledger, opts.Metrics),
		resolver:     NewExceptionResolver(patterns),
		loc:          opts.Location,
		maxRangeDays: opts.MaxRangeDays,
		workers:      opts.RangeWorkers,
		metrics:      opts.Metrics,
		log:          opts.Logger,
	}
}

// Location is the zone schedule times are computed in.
func (s *ScheduleService) Location() *time.Location {
	return s.loc
}

// Today is the current civil date in the service location.
func (s *ScheduleService) Today() model.Date {
	return model.DateOf(time.Now().In(s.loc))
}

// ListForDate returns the owner's schedule for one day: one-off events
// overlapping the day plus the occurrences of every matching pattern, with
// completion state applied, ordered by priority then start time.
func (s *ScheduleService) ListForDate(ctx context.Context, ownerID uint, date model.Date) ([]model.ScheduleView, error) {
	defer s.metrics.ObserveListing("date", time.Now())

	events, err := s.events.FindOverlapping(ctx, ownerID, date.In(s.loc), date.AddDays(1).In(s.loc))
	if err != nil {
		return nil, storeErr("find events", err)
	}
	patterns, err := s.patterns.FindActiveOn(ctx, ownerID, date)
	if err != nil {
		return nil, storeErr("find patterns", err)
	}

	views, err := s.assembleDay(ctx, date, events, patterns, s.resolver)
	if err != nil {
		return nil, err
	}
	views, err = s.overlay.ApplyForDate(ctx, ownerID, date, views)
	if err != nil {
		return nil, err
	}
	sortViews(views)

	s.log.WithFields(logrus.Fields{
		"owner": ownerID,
		"date":  date.String(),
		"items": len(views),
	}).Debug("listed schedule")
	return views, nil
}

// ListForRange lists every day in [from, to]. Data for the whole range is
// loaded up front and the days are assembled concurrently; the result holds
// one entry per day in ascending order, each ordered like ListForDate.
func (s *ScheduleService) ListForRange(ctx context.Context, ownerID uint, from, to model.Date) ([]DaySchedule, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to, from)
	}
	days := from.DaysUntil(to) + 1
	if days > s.maxRangeDays {
		return nil, fmt.Errorf("%w: %d days exceeds the limit of %d", ErrInvalidRange, days, s.maxRangeDays)
	}
	defer s.metrics.ObserveListing("range", time.Now())

	events, err := s.events.FindOverlapping(ctx, ownerID, from.In(s.loc), to.AddDays(1).In(s.loc))
	if err != nil {
		return nil, storeErr("find events", err)
	}
	patterns, err := s.patterns.FindActiveBetween(ctx, ownerID, from, to)
	if err != nil {
		return nil, storeErr("find patterns", err)
	}
	ids := make([]uint, len(patterns))
	for i := range patterns {
		ids[i] = patterns[i].ID
	}
	exceptions, err := s.patterns.ExceptionsBetween(ctx, ids, from, to)
	if err != nil {
		return nil, storeErr("find exceptions", err)
	}
	records, err := s.overlay.ledger.FindBetween(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}

	excIdx := newExceptionIndex(exceptions)
	doneIdx := newCompletionIndex(records)
	out := make([]DaySchedule, days)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < days; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			date := from.AddDays(i)
			views, err := s.assembleDay(gctx, date, events, patterns, excIdx)
			if err != nil {
				return err
			}
			views = doneIdx.apply(views)
			sortViews(views)
			out[i] = DaySchedule{Date: date, Items: views}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"owner": ownerID,
		"from":  from.String(),
		"to":    to.String(),
	}).Debug("listed schedule range")
	return out, nil
}

// ToggleCompletion flips the completion of one schedule on date after
// checking the caller owns it.
func (s *ScheduleService) ToggleCompletion(ctx context.Context, ownerID uint, id model.LogicalID, date model.Date) (bool, error) {
	if err := s.checkOwner(ctx, ownerID, id); err != nil {
		return false, err
	}
	completed, err := s.overlay.Toggle(ctx, ownerID, id, date)
	if err != nil {
		return false, err
	}
	s.log.WithFields(logrus.Fields{
		"owner":     ownerID,
		"schedule":  id.String(),
		"date":      date.String(),
		"completed": completed,
	}).Info("toggled completion")
	return completed, nil
}

// CompletionHistory returns the recorded completion states of one schedule.
func (s *ScheduleService) CompletionHistory(ctx context.Context, ownerID uint, id model.LogicalID) ([]model.CompletionRecord, error) {
	if err := s.checkOwner(ctx, ownerID, id); err != nil {
		return nil, err
	}
	return s.overlay.History(ctx, ownerID, id)
}

func (s *ScheduleService) checkOwner(ctx context.Context, ownerID uint, id model.LogicalID) error {
	if id.IsRecurring() {
		_, err := ownedPattern(ctx, s.patterns, ownerID, id.ID)
		return err
	}
	_, err := ownedEvent(ctx, s.events, ownerID, id.ID)
	return err
}

// assembleDay builds the unsorted views of date before completion state is
// applied. events may extend beyond the day and are filtered here.
func (s *ScheduleService) assembleDay(ctx context.Context, date model.Date, events []model.OneOffEvent, patterns []model.RecurrencePattern, exceptions exceptionLookup) ([]model.ScheduleView, error) {
	dayStart := date.In(s.loc)
	dayEnd := date.AddDays(1).In(s.loc)

	views := make([]model.ScheduleView, 0, len(events)+len(patterns))
	for i := range events {
		e := &events[i]
		if !e.StartAt.Before(dayEnd) || e.EndAt.Before(dayStart) {
			continue
		}
		views = append(views, eventView(e, date, s.loc))
	}

	for i := range patterns {
		p := &patterns[i]
		if !recurrence.Matches(p, date) {
			continue
		}
		exc, err := exceptions.Resolve(ctx, p.ID, date)
		if err != nil {
			return nil, err
		}
		occ, ok := recurrence.Materialize(p, date, exc, s.loc)
		if !ok {
			s.metrics.ObserveSkipped()
			continue
		}
		s.metrics.ObserveMaterialized()
		views = append(views, occ.View())
	}
	return views, nil
}

func eventView(e *model.OneOffEvent, date model.Date, loc *time.Location) model.ScheduleView {
	return model.ScheduleView{
		ID:          model.OneOffID(e.ID),
		Date:        date,
		Title:       e.Title,
		Start:       e.StartAt.In(loc),
		End:         e.EndAt.In(loc),
		Completed:   e.Completed,
		Priority:    e.Priority,
		Description: e.Description,
	}
}

// sortViews orders by priority rank, then start time. Ties keep their order.
func sortViews(views []model.ScheduleView) {
	sort.SliceStable(views, func(i, j int) bool {
		ri, rj := model.PriorityRank(views[i].Priority), model.PriorityRank(views[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return views[i].Start.Before(views[j].Start)
	})
}
