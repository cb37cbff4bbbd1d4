package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"daycheck/internal/logger"
	"daycheck/internal/model"
)

// PatternInput represents data required to create a recurrence pattern.
type PatternInput struct {
	Title         string
	Kind          model.PatternKind
	Interval      int
	Weekdays      model.WeekdaySet
	DayOfMonth    *int
	WeekOfMonth   *int
	AnchorWeekday *time.Weekday
	RangeStart    model.Date
	RangeEnd      *model.Date
	StartTime     model.Clock
	EndTime       model.Clock
	Priority      string
	Description   string
}

// PatternUpdate is a partial update. Unset fields keep their stored value;
// pointer fields set to nil clear the stored value.
type PatternUpdate struct {
	Title         model.Optional[string]
	Kind          model.Optional[model.PatternKind]
	Interval      model.Optional[int]
	Weekdays      model.Optional[model.WeekdaySet]
	DayOfMonth    model.Optional[*int]
	WeekOfMonth   model.Optional[*int]
	AnchorWeekday model.Optional[*time.Weekday]
	RangeStart    model.Optional[model.Date]
	RangeEnd      model.Optional[*model.Date]
	StartTime     model.Optional[model.Clock]
	EndTime       model.Optional[model.Clock]
	Priority      model.Optional[string]
	Description   model.Optional[string]
}

// ExceptionInput creates or replaces the exception of one pattern day.
// Patch is ignored for SKIP.
type ExceptionInput struct {
	PatternID uint
	Date      model.Date
	Kind      model.ExceptionKind
	Patch     model.OccurrencePatch
}

// PatternService wraps recurrence pattern and exception management.
type PatternService struct {
	patterns PatternStore
	log      *logrus.Logger
}

func NewPatternService(patterns PatternStore, log *logrus.Logger) *PatternService {
	if log == nil {
		log = logger.Discard()
	}
	return &PatternService{patterns: patterns, log: log}
}

func (s *PatternService) Create(ctx context.Context, ownerID uint, input PatternInput) (*model.RecurrencePattern, error) {
	p := model.RecurrencePattern{
		OwnerID:       ownerID,
		Title:         input.Title,
		Kind:          input.Kind,
		Interval:      input.Interval,
		Weekdays:      input.Weekdays,
		DayOfMonth:    input.DayOfMonth,
		WeekOfMonth:   input.WeekOfMonth,
		AnchorWeekday: input.AnchorWeekday,
		RangeStart:    input.RangeStart,
		RangeEnd:      input.RangeEnd,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Priority:      input.Priority,
		Description:   input.Description,
	}
	if p.Interval == 0 {
		p.Interval = 1
	}
	normalizePattern(&p)
	if err := validatePattern(&p); err != nil {
		return nil, err
	}
	if err := s.patterns.Create(ctx, &p); err != nil {
		return nil, storeErr("create pattern", err)
	}
	s.log.WithFields(logrus.Fields{"owner": ownerID, "pattern": p.ID, "kind": p.Kind}).Info("pattern created")
	return &p, nil
}

// Update applies the set fields of upd. When the kind changes, monthly mode
// fields and weekdays that upd does not supply are cleared.
func (s *PatternService) Update(ctx context.Context, ownerID, patternID uint, upd PatternUpdate) (*model.RecurrencePattern, error) {
	p, err := ownedPattern(ctx, s.patterns, ownerID, patternID)
	if err != nil {
		return nil, err
	}

	if kind, ok := upd.Kind.Get(); ok && kind != p.Kind {
		p.Kind = kind
		p.DayOfMonth = nil
		p.WeekOfMonth = nil
		p.AnchorWeekday = nil
		p.Weekdays = 0
	}
	p.Title = upd.Title.Or(p.Title)
	p.Interval = upd.Interval.Or(p.Interval)
	p.Weekdays = upd.Weekdays.Or(p.Weekdays)
	p.DayOfMonth = upd.DayOfMonth.Or(p.DayOfMonth)
	p.WeekOfMonth = upd.WeekOfMonth.Or(p.WeekOfMonth)
	p.AnchorWeekday = upd.AnchorWeekday.Or(p.AnchorWeekday)
	p.RangeStart = upd.RangeStart.Or(p.RangeStart)
	p.RangeEnd = upd.RangeEnd.Or(p.RangeEnd)
	p.StartTime = upd.StartTime.Or(p.StartTime)
	p.EndTime = upd.EndTime.Or(p.EndTime)
	p.Priority = upd.Priority.Or(p.Priority)
	p.Description = upd.Description.Or(p.Description)

	normalizePattern(p)
	if err := validatePattern(p); err != nil {
		return nil, err
	}
	if err := s.patterns.Save(ctx, p); err != nil {
		return nil, storeErr("save pattern", err)
	}
	s.log.WithFields(logrus.Fields{"owner": ownerID, "pattern": p.ID}).Info("pattern updated")
	return p, nil
}

// Delete removes the pattern and its exceptions.
func (s *PatternService) Delete(ctx context.Context, ownerID, patternID uint) error {
	if _, err := ownedPattern(ctx, s.patterns, ownerID, patternID); err != nil {
		return err
	}
	if err := s.patterns.Delete(ctx, ownerID, patternID); err != nil {
		return storeErr("delete pattern", err)
	}
	s.log.WithFields(logrus.Fields{"owner": ownerID, "pattern": patternID}).Info("pattern deleted")
	return nil
}

func (s *PatternService) Get(ctx context.Context, ownerID, patternID uint) (*model.RecurrencePattern, error) {
	return ownedPattern(ctx, s.patterns, ownerID, patternID)
}

func (s *PatternService) List(ctx context.Context, ownerID uint) ([]model.RecurrencePattern, error) {
	patterns, err := s.patterns.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list patterns", err)
	}
	return patterns, nil
}

// SetException creates or replaces the exception of input.PatternID on
// input.Date.
func (s *PatternService) SetException(ctx context.Context, ownerID uint, input ExceptionInput) (*model.RecurrenceException, error) {
	p, err := ownedPattern(ctx, s.patterns, ownerID, input.PatternID)
	if err != nil {
		return nil, err
	}

	exc := model.RecurrenceException{
		PatternID: p.ID,
		Date:      input.Date,
		Kind:      input.Kind,
	}
	if input.Kind == model.ExceptionModify {
		exc.SetPatch(input.Patch)
	}
	if err := validateException(p, &exc); err != nil {
		return nil, err
	}
	if err := s.patterns.SaveException(ctx, &exc); err != nil {
		return nil, storeErr("save exception", err)
	}
	s.log.WithFields(logrus.Fields{
		"owner":   ownerID,
		"pattern": p.ID,
		"date":    input.Date.String(),
		"kind":    input.Kind,
	}).Info("exception saved")
	return &exc, nil
}

// Skip is SetException with a SKIP exception.
func (s *PatternService) Skip(ctx context.Context, ownerID, patternID uint, date model.Date) (*model.RecurrenceException, error) {
	return s.SetException(ctx, ownerID, ExceptionInput{PatternID: patternID, Date: date, Kind: model.ExceptionSkip})
}

func (s *PatternService) DeleteException(ctx context.Context, ownerID, patternID uint, date model.Date) error {
	if _, err := ownedPattern(ctx, s.patterns, ownerID, patternID); err != nil {
		return err
	}
	if err := s.patterns.DeleteException(ctx, patternID, date); err != nil {
		return storeErr("delete exception", err)
	}
	return nil
}

func (s *PatternService) ListExceptions(ctx context.Context, ownerID, patternID uint) ([]model.RecurrenceException, error) {
	if _, err := ownedPattern(ctx, s.patterns, ownerID, patternID); err != nil {
		return nil, err
	}
	exceptions, err := s.patterns.ExceptionsFor(ctx, patternID)
	if err != nil {
		return nil, storeErr("list exceptions", err)
	}
	return exceptions, nil
}
