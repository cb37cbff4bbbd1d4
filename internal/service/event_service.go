package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"daycheck/internal/logger"
	"daycheck/internal/model"
)

// EventInput represents data required to create a one-off event.
type EventInput struct {
	Title       string
	StartAt     time.Time
	EndAt       time.Time
	Priority    string
	Description string
}

// EventUpdate is a partial update of a one-off event.
type EventUpdate struct {
	Title       model.Optional[string]
	StartAt     model.Optional[time.Time]
	EndAt       model.Optional[time.Time]
	Priority    model.Optional[string]
	Description model.Optional[string]
}

// EventService wraps one-off event logic.
type EventService struct {
	events EventStore
	loc    *time.Location
	log    *logrus.Logger
}

func NewEventService(events EventStore, loc *time.Location, log *logrus.Logger) *EventService {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Discard()
	}
	return &EventService{events: events, loc: loc, log: log}
}

func validateEvent(e *model.OneOffEvent) error {
	if e.Title == "" {
		return invalid("title", "must not be empty")
	}
	if e.StartAt.IsZero() || e.EndAt.IsZero() {
		return invalid("startAt", "start and end are required")
	}
	if e.EndAt.Before(e.StartAt) {
		return invalid("endAt", "is before startAt")
	}
	return nil
}

func (s *EventService) Create(ctx context.Context, ownerID uint, input EventInput) (*model.OneOffEvent, error) {
	event := model.OneOffEvent{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(input.Title),
		StartAt:     input.StartAt,
		EndAt:       input.EndAt,
		Priority:    input.Priority,
		Description: input.Description,
	}
	if err := validateEvent(&event); err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, &event); err != nil {
		return nil, storeErr("create event", err)
	}
	s.log.WithFields(logrus.Fields{"owner": ownerID, "event": event.ID}).Info("event created")
	return &event, nil
}

func (s *EventService) Update(ctx context.Context, ownerID, eventID uint, upd EventUpdate) (*model.OneOffEvent, error) {
	event, err := ownedEvent(ctx, s.events, ownerID, eventID)
	if err != nil {
		return nil, err
	}
	event.Title = strings.TrimSpace(upd.Title.Or(event.Title))
	event.StartAt = upd.StartAt.Or(event.StartAt)
	event.EndAt = upd.EndAt.Or(event.EndAt)
	event.Priority = upd.Priority.Or(event.Priority)
	event.Description = upd.Description.Or(event.Description)

	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if err := s.events.Save(ctx, event); err != nil {
		return nil, storeErr("save event", err)
	}
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, ownerID, eventID uint) error {
	if _, err := ownedEvent(ctx, s.events, ownerID, eventID); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, ownerID, eventID); err != nil {
		return storeErr("delete event", err)
	}
	s.log.WithFields(logrus.Fields{"owner": ownerID, "event": eventID}).Info("event deleted")
	return nil
}

func (s *EventService) Get(ctx context.Context, ownerID, eventID uint) (*model.OneOffEvent, error) {
	return ownedEvent(ctx, s.events, ownerID, eventID)
}

// List returns every event of the owner ordered by start.
func (s *EventService) List(ctx context.Context, ownerID uint) ([]model.OneOffEvent, error) {
	events, err := s.events.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list events", err)
	}
	return events, nil
}

// ListForDay returns the owner's events overlapping date in the service
// location.
func (s *EventService) ListForDay(ctx context.Context, ownerID uint, date model.Date) ([]model.OneOffEvent, error) {
	events, err := s.events.FindOverlapping(ctx, ownerID, date.In(s.loc), date.AddDays(1).In(s.loc))
	if err != nil {
		return nil, storeErr("find events", err)
	}
	return events, nil
}

// ToggleStored flips the completed flag stored on the event itself. Listings
// use it as the default when the completion ledger has no record for a day.
func (s *EventService) ToggleStored(ctx context.Context, ownerID, eventID uint) (*model.OneOffEvent, error) {
	event, err := ownedEvent(ctx, s.events, ownerID, eventID)
	if err != nil {
		return nil, err
	}
	event.Completed = !event.Completed
	if err := s.events.Save(ctx, event); err != nil {
		return nil, storeErr("save event", err)
	}
	return event, nil
}
