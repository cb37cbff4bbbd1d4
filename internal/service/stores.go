package service

import (
	"context"
	"time"

	"daycheck/internal/model"
)

// PatternStore persists recurrence patterns and their exceptions.
type PatternStore interface {
	Create(ctx context.Context, p *model.RecurrencePattern) error
	Save(ctx context.Context, p *model.RecurrencePattern) error
	Delete(ctx context.Context, ownerID, patternID uint) error
	FindByID(ctx context.Context, id uint) (*model.RecurrencePattern, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.RecurrencePattern, error)
	FindActiveOn(ctx context.Context, ownerID uint, date model.Date) ([]model.RecurrencePattern, error)
	FindActiveBetween(ctx context.Context, ownerID uint, from, to model.Date) ([]model.RecurrencePattern, error)

	FindException(ctx context.Context, patternID uint, date model.Date) (*model.RecurrenceException, error)
	ExceptionsFor(ctx context.Context, patternID uint) ([]model.RecurrenceException, error)
	ExceptionsBetween(ctx context.Context, patternIDs []uint, from, to model.Date) ([]model.RecurrenceException, error)
	SaveException(ctx context.Context, exc *model.RecurrenceException) error
	DeleteException(ctx context.Context, patternID uint, date model.Date) error
}

// EventStore persists one-off events.
type EventStore interface {
	Create(ctx context.Context, event *model.OneOffEvent) error
	Save(ctx context.Context, event *model.OneOffEvent) error
	Delete(ctx context.Context, ownerID, eventID uint) error
	FindByID(ctx context.Context, id uint) (*model.OneOffEvent, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.OneOffEvent, error)
	FindOverlapping(ctx context.Context, ownerID uint, start, end time.Time) ([]model.OneOffEvent, error)
}

// CompletionLedger keeps per-date completion state.
type CompletionLedger interface {
	FindForDate(ctx context.Context, ownerID uint, date model.Date) ([]model.CompletionRecord, error)
	FindBetween(ctx context.Context, ownerID uint, from, to model.Date) ([]model.CompletionRecord, error)
	FindFor(ctx context.Context, ownerID uint, id model.LogicalID) ([]model.CompletionRecord, error)
	UpsertToggle(ctx context.Context, ownerID uint, id model.LogicalID, date model.Date) (bool, error)
}

// ownedPattern loads a pattern and checks it belongs to ownerID.
func ownedPattern(ctx context.Context, store PatternStore, ownerID, patternID uint) (*model.RecurrencePattern, error) {
	p, err := store.FindByID(ctx, patternID)
	if err != nil {
		return nil, storeErr("find pattern", err)
	}
	if p.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}
	return p, nil
}

// ownedEvent loads an event and checks it belongs to ownerID.
func ownedEvent(ctx context.Context, store EventStore, ownerID, eventID uint) (*model.OneOffEvent, error) {
	e, err := store.FindByID(ctx, eventID)
	if err != nil {
		return nil, storeErr("find event", err)
	}
	if e.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}
	return e, nil
}
