package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"daycheck/internal/model"
)

// EventRepository handles CRUD for one-off events. Timestamps are stored in
// UTC so that text comparison in SQLite orders them correctly.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func normalizeEvent(e *model.OneOffEvent) {
	e.StartAt = e.StartAt.UTC().Truncate(time.Second)
	e.EndAt = e.EndAt.UTC().Truncate(time.Second)
}

func (r *EventRepository) Create(ctx context.Context, event *model.OneOffEvent) error {
	normalizeEvent(event)
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) Save(ctx context.Context, event *model.OneOffEvent) error {
	normalizeEvent(event)
	if err := r.db.WithContext(ctx).Save(event).Error; err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (*model.OneOffEvent, error) {
	var event model.OneOffEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

// FindOverlapping returns the owner's events that start before end and end
// at or after start.
func (r *EventRepository) FindOverlapping(ctx context.Context, ownerID uint, start, end time.Time) ([]model.OneOffEvent, error) {
	var events []model.OneOffEvent
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND start_at < ? AND end_at >= ?", ownerID, end.UTC(), start.UTC()).
		Order("start_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	return events, nil
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.OneOffEvent, error) {
	var events []model.OneOffEvent
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("start_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Delete removes an event of the given owner.
func (r *EventRepository) Delete(ctx context.Context, ownerID, eventID uint) error {
	res := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, eventID).Delete(&model.OneOffEvent{})
	if res.Error != nil {
		return fmt.Errorf("delete event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
