package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daycheck/internal/model"
)

// PatternRepository stores recurrence patterns and their exceptions.
type PatternRepository struct {
	db *gorm.DB
}

func NewPatternRepository(db *gorm.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

func (r *PatternRepository) Create(ctx context.Context, p *model.RecurrencePattern) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create pattern: %w", err)
	}
	return nil
}

// Save writes every column, including cleared optional fields.
func (r *PatternRepository) Save(ctx context.Context, p *model.RecurrencePattern) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("save pattern: %w", err)
	}
	return nil
}

// Delete removes the pattern together with its exceptions.
func (r *PatternRepository) Delete(ctx context.Context, ownerID, patternID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pattern_id = ?", patternID).Delete(&model.RecurrenceException{}).Error; err != nil {
			return fmt.Errorf("delete pattern exceptions: %w", err)
		}
		res := tx.Where("owner_id = ? AND id = ?", ownerID, patternID).Delete(&model.RecurrencePattern{})
		if res.Error != nil {
			return fmt.Errorf("delete pattern: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PatternRepository) FindByID(ctx context.Context, id uint) (*model.RecurrencePattern, error) {
	var p model.RecurrencePattern
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PatternRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.RecurrencePattern, error) {
	var patterns []model.RecurrencePattern
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&patterns).Error; err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	return patterns, nil
}

// FindActiveOn returns the owner's patterns whose window contains date.
func (r *PatternRepository) FindActiveOn(ctx context.Context, ownerID uint, date model.Date) ([]model.RecurrencePattern, error) {
	return r.FindActiveBetween(ctx, ownerID, date, date)
}

// FindActiveBetween returns the owner's patterns whose window intersects
// [from, to].
func (r *PatternRepository) FindActiveBetween(ctx context.Context, ownerID uint, from, to model.Date) ([]model.RecurrencePattern, error) {
	var patterns []model.RecurrencePattern
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND range_start <= ? AND (range_end IS NULL OR range_end >= ?)", ownerID, to, from).
		Order("id ASC").
		Find(&patterns).Error
	if err != nil {
		return nil, fmt.Errorf("find active patterns: %w", err)
	}
	return patterns, nil
}

// FindException returns nil without error when the day has no exception.
func (r *PatternRepository) FindException(ctx context.Context, patternID uint, date model.Date) (*model.RecurrenceException, error) {
	var exceptions []model.RecurrenceException
	err := r.db.WithContext(ctx).
		Where("pattern_id = ? AND exception_date = ?", patternID, date).
		Limit(1).
		Find(&exceptions).Error
	if err != nil {
		return nil, fmt.Errorf("find exception: %w", err)
	}
	if len(exceptions) == 0 {
		return nil, nil
	}
	return &exceptions[0], nil
}

func (r *PatternRepository) ExceptionsFor(ctx context.Context, patternID uint) ([]model.RecurrenceException, error) {
	var exceptions []model.RecurrenceException
	err := r.db.WithContext(ctx).
		Where("pattern_id = ?", patternID).
		Order("exception_date ASC").
		Find(&exceptions).Error
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	return exceptions, nil
}

// ExceptionsBetween loads the exceptions of several patterns in one query.
func (r *PatternRepository) ExceptionsBetween(ctx context.Context, patternIDs []uint, from, to model.Date) ([]model.RecurrenceException, error) {
	if len(patternIDs) == 0 {
		return nil, nil
	}
	var exceptions []model.RecurrenceException
	err := r.db.WithContext(ctx).
		Where("pattern_id IN ? AND exception_date >= ? AND exception_date <= ?", patternIDs, from, to).
		Order("exception_date ASC").
		Find(&exceptions).Error
	if err != nil {
		return nil, fmt.Errorf("find exceptions in range: %w", err)
	}
	return exceptions, nil
}

// SaveException inserts the exception or replaces the one already stored for
// the same (pattern, date).
func (r *PatternRepository) SaveException(ctx context.Context, exc *model.RecurrenceException) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pattern_id"}, {Name: "exception_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"kind",
			"modified_title",
			"modified_start_time",
			"modified_end_time",
			"modified_priority",
			"modified_description",
			"updated_at",
		}),
	}).Create(exc).Error
	if err != nil {
		return fmt.Errorf("save exception: %w", err)
	}
	return nil
}

func (r *PatternRepository) DeleteException(ctx context.Context, patternID uint, date model.Date) error {
	res := r.db.WithContext(ctx).
		Where("pattern_id = ? AND exception_date = ?", patternID, date).
		Delete(&model.RecurrenceException{})
	if res.Error != nil {
		return fmt.Errorf("delete exception: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
