package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daycheck/internal/model"
)

// CompletionRepository is the completion ledger.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) FindForDate(ctx context.Context, ownerID uint, date model.Date) ([]model.CompletionRecord, error) {
	return r.FindBetween(ctx, ownerID, date, date)
}

func (r *CompletionRepository) FindBetween(ctx context.Context, ownerID uint, from, to model.Date) ([]model.CompletionRecord, error) {
	var records []model.CompletionRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND completion_date >= ? AND completion_date <= ?", ownerID, from, to).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("find completions: %w", err)
	}
	return records, nil
}

// FindFor returns the history of one logical schedule, oldest day first.
func (r *CompletionRepository) FindFor(ctx context.Context, ownerID uint, id model.LogicalID) ([]model.CompletionRecord, error) {
	var records []model.CompletionRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND logical_id = ? AND is_recurring = ?", ownerID, id.ID, id.IsRecurring()).
		Order("completion_date ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("find completion history: %w", err)
	}
	return records, nil
}

// UpsertToggle flips the completion state of (owner, id, date) and returns
// the new value. A missing row is created as completed. The insert-or-flip
// is one statement guarded by the unique key, and the row is read back in
// the same transaction.
func (r *CompletionRepository) UpsertToggle(ctx context.Context, ownerID uint, id model.LogicalID, date model.Date) (bool, error) {
	var completed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := model.CompletionRecord{
			OwnerID:     ownerID,
			LogicalID:   id.ID,
			IsRecurring: id.IsRecurring(),
			Date:        date,
			Completed:   true,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "owner_id"},
				{Name: "logical_id"},
				{Name: "is_recurring"},
				{Name: "completion_date"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"completed":  gorm.Expr("NOT completed"),
				"updated_at": time.Now().UTC(),
			}),
		}).Create(&record).Error
		if err != nil {
			return fmt.Errorf("upsert completion: %w", err)
		}

		var stored model.CompletionRecord
		err = tx.Where("owner_id = ? AND logical_id = ? AND is_recurring = ? AND completion_date = ?",
			ownerID, id.ID, id.IsRecurring(), date).
			Take(&stored).Error
		if err != nil {
			return fmt.Errorf("read completion: %w", err)
		}
		completed = stored.Completed
		return nil
	})
	if err != nil {
		return false, err
	}
	return completed, nil
}
