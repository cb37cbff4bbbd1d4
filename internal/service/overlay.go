package service

import (
	"context"
	"fmt"

	"daycheck/internal/metrics"
	"daycheck/internal/model"
)

// CompletionOverlay decorates schedule views with per-date completion state.
type CompletionOverlay struct {
	ledger  CompletionLedger
	metrics *metrics.Metrics
}

func NewCompletionOverlay(ledger CompletionLedger, m *metrics.Metrics) *CompletionOverlay {
	return &CompletionOverlay{ledger: ledger, metrics: m}
}

// completionIndex maps overlay keys to the recorded state.
type completionIndex map[model.CompletionKey]bool

func newCompletionIndex(records []model.CompletionRecord) completionIndex {
	idx := make(completionIndex, len(records))
	for _, r := range records {
		idx[model.CompletionKey{ID: r.Target(), Date: r.Date}] = r.Completed
	}
	return idx
}

func (idx completionIndex) apply(views []model.ScheduleView) []model.ScheduleView {
	out := make([]model.ScheduleView, len(views))
	for i, v := range views {
		if completed, ok := idx[v.Key()]; ok {
			v.Completed = completed
		}
		out[i] = v
	}
	return out
}

// Apply returns a copy of views with the state of matching records applied.
// A record matches only on source, id and date; views without a record keep
// their own Completed value.
func Apply(views []model.ScheduleView, records []model.CompletionRecord) []model.ScheduleView {
	return newCompletionIndex(records).apply(views)
}

// ApplyForDate loads the owner's records for date and applies them.
func (o *CompletionOverlay) ApplyForDate(ctx context.Context, ownerID uint, date model.Date, views []model.ScheduleView) ([]model.ScheduleView, error) {
	records, err := o.ledger.FindForDate(ctx, ownerID, date)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}
	return Apply(views, records), nil
}

// Toggle flips the completion state of (id, date) and returns the new state.
// The first toggle of a key marks it completed.
func (o *CompletionOverlay) Toggle(ctx context.Context, ownerID uint, id model.LogicalID, date model.Date) (bool, error) {
	completed, err := o.ledger.UpsertToggle(ctx, ownerID, id, date)
	if err != nil {
		return false, fmt.Errorf("toggle completion: %w", err)
	}
	o.metrics.ObserveToggle(id, completed)
	return completed, nil
}

// History returns every record of one logical schedule, oldest first.
func (o *CompletionOverlay) History(ctx context.Context, ownerID uint, id model.LogicalID) ([]model.CompletionRecord, error) {
	records, err := o.ledger.FindFor(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("completion history: %w", err)
	}
	return records, nil
}
