package service

import (
	"context"

	"daycheck/internal/model"
)

// exceptionLookup finds the exception of a pattern on a date, or nil.
type exceptionLookup interface {
	Resolve(ctx context.Context, patternID uint, date model.Date) (*model.RecurrenceException, error)
}

// ExceptionResolver looks exceptions up in the pattern store.
type ExceptionResolver struct {
	patterns PatternStore
}

func NewExceptionResolver(patterns PatternStore) *ExceptionResolver {
	return &ExceptionResolver{patterns: patterns}
}

// Resolve returns nil without error when the day has no exception.
func (r *ExceptionResolver) Resolve(ctx context.Context, patternID uint, date model.Date) (*model.RecurrenceException, error) {
	exc, err := r.patterns.FindException(ctx, patternID, date)
	if err != nil {
		return nil, storeErr("resolve exception", err)
	}
	return exc, nil
}

// exceptionIndex serves lookups from exceptions loaded up front.
type exceptionIndex map[uint]map[model.Date]*model.RecurrenceException

func newExceptionIndex(exceptions []model.RecurrenceException) exceptionIndex {
	idx := make(exceptionIndex)
	for i := range exceptions {
		exc := &exceptions[i]
		byDate, ok := idx[exc.PatternID]
		if !ok {
			byDate = make(map[model.Date]*model.RecurrenceException)
			idx[exc.PatternID] = byDate
		}
		byDate[exc.Date] = exc
	}
	return idx
}

func (idx exceptionIndex) Resolve(_ context.Context, patternID uint, date model.Date) (*model.RecurrenceException, error) {
	return idx[patternID][date], nil
}
