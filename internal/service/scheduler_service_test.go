package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daycheck/internal/model"
)

func TestDailySpec(t *testing.T) {
	assert.Equal(t, "0 5 8 * * *", dailySpec(model.NewClock(8, 5)))
	assert.Equal(t, "0 0 0 * * *", dailySpec(model.NewClock(0, 0)))
}

func TestScheduleDailyAt(t *testing.T) {
	s := NewSchedulerService(time.UTC)

	id, err := s.ScheduleDailyAt(model.NewClock(7, 30), func() {})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()
	next := s.Next(id)
	require.False(t, next.IsZero())
	assert.Equal(t, 7, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.Equal(t, time.UTC, next.Location())
}
