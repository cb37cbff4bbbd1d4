package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"daycheck/internal/model"
)

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	if loc == nil {
		loc = time.Local
	}
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDailyAt registers a daily job at the given wall-clock time in the
// scheduler location.
func (s *SchedulerService) ScheduleDailyAt(at model.Clock, job func()) (cron.EntryID, error) {
	return s.cron.AddFunc(dailySpec(at), job)
}

// Next reports the next run of a registered job.
func (s *SchedulerService) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// dailySpec builds "second minute hour dom month dow".
func dailySpec(at model.Clock) string {
	return fmt.Sprintf("0 %d %d * * *", at.Minute(), at.Hour())
}
