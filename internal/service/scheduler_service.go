package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"flynesis-planner/internal/datetime"
)

// SchedulerService runs the planner's daily jobs.
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

// ScheduleDaily registers job to run every day at clock ("08:00" or "8:00 AM").
func (s *SchedulerService) ScheduleDaily(clock string, job func()) (cron.EntryID, error) {
	spec, err := dailySpec(clock)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// Next returns when the given job runs next.
func (s *SchedulerService) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func dailySpec(clock string) (string, error) {
	minutes, err := datetime.ParseClock(clock)
	if err != nil {
		return "", fmt.Errorf("daily time: %w", err)
	}
	// second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minutes%60, minutes/60), nil
}
