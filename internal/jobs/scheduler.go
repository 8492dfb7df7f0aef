// Package jobs runs background housekeeping on a gocron scheduler.
package jobs

import (
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler manages scheduled background jobs
type Scheduler struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	s.SingletonModeAll()

	return &Scheduler{scheduler: s}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// ScheduleInterval runs job now and then every interval.
func (s *Scheduler) ScheduleInterval(tag string, interval time.Duration, job func() error) error {
	_, err := s.scheduler.Every(interval).Tag(tag).Do(job)
	return err
}

// RemoveJob removes a scheduled job by tag
func (s *Scheduler) RemoveJob(tag string) error {
	return s.scheduler.RemoveByTag(tag)
}

// Tags lists the tags of all scheduled jobs.
func (s *Scheduler) Tags() []string {
	var tags []string
	for _, j := range s.scheduler.Jobs() {
		tags = append(tags, j.Tags()...)
	}
	return tags
}
