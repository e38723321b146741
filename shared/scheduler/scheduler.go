package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Job is one named maintenance task run on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      func()
}

// Scheduler runs the pipeline's maintenance jobs, such as cache sweeps and
// the daily quota reset. Jobs are skipped rather than stacked when a
// previous run is still going.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

func New(jobs ...Job) *Scheduler {
	return &Scheduler{
		// Prevent overlapping runs
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		jobs: jobs,
	}
}

// Start registers every job and runs the cron loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		job := job
		_, err := s.cron.AddFunc(job.Schedule, func() {
			log.Printf("Running maintenance job %s", job.Name)
			job.Run()
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s (%q): %w", job.Name, job.Schedule, err)
		}
		log.Printf("Scheduled %s: %s", job.Name, job.Schedule)
	}

	s.cron.Start()
	<-ctx.Done()
	log.Println("Maintenance scheduler stopping")
	s.cron.Stop()
	return ctx.Err()
}
