package cron

import (
	"context"
	"sync"
	"time"
)

// Job is one maintenance task run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type scheduledJob struct {
	job     Job
	every   time.Duration
	lastRun time.Time
}

// Registry holds jobs with their cadence. A job registered with a zero
// cadence runs on every worker tick.
type Registry struct {
	mu      sync.Mutex
	entries []*scheduledJob
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds job; every is the minimum gap between two runs.
func (r *Registry) Register(job Job, every time.Duration) {
	if job == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &scheduledJob{job: job, every: max(every, 0)})
}

// Jobs returns every registered job in registration order.
func (r *Registry) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs := make([]Job, 0, len(r.entries))
	for _, entry := range r.entries {
		jobs = append(jobs, entry.job)
	}
	return jobs
}

// Due returns the jobs whose cadence has elapsed at now and stamps them as run.
// A failed job still waits its full cadence.
func (r *Registry) Due(now time.Time) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []Job
	for _, entry := range r.entries {
		if !entry.lastRun.IsZero() && now.Sub(entry.lastRun) < entry.every {
			continue
		}
		entry.lastRun = now
		due = append(due, entry.job)
	}
	return due
}
