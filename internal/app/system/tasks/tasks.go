// internal/app/system/tasks/tasks.go

// Package tasks runs small periodic maintenance jobs in-process.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one periodic maintenance task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner executes registered jobs on their intervals until stopped.
type Runner struct {
	jobs   []Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Add registers a job. Call before Start.
func (r *Runner) Add(j Job) {
	r.jobs = append(r.jobs, j)
}

// Start launches one goroutine per job. Each job runs once shortly after
// start, then on its interval.
func (r *Runner) Start() {
	for _, j := range r.jobs {
		r.wg.Add(1)
		go r.loop(j)
	}
}

// Stop halts all jobs and waits for in-flight runs to finish.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Runner) loop(j Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	r.runOnce(j)
	for {
		select {
		case <-ticker.C:
			r.runOnce(j)
		case <-r.stopCh:
			return
		}
	}
}

func (r *Runner) runOnce(j Job) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := j.Run(ctx); err != nil {
		r.log.Warn("task run failed",
			zap.String("task", j.Name),
			zap.Error(err))
	}
}
