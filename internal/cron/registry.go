package cron

import "context"

// Job is a unit of scheduled work owned by the report worker. The name
// doubles as the metric label and log field for every run, so it must be
// stable across deploys.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the worker's job roster in registration order. Job names are
// unique within a registry; registering a second job under a taken name is
// ignored so a wiring mistake in main cannot double-run the daily report.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry builds a roster from the provided jobs, skipping nil entries.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{names: make(map[string]struct{})}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register appends a job unless it is nil or its name is already taken.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if r.names == nil {
		r.names = make(map[string]struct{})
	}
	if _, taken := r.names[job.Name()]; taken {
		return
	}
	r.names[job.Name()] = struct{}{}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the roster in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
