// Package jobs runs admitted conversion jobs and reports guard rejections
// back to the caller. The executor and notifier are opaque collaborators; the
// dispatcher only guarantees that every admitted job releases its concurrency
// slot exactly once.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/shortsforge/ShortsForgeGuard/internal/guard"
	"github.com/shortsforge/ShortsForgeGuard/internal/identity"
	"github.com/shortsforge/ShortsForgeGuard/internal/limits"

	log "github.com/sirupsen/logrus"
)

// Job is one video-to-shorts conversion request.
type Job struct {
	ID        string
	Identity  string
	Tier      limits.Tier
	SourceURL string
	ChatID    string
}

// Executor performs the long-running conversion work. Opaque to the guard.
type Executor interface {
	Execute(ctx context.Context, job Job) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, job Job) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, job Job) error { return f(ctx, job) }

// Notifier delivers a rejection or throttle message to the caller. The guard
// supplies the numbers; the notifier owns the copy and the transport.
type Notifier interface {
	NotifyRejected(ctx context.Context, job Job, decision guard.Decision)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, job Job, decision guard.Decision)

// NotifyRejected implements Notifier.
func (f NotifierFunc) NotifyRejected(ctx context.Context, job Job, decision guard.Decision) {
	f(ctx, job, decision)
}

// Dispatcher submits jobs through the guard and runs admitted ones on the
// executor.
type Dispatcher struct {
	guard    *guard.Guard
	resolver identity.Resolver
	executor Executor
	notifier Notifier

	execTimeout time.Duration
	wg          sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher. execTimeout bounds one execution;
// zero means no per-job deadline beyond staleness reclamation.
func NewDispatcher(g *guard.Guard, resolver identity.Resolver, executor Executor, notifier Notifier, execTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		guard:       g,
		resolver:    resolver,
		executor:    executor,
		notifier:    notifier,
		execTimeout: execTimeout,
	}
}

// Submit checks the job through the guard and, when admitted, starts the
// executor in the background. The returned decision is final: a denied caller
// must retry later, nothing queues inside the dispatcher.
func (d *Dispatcher) Submit(ctx context.Context, job Job) guard.Decision {
	tier := job.Tier
	if d.resolver != nil {
		tier = d.resolver.Resolve(ctx, job.Identity)
	}
	job.Tier = tier

	decision := d.guard.AdmitJob(ctx, job.Identity, tier, limits.CategoryURLProcessing, job.ID)
	if !decision.Allowed() {
		if d.notifier != nil {
			d.notifier.NotifyRejected(ctx, job, decision)
		}
		return decision
	}

	d.wg.Add(1)
	go d.run(job)
	return decision
}

// run executes one admitted job and releases its slot exactly once.
func (d *Dispatcher) run(job Job) {
	defer d.wg.Done()
	defer d.guard.ReleaseJob(job.ID)

	ctx := context.Background()
	if d.execTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.execTimeout)
		defer cancel()
	}

	if errExec := d.executor.Execute(ctx, job); errExec != nil {
		log.WithError(errExec).
			WithField("job_id", job.ID).
			WithField("identity", job.Identity).
			Error("conversion job failed")
	}
}

// Wait blocks until every in-flight execution has finished. Used on shutdown
// and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
