// Package lifecycle runs the CLI's jobs with signal handling. A signal asks
// jobs to stop at their next safe point; an animation already under way is
// never cut short.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of work that runs to completion and can be asked to stop early.
type Job interface {
	// Run performs the job. It blocks until the job finishes or honors a Stop.
	Run() error
	// Stop asks Run to return at its next safe point. It must not block.
	Stop()
}

// FuncJob adapts a run/stop function pair into the Job interface.
type FuncJob struct {
	RunFn  func() error
	StopFn func()
}

// Run calls the underlying run function.
func (f *FuncJob) Run() error { return f.RunFn() }

// Stop calls the underlying stop function, if any.
func (f *FuncJob) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

// Lifecycle runs named jobs concurrently and coordinates their shutdown.
type Lifecycle struct {
	logger *zap.Logger
	jobs   []namedJob
	mu     sync.Mutex

	// signals overrides OS signal delivery in tests.
	signals <-chan os.Signal
}

type namedJob struct {
	name string
	job  Job
}

// New creates a Lifecycle.
//
// Precondition: logger must be non-nil.
func New(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named job. Jobs are started in the order they are added and
// asked to stop in reverse order.
//
// Precondition: name must be non-empty; job must be non-nil.
func (l *Lifecycle) Add(name string, job Job) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jobs = append(l.jobs, namedJob{name: name, job: job})
}

// Run starts all jobs and blocks until every one has returned.
//
// On SIGINT, SIGTERM, context cancellation, or the first job error, every job
// is asked to stop and Run keeps waiting for them to return.
//
// Postcondition: All jobs have returned. Returns the joined job errors.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	l.mu.Lock()
	jobs := append([]namedJob(nil), l.jobs...)
	l.mu.Unlock()

	sigCh := l.signals
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	errCh := make(chan error, len(jobs))
	var wg sync.WaitGroup
	for _, nj := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.logger.Debug("starting job", zap.String("job", nj.name))
			jobStart := time.Now()
			if err := nj.job.Run(); err != nil {
				l.logger.Error("job failed",
					zap.String("job", nj.name),
					zap.Error(err),
					zap.Duration("elapsed", time.Since(jobStart)),
				)
				errCh <- fmt.Errorf("job %s: %w", nj.name, err)
				return
			}
			l.logger.Debug("job finished",
				zap.String("job", nj.name),
				zap.Duration("elapsed", time.Since(jobStart)),
			)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var errs []error
	select {
	case <-done:
	case sig := <-sigCh:
		l.logger.Info("received signal, stopping after the current step",
			zap.String("signal", sig.String()),
		)
		l.stopAll(jobs)
		<-done
	case err := <-errCh:
		errs = append(errs, err)
		l.stopAll(jobs)
		<-done
	case <-ctx.Done():
		l.logger.Info("context cancelled, stopping after the current step")
		l.stopAll(jobs)
		<-done
	}

	close(errCh)
	for err := range errCh {
		errs = append(errs, err)
	}
	l.logger.Debug("all jobs returned", zap.Duration("elapsed", time.Since(start)))
	return errors.Join(errs...)
}

func (l *Lifecycle) stopAll(jobs []namedJob) {
	for i := len(jobs) - 1; i >= 0; i-- {
		l.logger.Debug("stopping job", zap.String("job", jobs[i].name))
		jobs[i].job.Stop()
	}
}
