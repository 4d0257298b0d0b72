// Package task runs long operations off the caller's goroutine with
// cooperative cancellation and coarse progress reporting. The harness
// mirrors how the desktop host schedules its background jobs: one runner
// per job, observed by polling progress and a completion callback.
package task

import (
	"context"
	"errors"
	"sync"

	"github.com/riverscapes/qris/internal/common"
	"github.com/riverscapes/qris/pkg/types"
)

// State is the lifecycle position of a runner.
type State string

// Runner states. A runner moves created -> running -> one terminal state.
const (
	StateCreated   State = "created"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Task is a unit of background work. Run must watch ctx and return
// promptly once it is cancelled; returning ctx.Err() marks the runner
// cancelled rather than failed.
type Task interface {
	Description() string
	Run(ctx context.Context, progress *Progress) error
}

// Progress carries a task's percent-complete and status line. Safe for
// concurrent use: the task writes, observers read.
type Progress struct {
	mu      sync.Mutex
	percent int
	message string
}

// Set records the task's position. Percent is clamped to [0, 100].
func (p *Progress) Set(percent int, message string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	p.mu.Lock()
	p.percent = percent
	p.message = message
	p.mu.Unlock()
}

// Get returns the last recorded position.
func (p *Progress) Get() (int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent, p.message
}

// Runner executes one task. Zero value is not usable; construct with
// NewRunner.
type Runner struct {
	task     Task
	cancel   context.CancelFunc
	progress Progress
	done     chan struct{}

	mu       sync.Mutex
	state    State
	err      error
	finished []func(ok bool, err error)
}

// NewRunner wraps a task. The task does not start until Start is called.
func NewRunner(t Task) *Runner {
	return &Runner{task: t, state: StateCreated, done: make(chan struct{})}
}

// Description returns the wrapped task's description.
func (r *Runner) Description() string { return r.task.Description() }

// State returns the runner's current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the task error after a failed run, nil otherwise.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Progress returns the task's last reported position.
func (r *Runner) Progress() (int, string) { return r.progress.Get() }

// OnFinished registers a callback invoked once when the task reaches a
// terminal state. Callbacks registered after completion fire immediately.
func (r *Runner) OnFinished(fn func(ok bool, err error)) {
	r.mu.Lock()
	if r.state == StateSucceeded || r.state == StateFailed || r.state == StateCancelled {
		ok, err := r.state == StateSucceeded, r.err
		r.mu.Unlock()
		fn(ok, err)
		return
	}
	r.finished = append(r.finished, fn)
	r.mu.Unlock()
}

// Start launches the task on its own goroutine. Starting a runner twice
// is an error.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateCreated {
		r.mu.Unlock()
		return errors.New("task already started")
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.state = StateRunning
	r.mu.Unlock()

	log := common.Logger()
	log.Info("task: started", "description", r.task.Description())

	go func() {
		defer close(r.done)
		err := r.task.Run(ctx, &r.progress)

		r.mu.Lock()
		switch {
		case err == nil:
			r.state = StateSucceeded
		case errors.Is(err, context.Canceled) || errors.Is(err, types.ErrCancelled):
			r.state = StateCancelled
			r.err = types.ErrCancelled
		default:
			r.state = StateFailed
			r.err = err
		}
		ok := r.state == StateSucceeded
		finalErr := r.err
		callbacks := r.finished
		r.finished = nil
		r.mu.Unlock()

		switch {
		case ok:
			log.Info("task: finished", "description", r.task.Description())
		case errors.Is(finalErr, types.ErrCancelled):
			log.Warn("task: cancelled", "description", r.task.Description())
		default:
			log.Error("task: failed", "description", r.task.Description(), "error", finalErr)
		}
		for _, fn := range callbacks {
			fn(ok, finalErr)
		}
	}()
	return nil
}

// Cancel asks a running task to stop. Safe to call in any state; the
// runner reaches StateCancelled only once the task returns.
func (r *Runner) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the task reaches a terminal state and returns its
// error, if any.
func (r *Runner) Wait() error {
	<-r.done
	return r.Err()
}
