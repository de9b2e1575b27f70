// Package loop is an optional tick source for hosts that do not have a frame
// loop of their own. It drives a machine's Tick at a frame interval and its
// FixedTick on a fixed-step accumulator, from a single goroutine, so the
// machine's single-threaded contract holds. Hosts with their own loop (game
// engines, simulations) should call Tick and FixedTick directly instead.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/statecraft/go-bsm/clock"
	"github.com/statecraft/go-bsm/queue"
)

// Ticker is the caller-driven surface of a machine. *bsm.Machine satisfies it
// for any context type.
type Ticker interface {
	Tick()
	FixedTick()
}

type Config struct {
	// FrameInterval is the Tick cadence. Defaults to 16.667ms (60 Hz).
	FrameInterval time.Duration
	// FixedInterval is the FixedTick step size. Defaults to 20ms (50 Hz).
	FixedInterval time.Duration
}

type Option func(*Runner)

// WithClock substitutes the clock used for fixed-step accumulation.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// Runner owns the loop goroutine for one machine.
type Runner struct {
	target      Ticker
	cfg         Config
	clock       clock.Clock
	commands    *queue.Queue[func()]
	frames      atomic.Uint64
	accumulator time.Duration
	last        time.Time
	cancel      context.CancelFunc
	stopped     chan struct{}
}

func New(target Ticker, cfg Config, options ...Option) *Runner {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 16667 * time.Microsecond
	}
	if cfg.FixedInterval <= 0 {
		cfg.FixedInterval = 20 * time.Millisecond
	}
	runner := &Runner{
		target:   target,
		cfg:      cfg,
		clock:    clock.System(),
		commands: queue.New[func()](),
	}
	for _, option := range options {
		option(runner)
	}
	return runner
}

// Start launches the loop goroutine. It fails if the runner is already
// running.
func (r *Runner) Start(ctx context.Context) error {
	if r.cancel != nil {
		return errors.New("loop: already started")
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.stopped = make(chan struct{})
	r.last = r.clock.Now()
	go r.run(ctx)
	return nil
}

// Stop cancels the loop and waits for the goroutine to exit.
func (r *Runner) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.stopped
	r.cancel = nil
}

// Do hands fn to the loop goroutine; it runs at the start of the next frame,
// before transitions are evaluated. This is the thread-safe way to mutate the
// machine or its context from outside the loop.
func (r *Runner) Do(fn func()) {
	r.commands.Push(fn)
}

// Frames returns the number of frames processed so far.
func (r *Runner) Frames() uint64 {
	return r.frames.Load()
}

func (r *Runner) run(ctx context.Context) {
	defer close(r.stopped)
	ticker := time.NewTicker(r.cfg.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.frame(r.clock.Now())
		}
	}
}

// frame advances the runner to now: queued commands run first, then FixedTick
// once per whole fixed interval elapsed, then a single Tick.
func (r *Runner) frame(now time.Time) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Error("panic during frame", "frame", r.frames.Load(), "panic", recovered)
		}
	}()
	for _, command := range r.commands.Drain() {
		command()
	}
	r.accumulator += now.Sub(r.last)
	r.last = now
	for r.accumulator >= r.cfg.FixedInterval {
		r.accumulator -= r.cfg.FixedInterval
		r.target.FixedTick()
	}
	r.target.Tick()
	r.frames.Add(1)
}
