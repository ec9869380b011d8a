// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package namespace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	cerrors "github.com/NVIDIA/nscrawler/pkg/errors"
)

const defaultProcRoot = "/proc"

// Executor runs routines inside target namespaces on dedicated, locked OS
// threads. It is safe for concurrent use.
type Executor struct {
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	procRoot string
}

// Option configures an Executor.
type Option func(*Executor)

// WithParallelism bounds the number of concurrent switch windows.
// Values below one are treated as one.
func WithParallelism(n int) Option {
	return func(e *Executor) {
		if n < 1 {
			n = 1
		}
		e.sem = semaphore.NewWeighted(int64(n))
	}
}

// WithRateLimit paces how often switch windows may open.
func WithRateLimit(l *rate.Limiter) Option {
	return func(e *Executor) {
		e.limiter = l
	}
}

// WithProcRoot sets the procfs mount used to look up target namespaces.
func WithProcRoot(root string) Option {
	return func(e *Executor) {
		e.procRoot = root
	}
}

// NewExecutor creates an Executor. Without options it allows one switch
// window at a time and reads /proc.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		sem:      semaphore.NewWeighted(1),
		procRoot: defaultProcRoot,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do runs fn inside the given namespaces of process pid and returns its result.
// See Executor.Run for the guarantees.
func Do[T any](ctx context.Context, e *Executor, pid int, kinds Set, fn func() (T, error)) (T, error) {
	var out T
	err := e.Run(ctx, pid, kinds, func() error {
		v, err := fn()
		out = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Run executes fn on a dedicated OS thread that has joined the requested
// namespaces of process pid, then restores the thread's original namespaces.
// The restore runs whether fn succeeds, fails or panics. The calling
// goroutine's thread is never switched.
//
// The context bounds waiting for a free worker slot and the rate limiter; it
// does not interrupt fn once running.
func (e *Executor) Run(ctx context.Context, pid int, kinds Set, fn func() error) error {
	if err := e.validate(pid, kinds, fn); err != nil {
		switchTotal.WithLabelValues("invalid").Inc()
		return err
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for namespace worker: %w", err)
	}
	defer e.sem.Release(1)

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for namespace switch rate limit: %w", err)
		}
	}

	done := make(chan error, 1)
	go e.work(pid, kinds, fn, done)
	err := <-done

	switchTotal.WithLabelValues(resultLabel(err)).Inc()
	return err
}

// work is the body of a dedicated worker goroutine. It owns its OS thread for
// its whole lifetime and only hands the thread back when every namespace was
// restored.
func (e *Executor) work(pid int, kinds Set, fn func() error, done chan<- error) {
	runtime.LockOSThread()
	reusable := false
	defer func() {
		if reusable {
			runtime.UnlockOSThread()
		}
	}()

	start := time.Now()
	switchesInFlight.Inc()
	defer func() {
		switchesInFlight.Dec()
		switchDuration.Observe(time.Since(start).Seconds())
	}()

	w, err := enter(e.procRoot, pid, kinds)
	if err != nil {
		reusable = w != nil && w.clean()
		done <- err
		return
	}

	runErr := call(fn)

	if restoreErr := w.restore(); restoreErr != nil {
		restoreFailures.Inc()
		slog.Error("failed to restore namespaces, discarding worker thread",
			"pid", pid,
			"kinds", kinds.String(),
			"error", restoreErr)
	}
	reusable = w.clean()

	done <- runErr
}

// call runs fn, converting a panic into an error so the restore still runs.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("routine panicked in target namespaces",
				"panic", r,
				"stack", string(debug.Stack()))
			err = cerrors.Wrap(cerrors.ErrCodeInternal, "collection routine panicked",
				fmt.Errorf("%w: %v", ErrRoutinePanic, r))
		}
	}()
	return fn()
}

func (e *Executor) validate(pid int, kinds Set, fn func() error) error {
	if fn == nil {
		return invalid("routine is required", ErrInvalidRequest)
	}
	if pid <= 0 {
		return invalid(fmt.Sprintf("invalid target pid %d", pid), ErrInvalidRequest)
	}
	if len(kinds) == 0 {
		return invalid("at least one namespace kind is required", ErrInvalidRequest)
	}
	for i, k := range kinds {
		if !k.IsValid() {
			return invalid(fmt.Sprintf("unknown namespace kind %q", k), ErrUnsupportedKind)
		}
		if k == User {
			return invalid("the user namespace cannot be joined by a multi-threaded process", ErrUnsupportedKind)
		}
		for _, prev := range kinds[:i] {
			if prev == k {
				return invalid(fmt.Sprintf("duplicate namespace kind %q", k), ErrInvalidRequest)
			}
		}
		if !supported(k) {
			return invalid(fmt.Sprintf("namespace kind %q not supported by this kernel", k), ErrUnsupportedKind)
		}
	}
	return nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTargetNotFound):
		return "not_found"
	case errors.Is(err, ErrAccessDenied):
		return "denied"
	case errors.Is(err, ErrSwitch):
		return "switch_error"
	case errors.Is(err, ErrJoin):
		return "join_error"
	default:
		return "routine_error"
	}
}
