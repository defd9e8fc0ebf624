// Package asyncwork implements the installer's action table: a
// concurrency-capped registry of in-flight per-key tasks that later
// work can either replace (Set) or chain onto (Reduce), then await as a
// whole (Wait). It is the mechanism materialise/attach use to avoid
// redoing or racing work for the same locator while still running
// independent locators in parallel.
//
// The per-key "only the current task matters" gating is grounded on the
// doneMap/channel pattern used for DAG traversal elsewhere in the
// ecosystem; the concurrency cap is grounded on golang.org/x/sync's
// semaphore package. Error aggregation deliberately does not use
// errgroup: errgroup.WithContext cancels its derived context the
// instant any one goroutine errors, which would abort every other
// key's in-flight or queued task on an unrelated failure. A task
// rejection must not poison unrelated keys (spec.md §4.3), so Table
// runs its tasks off the caller's own ctx and aggregates errors with a
// plain sync.WaitGroup instead.
package asyncwork

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Handle is a single scheduled task's future. The zero value is not
// usable; obtain a Handle from Table.Set or Table.Reduce.
type Handle struct {
	done  chan struct{}
	value interface{}
	err   error
}

// Wait blocks until h's task has produced a result, or ctx is done,
// whichever comes first.
func (h *Handle) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		return h.value, h.err
	}
}

// Table is a keyed registry of concurrent tasks capped at a fixed
// concurrency. A Table must not be reused after Wait returns; create a
// new one per install run.
type Table struct {
	mu      sync.Mutex
	current map[string]*Handle

	sem *semaphore.Weighted
	wg  sync.WaitGroup
	ctx context.Context

	errMu sync.Mutex
	err   error
}

// New returns a Table that runs at most concurrency tasks at once,
// scheduling all work against ctx. A concurrency of zero or less
// disables the cap (limited only by ctx itself). ctx is never
// canceled by a task's own error - only the caller can cancel it.
func New(ctx context.Context, concurrency int64) *Table {
	t := &Table{
		current: make(map[string]*Handle),
		ctx:     ctx,
	}
	if concurrency > 0 {
		t.sem = semaphore.NewWeighted(concurrency)
	}
	return t
}

func (t *Table) recordErr(err error) {
	if err == nil {
		return
	}
	t.errMu.Lock()
	if t.err == nil {
		t.err = err
	}
	t.errMu.Unlock()
}

// Set schedules factory as key's current task, unconditionally
// replacing whatever task was previously current for key. The replaced
// task, if any, is left to finish on its own but its result is no
// longer reachable through the table - callers that need to chain off
// the previous result must use Reduce instead.
func (t *Table) Set(key string, factory func(ctx context.Context) (interface{}, error)) *Handle {
	h := &Handle{done: make(chan struct{})}

	t.mu.Lock()
	t.current[key] = h
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer close(h.done)
		if t.sem != nil {
			if err := t.sem.Acquire(t.ctx, 1); err != nil {
				h.err = err
				t.recordErr(err)
				return
			}
			defer t.sem.Release(1)
		}
		h.value, h.err = factory(t.ctx)
		t.recordErr(h.err)
	}()

	return h
}

// Reduce schedules chain to run after key's current task (if any)
// completes, receiving that task's result, and becomes the new current
// task for key. If key has no current task, chain runs immediately with
// a nil previous value. If the prior task failed, Reduce propagates its
// error without invoking chain.
func (t *Table) Reduce(key string, chain func(ctx context.Context, prev interface{}) (interface{}, error)) *Handle {
	t.mu.Lock()
	prev := t.current[key]
	h := &Handle{done: make(chan struct{})}
	t.current[key] = h
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer close(h.done)

		var prevValue interface{}
		if prev != nil {
			select {
			case <-t.ctx.Done():
				h.err = t.ctx.Err()
				t.recordErr(h.err)
				return
			case <-prev.done:
			}
			if prev.err != nil {
				h.err = prev.err
				t.recordErr(h.err)
				return
			}
			prevValue = prev.value
		}

		if t.sem != nil {
			if err := t.sem.Acquire(t.ctx, 1); err != nil {
				h.err = err
				t.recordErr(err)
				return
			}
			defer t.sem.Release(1)
		}
		h.value, h.err = chain(t.ctx, prevValue)
		t.recordErr(h.err)
	}()

	return h
}

// Wait blocks until every task scheduled through Set or Reduce has
// completed, returning the first error encountered, if any. A
// failure in one key's task never cancels another key's in-flight or
// queued work; Wait simply reports that a failure happened.
func (t *Table) Wait() error {
	t.wg.Wait()
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.err
}
