package schedule

import (
	"sync"
	"time"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/clock"
)

// deferredRunner fires single-shot actions at a future time and
// supports cancel-before-fire by id. Fire and cancel racing on the
// same id resolve under one mutex: whichever acquires it first wins,
// and a fired task can never be cancelled afterwards.
type deferredRunner struct {
	mu    sync.Mutex
	clock clock.Clock
	tasks map[string]*deferredTask
}

type deferredTask struct {
	cancelCh  chan struct{}
	cancelled bool
	fired     bool
}

func newDeferredRunner(clk clock.Clock) *deferredRunner {
	return &deferredRunner{
		clock: clk,
		tasks: make(map[string]*deferredTask),
	}
}

// ScheduleDeferred runs action once at the given time, clamped to now
// if at is already past. A second schedule under the same id replaces
// the first.
func (s *Scheduler) ScheduleDeferred(id string, at time.Time, action func()) {
	s.deferred.schedule(id, at, action)
}

// CancelDeferred cancels a pending deferred task. It returns false if
// the id is unknown or the task has already fired.
func (s *Scheduler) CancelDeferred(id string) bool {
	return s.deferred.cancel(id)
}

// PendingDeferred returns how many deferred tasks are waiting.
func (s *Scheduler) PendingDeferred() int {
	s.deferred.mu.Lock()
	defer s.deferred.mu.Unlock()
	return len(s.deferred.tasks)
}

func (r *deferredRunner) schedule(id string, at time.Time, action func()) {
	r.mu.Lock()
	if prev, ok := r.tasks[id]; ok && !prev.fired {
		prev.cancelled = true
		close(prev.cancelCh)
	}
	task := &deferredTask{cancelCh: make(chan struct{})}
	r.tasks[id] = task
	r.mu.Unlock()

	delay := at.Sub(r.clock.Now())
	if delay < 0 {
		delay = 0
	}

	go func() {
		select {
		case <-r.clock.After(delay):
			r.mu.Lock()
			if task.cancelled {
				r.mu.Unlock()
				return
			}
			task.fired = true
			if r.tasks[id] == task {
				delete(r.tasks, id)
			}
			r.mu.Unlock()
			action()
		case <-task.cancelCh:
		}
	}()
}

func (r *deferredRunner) cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok || task.fired || task.cancelled {
		return false
	}
	task.cancelled = true
	close(task.cancelCh)
	delete(r.tasks, id)
	return true
}
