package action

import (
	"context"
	"sync"
)

// Type names an action. Types are namespaced per resource so they stay unique
// across the combined store.
type Type string

// Action is a message dispatched to the store.
type Action struct {
	Type    Type
	Payload any
}

// Dispatcher accepts actions. The store is the production implementation.
type Dispatcher interface {
	Dispatch(Action)
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(Action)

// Dispatch calls f(a).
func (f DispatchFunc) Dispatch(a Action) { f(a) }

// Lifecycle describes the three-phase protocol of one asynchronous fetch.
type Lifecycle struct {
	Request Action
	Fetch   func(ctx context.Context) (any, error)
	Success func(payload any) Action
	Failure func(err error) Action
	// Propagate makes Task.Wait return the fetch error after the failure
	// action has been dispatched. When false the error only reaches the store.
	Propagate bool
}

// Task is the handle of an in-flight fetch started by Run.
type Task struct {
	done    chan struct{}
	payload any
	err     error
}

// Run dispatches the request action synchronously, then performs the fetch
// in a new goroutine and dispatches exactly one terminal action. The terminal
// action is dispatched before the task completes, so a caller that waits on
// the task always observes the updated store.
func Run(ctx context.Context, d Dispatcher, lc Lifecycle) *Task {
	t := &Task{done: make(chan struct{})}
	d.Dispatch(lc.Request)

	go func() {
		defer close(t.done)
		payload, err := lc.Fetch(ctx)
		if err != nil {
			d.Dispatch(lc.Failure(err))
			if lc.Propagate {
				t.err = err
			}
			return
		}
		d.Dispatch(lc.Success(payload))
		t.payload = payload
	}()
	return t
}

// Done is closed once the terminal action has been dispatched.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends. Abandoning a wait does not
// stop the fetch; its terminal action is still dispatched.
func (t *Task) Wait(ctx context.Context) (any, error) {
	select {
	case <-t.done:
		return t.payload, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Recorder is a Dispatcher that keeps every action it receives. Tests use it
// in place of a full store.
type Recorder struct {
	mu      sync.Mutex
	actions []Action
}

// Dispatch records a.
func (r *Recorder) Dispatch(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
}

// Actions returns a copy of the recorded actions in dispatch order.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := make([]Action, len(r.actions))
	copy(dup, r.actions)
	return dup
}

// Types returns the recorded action types in dispatch order.
func (r *Recorder) Types() []Type {
	actions := r.Actions()
	types := make([]Type, len(actions))
	for i, a := range actions {
		types[i] = a.Type
	}
	return types
}
