package rest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/danverbraganza/varcaser/varcaser"

	"github.com/odlvideo/odlv/internal/action"
)

var (
	// ErrInvalidDescriptor is returned by New for malformed descriptors.
	ErrInvalidDescriptor = errors.New("invalid endpoint descriptor")
	// ErrVerbNotSupported is returned when calling a verb the descriptor did
	// not register.
	ErrVerbNotSupported = errors.New("verb not supported")
)

var (
	resourceName = regexp.MustCompile(`^[a-z][A-Za-z0-9]*$`)
	nameCaser    = varcaser.Caser{From: varcaser.LowerCamelCase, To: varcaser.ScreamingSnakeCase}
)

// Params carries the arguments of one endpoint call.
type Params struct {
	Key  string
	Body any
}

// State is the slice of the store owned by one endpoint.
type State[T any] struct {
	Processing bool
	Loaded     bool
	Data       T
	Error      error
}

// Op is the fetch function of one verb plus the way its payload is merged
// into the endpoint data. Build it with Replace or Merge.
type Op[T any] struct {
	fetch func(ctx context.Context, p Params) (any, error)
	apply func(payload any, current T) T
}

// Replace builds an Op whose success payload replaces the data wholesale.
func Replace[T any](fetch func(ctx context.Context, p Params) (T, error)) Op[T] {
	return Op[T]{
		fetch: func(ctx context.Context, p Params) (any, error) {
			return fetch(ctx, p)
		},
		apply: func(payload any, current T) T {
			data, ok := payload.(T)
			if !ok {
				return current
			}
			return data
		},
	}
}

// Merge builds an Op whose success payload is combined with the current data
// by handler.
func Merge[T, P any](fetch func(ctx context.Context, p Params) (P, error), handler func(payload P, current T) T) Op[T] {
	return Op[T]{
		fetch: func(ctx context.Context, p Params) (any, error) {
			return fetch(ctx, p)
		},
		apply: func(payload any, current T) T {
			typed, ok := payload.(P)
			if !ok {
				return current
			}
			return handler(typed, current)
		},
	}
}

// Descriptor declares one backend resource. The registered verbs are the
// keys of Ops.
type Descriptor[T any] struct {
	Name         string
	InitialState State[T]
	Ops          map[Verb]Op[T]
	// PropagateFailure makes Do return fetch errors to the caller in
	// addition to storing them in State.Error.
	PropagateFailure bool
}

// Types holds the action types derived for one verb.
type Types struct {
	Request action.Type
	Success action.Type
	Failure action.Type
}

type phase int

const (
	phaseRequest phase = iota
	phaseSuccess
	phaseFailure
	phaseClear
)

type transition struct {
	verb  Verb
	phase phase
}

// Endpoint is the action-creator and reducer pair derived from a Descriptor.
type Endpoint[T any] struct {
	name      string
	initial   State[T]
	ops       map[Verb]Op[T]
	propagate bool
	types     map[Verb]Types
	clear     action.Type
	lookup    map[action.Type]transition
}

// New validates d and derives its action types and reducer.
func New[T any](d Descriptor[T]) (*Endpoint[T], error) {
	if !resourceName.MatchString(d.Name) {
		return nil, fmt.Errorf("%w: name %q must be lowerCamelCase", ErrInvalidDescriptor, d.Name)
	}
	if len(d.Ops) == 0 {
		return nil, fmt.Errorf("%w: %s registers no verbs", ErrInvalidDescriptor, d.Name)
	}

	upper := nameCaser.String(d.Name)
	e := &Endpoint[T]{
		name:      d.Name,
		initial:   d.InitialState,
		ops:       make(map[Verb]Op[T], len(d.Ops)),
		propagate: d.PropagateFailure,
		types:     make(map[Verb]Types, len(d.Ops)),
		clear:     action.Type("CLEAR_" + upper),
		lookup:    make(map[action.Type]transition, len(d.Ops)*3+1),
	}
	for verb, op := range d.Ops {
		if !verb.Valid() {
			return nil, fmt.Errorf("%w: %s registers unknown verb %d", ErrInvalidDescriptor, d.Name, int(verb))
		}
		if op.fetch == nil || op.apply == nil {
			return nil, fmt.Errorf("%w: %s %s has no fetch function", ErrInvalidDescriptor, d.Name, verb)
		}
		t := Types{
			Request: action.Type(fmt.Sprintf("REQUEST_%s_%s", upper, verb)),
			Success: action.Type(fmt.Sprintf("RECEIVE_%s_%s_SUCCESS", upper, verb)),
			Failure: action.Type(fmt.Sprintf("RECEIVE_%s_%s_FAILURE", upper, verb)),
		}
		e.ops[verb] = op
		e.types[verb] = t
		e.lookup[t.Request] = transition{verb: verb, phase: phaseRequest}
		e.lookup[t.Success] = transition{verb: verb, phase: phaseSuccess}
		e.lookup[t.Failure] = transition{verb: verb, phase: phaseFailure}
	}
	e.lookup[e.clear] = transition{phase: phaseClear}
	return e, nil
}

// Name returns the resource name.
func (e *Endpoint[T]) Name() string {
	return e.name
}

// Verbs returns the registered verbs in canonical order.
func (e *Endpoint[T]) Verbs() []Verb {
	out := make([]Verb, 0, len(e.ops))
	for _, v := range allVerbs {
		if _, ok := e.ops[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// TypesFor returns the action types derived for verb.
func (e *Endpoint[T]) TypesFor(verb Verb) (Types, bool) {
	t, ok := e.types[verb]
	return t, ok
}

// ClearType is the action type that resets the endpoint to its initial state.
func (e *Endpoint[T]) ClearType() action.Type {
	return e.clear
}

// AllTypes lists every action type this endpoint reduces, sorted.
func (e *Endpoint[T]) AllTypes() []action.Type {
	out := make([]action.Type, 0, len(e.lookup))
	for t := range e.lookup {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// InitialState returns the state the endpoint starts from.
func (e *Endpoint[T]) InitialState() State[T] {
	return e.initial
}

// Clear builds the action that resets the endpoint.
func (e *Endpoint[T]) Clear() action.Action {
	return action.Action{Type: e.clear}
}

// RequestAction builds the request action for verb.
func (e *Endpoint[T]) RequestAction(verb Verb, p Params) action.Action {
	return action.Action{Type: e.types[verb].Request, Payload: p}
}

// SuccessAction builds the success action for verb.
func (e *Endpoint[T]) SuccessAction(verb Verb, payload any) action.Action {
	return action.Action{Type: e.types[verb].Success, Payload: payload}
}

// FailureAction builds the failure action for verb.
func (e *Endpoint[T]) FailureAction(verb Verb, err error) action.Action {
	return action.Action{Type: e.types[verb].Failure, Payload: err}
}

// Start dispatches the request action for verb and runs its fetch function.
// The returned task resolves to the fetched payload.
func (e *Endpoint[T]) Start(ctx context.Context, d action.Dispatcher, verb Verb, p Params) (*action.Task, error) {
	op, ok := e.ops[verb]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", e.name, verb, ErrVerbNotSupported)
	}
	return action.Run(ctx, d, action.Lifecycle{
		Request: e.RequestAction(verb, p),
		Fetch: func(ctx context.Context) (any, error) {
			return op.fetch(ctx, p)
		},
		Success:   func(payload any) action.Action { return e.SuccessAction(verb, payload) },
		Failure:   func(err error) action.Action { return e.FailureAction(verb, err) },
		Propagate: e.propagate,
	}), nil
}

// Do is Start followed by Wait. Fetch errors are only returned when the
// descriptor sets PropagateFailure; otherwise they are visible in State.Error.
func (e *Endpoint[T]) Do(ctx context.Context, d action.Dispatcher, verb Verb, p Params) (any, error) {
	task, err := e.Start(ctx, d, verb, p)
	if err != nil {
		return nil, err
	}
	return task.Wait(ctx)
}

// Reduce applies a to s. Actions owned by other resources return s unchanged.
func (e *Endpoint[T]) Reduce(s State[T], a action.Action) State[T] {
	tr, ok := e.lookup[a.Type]
	if !ok {
		return s
	}
	switch tr.phase {
	case phaseRequest:
		s.Processing = true
	case phaseSuccess:
		s.Processing = false
		s.Loaded = true
		s.Error = nil
		s.Data = e.ops[tr.verb].apply(a.Payload, s.Data)
	case phaseFailure:
		s.Processing = false
		s.Loaded = true
		s.Error = failureError(a.Payload)
	case phaseClear:
		return e.initial
	}
	return s
}

func failureError(payload any) error {
	switch v := payload.(type) {
	case nil:
		return errors.New("request failed")
	case error:
		return v
	default:
		return fmt.Errorf("%v", v)
	}
}
