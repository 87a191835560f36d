package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/odlvideo/odlv/internal/action"
	"github.com/odlvideo/odlv/internal/metrics"
	"github.com/odlvideo/odlv/internal/odl"
	"github.com/odlvideo/odlv/internal/pagination"
	"github.com/odlvideo/odlv/internal/resources"
	"github.com/odlvideo/odlv/internal/rest"
	"github.com/odlvideo/odlv/internal/toast"
)

// RootState is the combined state tree. Every slice is owned by exactly one
// reducer and is replaced, never mutated, when it changes.
type RootState struct {
	Collections               rest.State[resources.CollectionMap]
	CollectionsList           rest.State[[]odl.Collection]
	Videos                    rest.State[resources.VideoMap]
	VideoSubtitles            rest.State[resources.SubtitleMap]
	VideoAnalytics            rest.State[resources.AnalyticsMap]
	EdxEndpoints              rest.State[[]odl.EdxEndpoint]
	Users                     rest.State[[]odl.User]
	PotentialCollectionOwners rest.State[[]odl.PotentialOwner]
	CollectionsPagination     pagination.State
	Toasts                    toast.State
}

// Snapshot is the state visible to readers at one point in time.
type Snapshot struct {
	State      RootState
	Version    uint64
	LastAction action.Type
	UpdatedAt  time.Time
}

// DispatchFunc is one link of the middleware chain.
type DispatchFunc func(action.Action)

// Middleware wraps dispatch. getState reads the state as it is at the moment
// of the call; it must only be used inside the returned DispatchFunc.
type Middleware func(getState func() RootState, next DispatchFunc) DispatchFunc

// Option configures a Store.
type Option func(*options)

type options struct {
	logger     *zerolog.Logger
	metrics    *metrics.Metrics
	middleware []Middleware
}

// WithLogger logs every dispatched action.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// WithMetrics counts dispatched actions and fetch transitions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMiddleware appends custom middleware, innermost last.
func WithMiddleware(m ...Middleware) Option {
	return func(o *options) { o.middleware = append(o.middleware, m...) }
}

// Store owns the root state. Dispatch is serialized so reducers never
// interleave; readers take snapshots concurrently.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	settings Settings
	reduce   func(RootState, action.Action) RootState
	dispatch DispatchFunc

	subMu       sync.Mutex
	subscribers map[int]chan struct{}
	nextSubID   int
}

// Ensure Store implements action.Dispatcher at compile time.
var _ action.Dispatcher = (*Store)(nil)

// New composes the reducers of every endpoint with the pagination and toast
// reducers. It fails when two reducers claim the same action type.
func New(settings Settings, eps *resources.Endpoints, opts ...Option) (*Store, error) {
	if eps == nil {
		return nil, fmt.Errorf("store requires resource endpoints")
	}
	if err := checkTypes(eps); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		settings:    settings.clone(),
		reduce:      rootReducer(eps),
		subscribers: make(map[int]chan struct{}),
	}
	s.snapshot.State = initialState(eps)

	var chain []Middleware
	if o.logger != nil {
		chain = append(chain, Logger(*o.logger))
	}
	if o.metrics != nil {
		chain = append(chain, Metrics(o.metrics, fetchIndex(eps)))
	}
	chain = append(chain, o.middleware...)

	getState := func() RootState { return s.snapshot.State }
	next := DispatchFunc(s.apply)
	for i := len(chain) - 1; i >= 0; i-- {
		next = chain[i](getState, next)
	}
	s.dispatch = next
	return s, nil
}

// Dispatch runs a through the middleware chain and the root reducer, then
// notifies subscribers.
func (s *Store) Dispatch(a action.Action) {
	s.mu.Lock()
	s.dispatch(a)
	s.mu.Unlock()
	s.notify()
}

// apply runs the reducer. Called with mu held.
func (s *Store) apply(a action.Action) {
	s.snapshot.State = s.reduce(s.snapshot.State, a)
	s.snapshot.Version++
	s.snapshot.LastAction = a.Type
	s.snapshot.UpdatedAt = time.Now()
}

// Snapshot returns the current snapshot. Slices and maps inside it are shared
// with the store but never mutated, so callers must treat them as read-only.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// State is shorthand for Snapshot().State.
func (s *Store) State() RootState {
	return s.Snapshot().State
}

// Settings returns the configuration the store was created with.
func (s *Store) Settings() Settings {
	return s.settings.clone()
}

// Subscribe returns a channel that receives a value after dispatches. Bursts
// coalesce into a single pending signal. Call cancel to stop receiving.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func initialState(eps *resources.Endpoints) RootState {
	return RootState{
		Collections:               eps.Collections.InitialState(),
		CollectionsList:           eps.CollectionsList.InitialState(),
		Videos:                    eps.Videos.InitialState(),
		VideoSubtitles:            eps.VideoSubtitles.InitialState(),
		VideoAnalytics:            eps.VideoAnalytics.InitialState(),
		EdxEndpoints:              eps.EdxEndpoints.InitialState(),
		Users:                     eps.Users.InitialState(),
		PotentialCollectionOwners: eps.PotentialCollectionOwners.InitialState(),
		CollectionsPagination:     pagination.InitialState(),
	}
}

func rootReducer(eps *resources.Endpoints) func(RootState, action.Action) RootState {
	return func(s RootState, a action.Action) RootState {
		s.Collections = eps.Collections.Reduce(s.Collections, a)
		s.CollectionsList = eps.CollectionsList.Reduce(s.CollectionsList, a)
		s.Videos = eps.Videos.Reduce(s.Videos, a)
		s.VideoSubtitles = eps.VideoSubtitles.Reduce(s.VideoSubtitles, a)
		s.VideoAnalytics = eps.VideoAnalytics.Reduce(s.VideoAnalytics, a)
		s.EdxEndpoints = eps.EdxEndpoints.Reduce(s.EdxEndpoints, a)
		s.Users = eps.Users.Reduce(s.Users, a)
		s.PotentialCollectionOwners = eps.PotentialCollectionOwners.Reduce(s.PotentialCollectionOwners, a)
		s.CollectionsPagination = pagination.Reduce(s.CollectionsPagination, a)
		s.Toasts = toast.Reduce(s.Toasts, a)
		return s
	}
}
