package statesync

import (
	"reflect"
	"sync"
)

// Selector projects the slice of state a subscriber cares about.
type Selector func(State) any

// Equal compares two selected projections. Structural comparison matters
// here: list fields are routinely replaced with new-but-equal slices and must
// not count as changes.
type Equal func(prev, next any) bool

// Callback receives the newly selected projection after a genuine change.
type Callback func(selected any)

// DeepEqual is the default Equal, a structural comparison via reflection.
func DeepEqual(prev, next any) bool {
	return reflect.DeepEqual(prev, next)
}

type subscription struct {
	id       uint64
	selector Selector
	equal    Equal
	callback Callback
	last     any
}

// Store holds the session state and fans mutations out to subscribers. It is
// safe for use from multiple goroutines; notifications run synchronously
// under the mutating call, in subscription order, exactly once per logical
// change.
//
// Subscriber contract: callbacks must not mutate the store. Reentrant
// mutation from inside a notification is not linearized and is a programming
// error on the subscriber's side.
type Store struct {
	// notifyMu serializes whole mutation+notification passes so concurrent
	// writers cannot interleave their callback fan-outs.
	notifyMu sync.Mutex

	mu     sync.Mutex
	state  State
	subs   []*subscription
	nextID uint64
	logger SyncLogger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger attaches a logger for ignored writes and watch failures.
func WithStoreLogger(logger SyncLogger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore constructs a Store holding the default state.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		state:  DefaultState(),
		logger: noopSyncLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns a copy of the current state. The copy shares no mutable memory
// with the store, so callers can hold it across further mutations.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SetField replaces one named field. Unknown names and mis-typed values are
// ignored and logged rather than treated as fatal, tolerating version drift
// between UI collaborators and the store.
func (s *Store) SetField(name string, value any) {
	spec, ok := lookupField(name)
	if !ok {
		s.logger.LogSync(SyncLogEvent{Op: OpFieldIgnored, Detail: name})
		return
	}
	s.mutate(func(state *State) bool {
		before := state.Clone()
		if !spec.apply(state, value) {
			s.logger.LogSync(SyncLogEvent{Op: OpFieldIgnored, Detail: name})
			return false
		}
		return !reflect.DeepEqual(before, *state)
	})
}

// BulkUpdate merges the provided fields into the state in one notification
// cycle. Nil patch fields are untouched; this is the hydration entry point.
func (s *Store) BulkUpdate(patch Patch) {
	if patch.IsZero() {
		return
	}
	s.mutate(func(state *State) bool {
		return patch.applyTo(state)
	})
}

// Subscribe registers a callback invoked when equal reports the selected
// projection changed. A nil equal defaults to structural comparison. The
// returned function removes the subscription.
func (s *Store) Subscribe(selector Selector, callback Callback, equal Equal) func() {
	if selector == nil || callback == nil {
		return func() {}
	}
	if equal == nil {
		equal = DeepEqual
	}
	s.mu.Lock()
	s.nextID++
	sub := &subscription{
		id:       s.nextID,
		selector: selector,
		equal:    equal,
		callback: callback,
		last:     selector(s.state.Clone()),
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	id := sub.id
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, candidate := range s.subs {
			if candidate.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) mutate(apply func(*State) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := apply(&s.state)
	snapshot := s.state.Clone()
	subs := append([]*subscription(nil), s.subs...)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, sub := range subs {
		next := sub.selector(snapshot)
		if sub.equal(sub.last, next) {
			continue
		}
		sub.last = next
		sub.callback(next)
	}
}
