// Package observable holds state behind a subscribe/dispatch interface.
package observable

import (
	"sync"
)

// Listener receives the state after every change.
type Listener[S any] func(S)

// Reducer derives the next state from the current one and an action.
type Reducer[S, A any] func(S, A) S

// Store is a reducer-driven state container. Listeners run outside the lock, in
// subscription order, on the goroutine that caused the change.
type Store[S, A any] struct {
	mu        sync.Mutex
	state     S
	reduce    Reducer[S, A]
	listeners map[uint64]Listener[S]
	order     []uint64
	nextID    uint64
}

func New[S, A any](initial S, reduce Reducer[S, A]) *Store[S, A] {
	return &Store[S, A]{
		state:     initial,
		reduce:    reduce,
		listeners: make(map[uint64]Listener[S]),
	}
}

// State returns the current state.
func (s *Store[S, A]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action and notifies listeners with the resulting state.
func (s *Store[S, A]) Dispatch(action A) S {
	s.mu.Lock()
	s.state = s.reduce(s.state, action)
	next := s.state
	s.mu.Unlock()

	s.notify(next)
	return next
}

// Update applies fn under the store lock. Used by owners that need read-modify-write
// semantics beyond a single action.
func (s *Store[S, A]) Update(fn func(S) S) S {
	s.mu.Lock()
	s.state = fn(s.state)
	next := s.state
	s.mu.Unlock()

	s.notify(next)
	return next
}

// Subscribe registers listener and returns a function that removes it. Calling the
// returned function more than once is safe.
func (s *Store[S, A]) Subscribe(listener Listener[S]) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			for i, candidate := range s.order {
				if candidate == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
		})
	}
}

func (s *Store[S, A]) notify(state S) {
	s.mu.Lock()
	ids := append([]uint64(nil), s.order...)
	s.mu.Unlock()

	for _, id := range ids {
		s.mu.Lock()
		listener, ok := s.listeners[id]
		s.mu.Unlock()
		if ok {
			listener(state)
		}
	}
}
