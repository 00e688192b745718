// Package optimistic models one optimistic update as a small state machine:
// pending(snapshot) settles exactly once into committed or rolledBack(snapshot).
package optimistic

import (
	"context"
	"errors"
	"sync"
)

type Phase int

const (
	Pending Phase = iota
	Committed
	RolledBack
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// ErrSettled is returned when a mutation that already settled is settled again.
var ErrSettled = errors.New("optimistic: mutation already settled")

// Mutation holds the state captured before an optimistic change.
type Mutation[S any] struct {
	mu       sync.Mutex
	phase    Phase
	snapshot S
}

// Begin captures snapshot and starts a pending mutation.
func Begin[S any](snapshot S) *Mutation[S] {
	return &Mutation[S]{phase: Pending, snapshot: snapshot}
}

func (m *Mutation[S]) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Snapshot returns the state captured by Begin.
func (m *Mutation[S]) Snapshot() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// Commit keeps the optimistic state.
func (m *Mutation[S]) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != Pending {
		return ErrSettled
	}
	m.phase = Committed
	return nil
}

// Rollback settles the mutation and returns the snapshot to restore.
func (m *Mutation[S]) Rollback() (S, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != Pending {
		var zero S
		return zero, ErrSettled
	}
	m.phase = RolledBack
	return m.snapshot, nil
}

// Run drives a mutation whose optimistic state is already visible: it calls remote,
// commits on success, and on failure hands the snapshot to restore. The remote error
// is returned so the caller can report it; the mutation is settled either way.
func Run[S any](ctx context.Context, mutation *Mutation[S], remote func(context.Context) error, restore func(S)) error {
	remoteErr := remote(ctx)
	if remoteErr == nil {
		if err := mutation.Commit(); err != nil {
			return err
		}
		return nil
	}
	snapshot, err := mutation.Rollback()
	if err != nil {
		return errors.Join(remoteErr, err)
	}
	restore(snapshot)
	return remoteErr
}
