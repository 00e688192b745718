package wishlist

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/angelmondragon/storefront/internal/games"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/observable"
	"github.com/angelmondragon/storefront/pkg/optimistic"
)

const metricsStore = "wishlist"

// Notices shown for wishlist activity.
const (
	NoticeLoginRequired = "Please login to use wishlist"
	NoticeAdded         = "Added to wishlist"
	NoticeAddFailed     = "Failed to add to wishlist"
	NoticeRemoved       = "Removed from wishlist"
	NoticeRemoveFailed  = "Failed to remove from wishlist"
)

// State is the in-memory wishlist. It is never persisted locally.
type State struct {
	Items         []games.Game
	Loading       bool
	Authenticated bool
}

// Contains is false for every id while signed out.
func (s State) Contains(id string) bool {
	if !s.Authenticated {
		return false
	}
	return slices.ContainsFunc(s.Items, func(g games.Game) bool { return g.ID == id })
}

type action func(State) State

func reduce(state State, a action) State {
	return a(state)
}

// StoreParams groups dependencies for the wishlist store.
type StoreParams struct {
	Remote   Service
	Notifier notify.Notifier
	Metrics  *metrics.ClientMetrics
	Logger   *logger.Logger
}

// Store mirrors the remote wishlist with optimistic add and remove.
type Store struct {
	state    *observable.Store[State, action]
	remote   Service
	notifier notify.Notifier
	metrics  *metrics.ClientMetrics
	logg     *logger.Logger

	mu    sync.Mutex
	epoch uint64
	last  *optimistic.Mutation[State]
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Remote == nil {
		return nil, errors.New("wishlist remote is required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		state:    observable.New(State{Items: []games.Game{}}, reduce),
		remote:   params.Remote,
		notifier: notifier,
		metrics:  params.Metrics,
		logg:     logg,
	}, nil
}

func (s *Store) State() State {
	return s.state.State()
}

func (s *Store) Items() []games.Game {
	return append([]games.Game(nil), s.state.State().Items...)
}

func (s *Store) Loading() bool {
	return s.state.State().Loading
}

func (s *Store) Contains(id string) bool {
	return s.state.State().Contains(id)
}

func (s *Store) Subscribe(listener func(State)) func() {
	return s.state.Subscribe(listener)
}

// SetAuthenticated reacts to sign-in transitions: signing in fetches the remote
// wishlist and replaces local state, signing out empties it without a call.
func (s *Store) SetAuthenticated(ctx context.Context, authenticated bool) {
	if s.state.State().Authenticated == authenticated {
		return
	}
	epoch := s.bump()
	if !authenticated {
		s.state.Dispatch(func(State) State {
			return State{Items: []games.Game{}}
		})
		return
	}
	s.state.Dispatch(func(State) State {
		return State{Items: []games.Game{}, Authenticated: true}
	})
	s.fetch(ctx, epoch)
}

// Refetch reloads the remote wishlist while signed in.
func (s *Store) Refetch(ctx context.Context) {
	if !s.state.State().Authenticated {
		return
	}
	s.fetch(ctx, s.currentEpoch())
}

func (s *Store) fetch(ctx context.Context, epoch uint64) {
	s.state.Dispatch(func(st State) State {
		st.Loading = true
		return st
	})
	items, err := s.remote.List(ctx)
	s.state.Dispatch(func(st State) State {
		st.Loading = false
		if err == nil && s.currentEpoch() == epoch {
			st.Items = items
		}
		return st
	})
	if err != nil {
		s.logg.Error(s.logg.WithComponent(ctx, metricsStore), "fetch wishlist failed", err)
	}
}

// Add puts game on the wishlist right away and confirms it remotely. A remote
// failure restores the previous list and shows a notice; nothing is returned.
func (s *Store) Add(ctx context.Context, game games.Game) {
	if !s.state.State().Authenticated {
		s.notifier.Error(ctx, NoticeLoginRequired)
		return
	}
	if game.ID == "" || s.Contains(game.ID) {
		return
	}
	s.mutate(ctx, func(cur State) (State, bool) {
		if cur.Contains(game.ID) {
			return cur, false
		}
		items := make([]games.Game, 0, len(cur.Items)+1)
		cur.Items = append(append(items, cur.Items...), game)
		return cur, true
	}, func(ctx context.Context) error {
		return s.remote.Add(ctx, game.ID)
	}, NoticeAdded, NoticeAddFailed)
}

func (s *Store) Remove(ctx context.Context, id string) {
	if !s.state.State().Authenticated {
		s.notifier.Error(ctx, NoticeLoginRequired)
		return
	}
	if !s.Contains(id) {
		return
	}
	s.mutate(ctx, func(cur State) (State, bool) {
		if !cur.Contains(id) {
			return cur, false
		}
		cur.Items = slices.DeleteFunc(slices.Clone(cur.Items), func(g games.Game) bool { return g.ID == id })
		return cur, true
	}, func(ctx context.Context) error {
		return s.remote.Remove(ctx, id)
	}, NoticeRemoved, NoticeRemoveFailed)
}

func (s *Store) mutate(ctx context.Context, change func(State) (State, bool), remote func(context.Context) error, okNotice, failNotice string) {
	var (
		snapshot State
		applied  bool
	)
	s.state.Update(func(cur State) State {
		var next State
		next, applied = change(cur)
		if applied {
			snapshot = cur
		}
		return next
	})
	if !applied {
		return
	}

	epoch := s.currentEpoch()
	mutation := optimistic.Begin(snapshot)
	s.mu.Lock()
	s.last = mutation
	s.mu.Unlock()

	err := optimistic.Run(ctx, mutation, remote, func(prev State) {
		if s.currentEpoch() != epoch {
			return
		}
		s.state.Dispatch(func(cur State) State {
			cur.Items = prev.Items
			return cur
		})
	})
	if err != nil {
		s.metrics.IncMutation(metricsStore, metrics.MutationRollback)
		s.logg.Error(s.logg.WithComponent(ctx, metricsStore), failNotice, err)
		s.notifier.Error(ctx, failNotice)
		return
	}
	s.metrics.IncMutation(metricsStore, metrics.MutationCommit)
	s.notifier.Success(ctx, okNotice)
}

func (s *Store) bump() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

func (s *Store) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Store) lastMutation() *optimistic.Mutation[State] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
