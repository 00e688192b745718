package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/games"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/observable"
	"github.com/angelmondragon/storefront/pkg/optimistic"
)

// StorageKey holds the JSON array of cart items.
const StorageKey = "game_manager_cart"

const metricsStore = "cart"

// Notices shown for cart activity.
const (
	NoticeAdded          = "Added to cart"
	NoticeRemoved        = "Removed from cart"
	NoticeUpdateFailed   = "Failed to update cart"
	NoticePurchaseFailed = "Purchase failed"
	NoticePurchased      = "Purchase successful"
)

var errEmptyCart = errors.New("cart is empty")

type replace struct {
	state State
}

func reduce(_ State, a replace) State {
	return a.state
}

// StoreParams groups dependencies for the cart store.
type StoreParams struct {
	Storage  kv.Store
	Checkout checkout.Service
	Notifier notify.Notifier
	Metrics  *metrics.ClientMetrics
	Logger   *logger.Logger
}

// Store is the anonymous-friendly cart. Every mutation is applied at once and then
// written to durable storage; a failed write restores the previous contents.
type Store struct {
	state    *observable.Store[State, replace]
	storage  kv.Store
	checkout checkout.Service
	notifier notify.Notifier
	metrics  *metrics.ClientMetrics
	logg     *logger.Logger

	mu   sync.Mutex
	last *optimistic.Mutation[State]
}

// NewStore hydrates the cart from storage. A missing or malformed value is an empty cart.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Storage == nil {
		return nil, errors.New("cart storage is required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	var items []Item
	if !kv.GetJSON(ctx, params.Storage, StorageKey, &items) {
		items = nil
	}

	return &Store{
		state:    observable.New(State{Items: dedupe(items)}, reduce),
		storage:  params.Storage,
		checkout: params.Checkout,
		notifier: notifier,
		metrics:  params.Metrics,
		logg:     logg,
	}, nil
}

func (s *Store) State() State {
	return s.state.State()
}

func (s *Store) Items() []Item {
	return append([]Item(nil), s.state.State().Items...)
}

func (s *Store) Count() int {
	return s.state.State().Count()
}

func (s *Store) Contains(id string) bool {
	return s.state.State().Contains(id)
}

func (s *Store) Subscribe(listener func(State)) func() {
	return s.state.Subscribe(listener)
}

// Add puts game in the cart at its current effective price. Adding an id already
// in the cart does nothing.
func (s *Store) Add(ctx context.Context, game games.Game) {
	item := ItemFromGame(game)
	if strings.TrimSpace(item.ID) == "" || s.Contains(item.ID) {
		return
	}
	s.mutate(ctx, NoticeAdded, func(cur State) (State, bool) {
		if cur.Contains(item.ID) {
			return cur, false
		}
		return cur.with(item), true
	})
}

func (s *Store) Remove(ctx context.Context, id string) {
	if !s.Contains(id) {
		return
	}
	s.mutate(ctx, NoticeRemoved, func(cur State) (State, bool) {
		if !cur.Contains(id) {
			return cur, false
		}
		return cur.without(id), true
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	if s.Count() == 0 {
		return
	}
	s.mutate(ctx, "", func(cur State) (State, bool) {
		return State{Items: []Item{}}, cur.Count() > 0
	})
}

// mutate applies change optimistically, persists the result and rolls back if the
// write fails. Failures are reported through the notifier, not returned.
func (s *Store) mutate(ctx context.Context, successNotice string, change func(State) (State, bool)) {
	var (
		snapshot State
		next     State
		applied  bool
	)
	s.state.Update(func(cur State) State {
		next, applied = change(cur)
		if applied {
			snapshot = cur
		}
		return next
	})
	if !applied {
		return
	}

	mutation := optimistic.Begin(snapshot)
	s.mu.Lock()
	s.last = mutation
	s.mu.Unlock()

	err := optimistic.Run(ctx, mutation, func(ctx context.Context) error {
		return kv.SetJSON(ctx, s.storage, StorageKey, next.Items)
	}, func(prev State) {
		s.state.Dispatch(replace{state: prev})
	})
	if err != nil {
		s.metrics.IncMutation(metricsStore, metrics.MutationRollback)
		s.logg.Error(s.logg.WithComponent(ctx, metricsStore), "cart write failed", err)
		s.notifier.Error(ctx, NoticeUpdateFailed)
		return
	}
	s.metrics.IncMutation(metricsStore, metrics.MutationCommit)
	if successNotice != "" {
		s.notifier.Success(ctx, successNotice)
	}
}

// Checkout buys everything in the cart as one order. On success the cart is
// emptied; on failure it is left untouched and the error is returned.
func (s *Store) Checkout(ctx context.Context) (checkout.Confirmation, error) {
	if s.checkout == nil {
		return checkout.Confirmation{}, errors.New("checkout is not configured")
	}
	ids := s.State().IDs()
	if len(ids) == 0 {
		return checkout.Confirmation{}, errEmptyCart
	}
	conf, err := s.checkout.Purchase(ctx, ids...)
	if err != nil {
		s.notifier.Error(ctx, NoticePurchaseFailed)
		return conf, err
	}
	s.Clear(ctx)
	s.notifier.Success(ctx, NoticePurchased)
	return conf, nil
}

func (s *Store) lastMutation() *optimistic.Mutation[State] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
