package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/games"
	"github.com/angelmondragon/storefront/internal/notify"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/optimistic"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStorage struct {
	*kv.Memory
	failSets bool
}

func (f *flakyStorage) Set(ctx context.Context, key, value string) error {
	if f.failSets {
		return errors.New("quota exceeded")
	}
	return f.Memory.Set(ctx, key, value)
}

type stubCheckout struct {
	ids  []string
	conf checkout.Confirmation
	err  error
}

func (s *stubCheckout) Purchase(_ context.Context, ids ...string) (checkout.Confirmation, error) {
	s.ids = ids
	return s.conf, s.err
}

func game(id, price string) games.Game {
	return games.Game{ID: id, Title: "Game " + id, Price: decimal.RequireFromString(price), Currency: "USD"}
}

func newCart(t *testing.T, storage kv.Store, params StoreParams) (*Store, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	params.Storage = storage
	params.Notifier = rec
	store, err := NewStore(context.Background(), params)
	require.NoError(t, err)
	return store, rec
}

func TestCountAndTotalFollowItems(t *testing.T) {
	ctx := context.Background()
	store, _ := newCart(t, kv.NewMemory(), StoreParams{})

	store.Add(ctx, game("a", "10.00"))
	store.Add(ctx, game("b", "20.00"))
	assert.Equal(t, 2, store.Count())
	assert.Equal(t, "30.00", store.State().Total().StringFixed(2))

	store.Remove(ctx, "a")
	assert.Equal(t, 1, store.Count())
	assert.Equal(t, "20.00", store.State().Total().StringFixed(2))
}

func TestAddThenRemoveRestoresCollection(t *testing.T) {
	ctx := context.Background()
	store, _ := newCart(t, kv.NewMemory(), StoreParams{})
	store.Add(ctx, game("a", "5"))
	before := store.Items()

	store.Add(ctx, game("b", "7"))
	store.Remove(ctx, "b")

	assert.Equal(t, before, store.Items())
}

func TestAddingPresentItemIsNoop(t *testing.T) {
	ctx := context.Background()
	store, rec := newCart(t, kv.NewMemory(), StoreParams{})
	store.Add(ctx, game("a", "5"))
	before := store.Items()

	notified := 0
	store.Subscribe(func(State) { notified++ })
	changed := game("a", "99")
	changed.Title = "Renamed"
	store.Add(ctx, changed)

	assert.Equal(t, before, store.Items())
	assert.Zero(t, notified)
	assert.Len(t, rec.Notices(), 1)
}

func TestPriceIsFrozenAtAddTime(t *testing.T) {
	ctx := context.Background()
	store, _ := newCart(t, kv.NewMemory(), StoreParams{})
	offer := decimal.RequireFromString("4.99")
	g := game("a", "19.99")
	g.IsOffer = true
	g.OfferPrice = &offer

	store.Add(ctx, g)
	g.Price = decimal.RequireFromString("1.00")
	g.IsOffer = false

	require.Len(t, store.Items(), 1)
	assert.Equal(t, "4.99", store.Items()[0].UnitPrice.StringFixed(2))
}

func TestCartSurvivesReload(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	first, _ := newCart(t, storage, StoreParams{})
	first.Add(ctx, game("a", "10"))
	first.Add(ctx, game("b", "20"))

	second, _ := newCart(t, storage, StoreParams{})

	assert.Equal(t, []string{"a", "b"}, second.State().IDs())
	assert.Equal(t, "30.00", second.State().Total().StringFixed(2))
}

func TestMalformedStoredCartIsEmpty(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	require.NoError(t, storage.Set(ctx, StorageKey, `{"items": oops`))

	store, _ := newCart(t, storage, StoreParams{})
	assert.Zero(t, store.Count())
}

func TestStoredDuplicatesAreCollapsed(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	require.NoError(t, storage.Set(ctx, StorageKey, `[{"id":"a","unitPrice":"1"},{"id":"a","unitPrice":"2"},{"id":""}]`))

	store, _ := newCart(t, storage, StoreParams{})
	require.Equal(t, 1, store.Count())
	assert.Equal(t, "1.00", store.Items()[0].UnitPrice.StringFixed(2))
}

func TestFailedWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	storage := &flakyStorage{Memory: kv.NewMemory()}
	store, rec := newCart(t, storage, StoreParams{})
	store.Add(ctx, game("a", "10"))
	before := store.Items()

	storage.failSets = true
	var seen []int
	store.Subscribe(func(s State) { seen = append(seen, s.Count()) })
	store.Add(ctx, game("b", "20"))

	assert.Equal(t, before, store.Items())
	assert.Equal(t, []int{2, 1}, seen, "optimistic add is visible before the rollback")
	assert.Equal(t, optimistic.RolledBack, store.lastMutation().Phase())
	notices := rec.Notices()
	assert.Equal(t, notify.Notice{Level: notify.LevelError, Message: NoticeUpdateFailed}, notices[len(notices)-1])
}

func TestSuccessfulWriteCommits(t *testing.T) {
	store, _ := newCart(t, kv.NewMemory(), StoreParams{})
	store.Add(context.Background(), game("a", "10"))
	assert.Equal(t, optimistic.Committed, store.lastMutation().Phase())
}

func TestCheckoutClearsCartOnSuccess(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	buyer := &stubCheckout{conf: checkout.Confirmation{Success: true, OrderID: "o1"}}
	store, rec := newCart(t, storage, StoreParams{Checkout: buyer})
	store.Add(ctx, game("a", "10"))
	store.Add(ctx, game("b", "20"))

	conf, err := store.Checkout(ctx)
	require.NoError(t, err)

	assert.Equal(t, "o1", conf.OrderID)
	assert.Equal(t, []string{"a", "b"}, buyer.ids)
	assert.Zero(t, store.Count())
	reloaded, _ := newCart(t, storage, StoreParams{})
	assert.Zero(t, reloaded.Count())
	notices := rec.Notices()
	assert.Equal(t, NoticePurchased, notices[len(notices)-1].Message)
}

func TestCheckoutFailureLeavesCart(t *testing.T) {
	ctx := context.Background()
	rejected := pkgerrors.New(pkgerrors.CodeStateConflict, "Game already owned")
	store, rec := newCart(t, kv.NewMemory(), StoreParams{Checkout: &stubCheckout{err: rejected}})
	store.Add(ctx, game("a", "10"))

	_, err := store.Checkout(ctx)

	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, 1, store.Count())
	notices := rec.Notices()
	assert.Equal(t, notify.Notice{Level: notify.LevelError, Message: NoticePurchaseFailed}, notices[len(notices)-1])
}

func TestCheckoutEmptyCart(t *testing.T) {
	buyer := &stubCheckout{}
	store, _ := newCart(t, kv.NewMemory(), StoreParams{Checkout: buyer})

	_, err := store.Checkout(context.Background())

	assert.ErrorIs(t, err, errEmptyCart)
	assert.Nil(t, buyer.ids)
}
