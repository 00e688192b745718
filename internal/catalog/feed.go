package catalog

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/internal/games"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/observable"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// FeedState is the accumulated catalog listing for the current parameters.
type FeedState struct {
	Params     games.CatalogParams
	Games      []games.Game
	Pagination pagination.Info
	Loading    bool
	Err        error
}

// HasNext reports whether NextPage would fetch anything.
func (s FeedState) HasNext() bool {
	return s.Pagination.HasNext()
}

type feedAction func(FeedState) FeedState

// FeedParams groups dependencies for the catalog feed.
type FeedParams struct {
	Location *Location
	Games    games.Service
	PageSize int
	Logger   *logger.Logger
}

// Feed fetches catalog pages for whatever the location currently says and
// appends further pages on demand.
type Feed struct {
	loc      *Location
	games    games.Service
	pageSize int
	logg     *logger.Logger
	state    *observable.Store[FeedState, feedAction]

	mu      sync.Mutex
	fetched *games.CatalogParams
	gen     uint64
}

func NewFeed(params FeedParams) (*Feed, error) {
	if params.Location == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog location is required")
	}
	if params.Games == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "games service is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Feed{
		loc:      params.Location,
		games:    params.Games,
		pageSize: pagination.NormalizeLimit(params.PageSize),
		logg:     logg,
		state: observable.New(FeedState{Games: []games.Game{}}, func(s FeedState, a feedAction) FeedState {
			return a(s)
		}),
	}, nil
}

func (f *Feed) State() FeedState {
	return f.state.State()
}

func (f *Feed) Subscribe(listener func(FeedState)) func() {
	return f.state.Subscribe(listener)
}

// Params derives the backend request from the current location.
func (f *Feed) Params() games.CatalogParams {
	q := Decode(f.loc.Query())
	return games.CatalogParams{
		Page:     q.Page,
		Limit:    f.pageSize,
		Search:   q.Query,
		Genre:    q.Genre,
		Platform: q.Platform,
		SortBy:   q.SortBy,
		Order:    q.Order,
	}
}

// Sync fetches when the derived parameters differ from the last fetched set.
// It reports whether a request was made.
func (f *Feed) Sync(ctx context.Context) (bool, error) {
	params := f.Params()
	f.mu.Lock()
	if f.fetched != nil && *f.fetched == params {
		f.mu.Unlock()
		return false, nil
	}
	f.mu.Unlock()
	return true, f.load(ctx, params)
}

// Refresh refetches the current parameters unconditionally.
func (f *Feed) Refresh(ctx context.Context) error {
	return f.load(ctx, f.Params())
}

func (f *Feed) load(ctx context.Context, params games.CatalogParams) error {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.fetched = &params
	f.mu.Unlock()

	f.state.Dispatch(func(s FeedState) FeedState {
		s.Params = params
		s.Loading = true
		s.Err = nil
		return s
	})
	page, err := f.games.Catalog(ctx, params)
	if !f.current(gen) {
		return err
	}
	if err != nil {
		f.mu.Lock()
		f.fetched = nil
		f.mu.Unlock()
		f.state.Dispatch(func(s FeedState) FeedState {
			s.Loading = false
			s.Err = err
			return s
		})
		return err
	}
	f.state.Dispatch(func(s FeedState) FeedState {
		return FeedState{Params: params, Games: page.Data, Pagination: page.Pagination}
	})
	return nil
}

// NextPage appends the following page. It reports false when there is none.
func (f *Feed) NextPage(ctx context.Context) (bool, error) {
	current := f.state.State()
	if current.Loading || !current.HasNext() {
		return false, nil
	}
	params := current.Params
	params.Page = current.Pagination.Next()

	f.mu.Lock()
	gen := f.gen
	f.mu.Unlock()

	f.state.Dispatch(func(s FeedState) FeedState {
		s.Loading = true
		return s
	})
	page, err := f.games.Catalog(ctx, params)
	if !f.current(gen) {
		return false, err
	}
	if err != nil {
		f.state.Dispatch(func(s FeedState) FeedState {
			s.Loading = false
			s.Err = err
			return s
		})
		return false, err
	}
	f.state.Dispatch(func(s FeedState) FeedState {
		merged := make([]games.Game, 0, len(s.Games)+len(page.Data))
		merged = append(append(merged, s.Games...), page.Data...)
		s.Games = merged
		s.Pagination = page.Pagination
		s.Loading = false
		s.Err = nil
		return s
	})
	return true, nil
}

// Watch re-syncs on every location change until the returned func is called.
// Fetch errors are logged; they are also visible on the state.
func (f *Feed) Watch(ctx context.Context) func() {
	return f.loc.Subscribe(func(string) {
		if _, err := f.Sync(ctx); err != nil {
			f.logg.Error(f.logg.WithComponent(ctx, "catalog"), "catalog fetch failed", err)
		}
	})
}

func (f *Feed) current(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen == gen
}
