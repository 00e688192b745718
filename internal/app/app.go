// Package app wires configuration, storage, transport and stores into one
// storefront client with a defined lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/storefront/internal/admin"
	"github.com/angelmondragon/storefront/internal/apiclient"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/games"
	"github.com/angelmondragon/storefront/internal/library"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/debounce"
	"github.com/angelmondragon/storefront/pkg/eventbus"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/kv/badgerkv"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/security"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// App is the assembled client. Fields are ready to use after New returns.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Storage  kv.Store
	Bus      *eventbus.Bus
	Registry *prometheus.Registry
	Metrics  *metrics.ClientMetrics
	Notifier notify.Notifier

	Credentials *session.Credentials
	API         *apiclient.Client
	Auth        session.AuthService
	Session     *session.Store

	Games    games.Service
	Checkout checkout.Service
	Cart     *cart.Store
	Wishlist *wishlist.Store
	Orders   orders.Service
	Library  library.Service
	Admin    admin.Service

	Location *catalog.Location
	Controls *catalog.Controls
	Feed     *catalog.Feed

	closers []func() error
}

type options struct {
	storage      kv.Store
	httpClient   *http.Client
	notifier     notify.Notifier
	clock        debounce.Clock
	catalogQuery string
	transport    eventbus.Transport
}

// Option overrides a collaborator New would otherwise build from config.
type Option func(*options)

// WithStorage uses store instead of opening the configured driver. The app
// still closes it.
func WithStorage(store kv.Store) Option {
	return func(o *options) { o.storage = store }
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithClock sets the clock driving the search debouncer.
func WithClock(clock debounce.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithCatalogQuery seeds the catalog location, e.g. "genre=RPG&page=2".
func WithCatalogQuery(rawQuery string) Option {
	return func(o *options) { o.catalogQuery = rawQuery }
}

// WithEventTransport bridges session events over transport instead of dialing NATS.
func WithEventTransport(transport eventbus.Transport) Option {
	return func(o *options) { o.transport = transport }
}

// New builds every component. On error, anything already opened is closed.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts ...Option) (_ *App, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	a := &App{Config: cfg, Logger: logg}
	defer func() {
		if err != nil {
			if closeErr := a.Close(); closeErr != nil {
				logg.Error(ctx, "closing partially built app", closeErr)
			}
		}
	}()

	store := o.storage
	if store == nil {
		if store, err = OpenStorage(ctx, cfg, logg); err != nil {
			return nil, err
		}
	}
	a.closers = append(a.closers, store.Close)
	if cfg.Storage.Sealed() {
		sealed, sealErr := kv.NewSealed(ctx, store, cfg.Storage.Passphrase, security.ParamsFromConfig(cfg.Storage))
		if sealErr != nil {
			return nil, fmt.Errorf("seal storage: %w", sealErr)
		}
		store = sealed
	}
	a.Storage = store

	a.Bus = eventbus.New(logg)
	if err = a.bridgeEvents(ctx, o.transport); err != nil {
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Metrics = metrics.NewClientMetrics(a.Registry)
	a.Notifier = o.notifier
	if a.Notifier == nil {
		a.Notifier = notify.NewLogNotifier(logg)
	}

	if a.Credentials, err = session.NewCredentials(store); err != nil {
		return nil, err
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}
	a.API, err = apiclient.New(cfg.API.BaseURL, a.Credentials,
		apiclient.WithHTTPClient(httpClient),
		apiclient.WithLogger(logg),
		apiclient.WithMetrics(a.Metrics),
		apiclient.WithEventBus(a.Bus),
		apiclient.WithRefreshPath(cfg.API.RefreshPath),
		apiclient.WithUserAgent(cfg.API.UserAgent),
	)
	if err != nil {
		return nil, err
	}

	if err = a.buildServices(); err != nil {
		return nil, err
	}
	if err = a.buildStores(ctx); err != nil {
		return nil, err
	}

	a.Location = catalog.NewLocation(o.catalogQuery)
	a.Controls = catalog.NewControls(a.Location, cfg.Catalog.SearchDebounce, o.clock)
	a.closers = append(a.closers, func() error {
		a.Controls.Close()
		return nil
	})
	a.Feed, err = catalog.NewFeed(catalog.FeedParams{
		Location: a.Location,
		Games:    a.Games,
		PageSize: cfg.Catalog.PageSize,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// OpenStorage opens the configured durable store.
func OpenStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (kv.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		return kv.NewMemory(), nil
	case config.StorageDriverSQLite:
		client, err := db.New(ctx, cfg.Storage.DSN, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.StorageDriverBadger, "":
		store, err := badgerkv.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (a *App) bridgeEvents(ctx context.Context, transport eventbus.Transport) error {
	if transport == nil {
		if !a.Config.Events.Enabled() {
			return nil
		}
		dialed, err := eventbus.DialNATS(a.Config.Events.NATSURL)
		if err != nil {
			return err
		}
		transport = dialed
	}
	bridge := eventbus.NewNATSBridge(a.Bus, transport, a.Config.Events.NATSSubject, a.Logger)
	if err := bridge.Start(ctx); err != nil {
		transport.Close()
		return err
	}
	a.closers = append(a.closers, bridge.Close)
	return nil
}

func (a *App) buildServices() error {
	var err error
	if a.Auth, err = session.NewAuthService(a.API); err != nil {
		return err
	}
	if a.Games, err = games.NewService(games.ServiceParams{API: a.API}); err != nil {
		return err
	}
	if a.Checkout, err = checkout.NewService(a.API); err != nil {
		return err
	}
	if a.Orders, err = orders.NewService(a.API); err != nil {
		return err
	}
	if a.Library, err = library.NewService(a.API); err != nil {
		return err
	}
	a.Admin, err = admin.NewService(a.API)
	return err
}

func (a *App) buildStores(ctx context.Context) error {
	var err error
	a.Session, err = session.NewStore(ctx, session.StoreParams{
		Credentials: a.Credentials,
		Auth:        a.Auth,
		Bus:         a.Bus,
		Logger:      a.Logger,
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		a.Session.Close()
		return nil
	})

	a.Cart, err = cart.NewStore(ctx, cart.StoreParams{
		Storage:  a.Storage,
		Checkout: a.Checkout,
		Notifier: a.Notifier,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	})
	if err != nil {
		return err
	}

	remote, err := wishlist.NewService(a.API)
	if err != nil {
		return err
	}
	a.Wishlist, err = wishlist.NewStore(wishlist.StoreParams{
		Remote:   remote,
		Notifier: a.Notifier,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	})
	if err != nil {
		return err
	}
	// listeners outlive the constructor's context
	listenCtx := context.WithoutCancel(ctx)
	unsubscribe := a.Session.Subscribe(func(state session.State) {
		a.Wishlist.SetAuthenticated(listenCtx, state.IsAuthenticated())
	})
	a.closers = append(a.closers, func() error {
		unsubscribe()
		return nil
	})
	return nil
}

// SyncWishlist aligns the wishlist with the current session, fetching it when
// signed in. Later session changes are followed automatically.
func (a *App) SyncWishlist(ctx context.Context) {
	a.Wishlist.SetAuthenticated(ctx, a.Session.State().IsAuthenticated())
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
