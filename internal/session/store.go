package session

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront/pkg/eventbus"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/observable"
)

// Status is where the session is in its lifecycle.
type Status int

const (
	Unauthenticated Status = iota
	Restoring
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// State is the observable session snapshot. User is nil when nobody is signed in.
type State struct {
	Status  Status
	User    *User
	Loading bool
}

// IsAuthenticated treats a session that is being revalidated with a known user as signed in.
func (s State) IsAuthenticated() bool {
	switch s.Status {
	case Authenticated:
		return s.User != nil
	case Restoring:
		return s.User != nil
	}
	return false
}

type actionKind int

const (
	actRestoring actionKind = iota
	actAuthenticated
	actUnauthenticated
	actUserUpdated
	actLoading
)

type action struct {
	kind    actionKind
	user    *User
	loading bool
}

func reduce(state State, a action) State {
	switch a.kind {
	case actRestoring:
		state.Status = Restoring
	case actAuthenticated:
		state.Status = Authenticated
		state.User = a.user
	case actUnauthenticated:
		state.Status = Unauthenticated
		state.User = nil
	case actUserUpdated:
		state.User = a.user
	case actLoading:
		state.Loading = a.loading
	}
	return state
}

// StoreParams groups dependencies for the session store.
type StoreParams struct {
	Credentials *Credentials
	Auth        AuthService
	Bus         *eventbus.Bus
	Logger      *logger.Logger
}

// Store owns the signed-in identity. It hydrates from storage on construction so a
// prior session is visible before any network round trip.
type Store struct {
	state *observable.Store[State, action]
	creds *Credentials
	auth  AuthService
	logg  *logger.Logger

	unsubscribe func()
	closeOnce   sync.Once
}

func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Credentials == nil {
		return nil, errors.New("session credentials are required")
	}
	if params.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	initial := State{Status: Unauthenticated}
	if user, ok := params.Credentials.User(ctx); ok && params.Credentials.AccessToken(ctx) != "" {
		initial = State{Status: Authenticated, User: &user}
	}

	s := &Store{
		state: observable.New(initial, reduce),
		creds: params.Credentials,
		auth:  params.Auth,
		logg:  logg,
	}
	if params.Bus != nil {
		s.unsubscribe = params.Bus.Subscribe(eventbus.TopicSessionInvalidated, s.onInvalidated)
	}
	return s, nil
}

func (s *Store) State() State {
	return s.state.State()
}

// Subscribe registers listener for every state change and returns its unsubscribe func.
func (s *Store) Subscribe(listener func(State)) func() {
	return s.state.Subscribe(listener)
}

// Restore revalidates a stored session against the profile endpoint. A failed
// revalidation keeps the stored user rather than signing out.
func (s *Store) Restore(ctx context.Context) {
	if s.creds.AccessToken(ctx) == "" {
		if err := s.creds.ClearUser(ctx); err != nil {
			s.logg.Error(ctx, "clear stored user", err)
		}
		s.state.Dispatch(action{kind: actUnauthenticated})
		return
	}

	s.state.Dispatch(action{kind: actRestoring})
	user, err := s.auth.Profile(ctx)
	if err != nil {
		s.logg.Error(ctx, "profile revalidation failed", err)
		previous := s.state.State().User
		if previous == nil || s.creds.AccessToken(ctx) == "" {
			s.state.Dispatch(action{kind: actUnauthenticated})
			return
		}
		s.state.Dispatch(action{kind: actAuthenticated, user: previous})
		return
	}
	if err := s.creds.SaveUser(ctx, user); err != nil {
		s.logg.Error(ctx, "persist revalidated user", err)
	}
	s.state.Dispatch(action{kind: actAuthenticated, user: &user})
}

// Login signs in and persists the resulting session. Errors are returned for the caller to render.
func (s *Store) Login(ctx context.Context, creds LoginCredentials) (User, error) {
	return s.authenticate(ctx, func(ctx context.Context) (AuthResponse, error) {
		return s.auth.Login(ctx, creds)
	})
}

func (s *Store) Register(ctx context.Context, creds RegisterCredentials) (User, error) {
	return s.authenticate(ctx, func(ctx context.Context) (AuthResponse, error) {
		return s.auth.Register(ctx, creds)
	})
}

func (s *Store) authenticate(ctx context.Context, call func(context.Context) (AuthResponse, error)) (User, error) {
	s.state.Dispatch(action{kind: actLoading, loading: true})
	defer s.state.Dispatch(action{kind: actLoading, loading: false})

	resp, err := call(ctx)
	if err != nil {
		return User{}, err
	}
	if err := s.creds.Save(ctx, resp); err != nil {
		return User{}, err
	}
	user := resp.User
	s.state.Dispatch(action{kind: actAuthenticated, user: &user})
	ctx = s.logg.WithUserID(ctx, user.ID)
	s.logg.Info(ctx, "signed in")
	return user, nil
}

// Logout clears the persisted session. It never calls the backend.
func (s *Store) Logout(ctx context.Context) error {
	err := s.creds.Clear(ctx)
	s.state.Dispatch(action{kind: actUnauthenticated})
	return err
}

// RefreshProfile overwrites the stored user without touching the status or loading flags.
// Failures are logged only.
func (s *Store) RefreshProfile(ctx context.Context) {
	user, err := s.auth.Profile(ctx)
	if err != nil {
		s.logg.Error(ctx, "refresh profile failed", err)
		return
	}
	if err := s.creds.SaveUser(ctx, user); err != nil {
		s.logg.Error(ctx, "persist refreshed profile", err)
	}
	if s.state.State().User != nil {
		s.state.Dispatch(action{kind: actUserUpdated, user: &user})
	}
}

// UpdateProfile sends the edited fields and stores the returned user.
func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error) {
	user, err := s.auth.UpdateProfile(ctx, update)
	if err != nil {
		return User{}, err
	}
	if err := s.creds.SaveUser(ctx, user); err != nil {
		s.logg.Error(ctx, "persist updated profile", err)
	}
	s.state.Dispatch(action{kind: actUserUpdated, user: &user})
	return user, nil
}

func (s *Store) onInvalidated(ctx context.Context, _ eventbus.Envelope) {
	if s.state.State().Status == Unauthenticated {
		return
	}
	s.state.Dispatch(action{kind: actUnauthenticated})
	s.logg.Warn(ctx, "session invalidated")
}

// Close detaches the store from the event bus.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}
