package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/internal/app"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeBackend struct {
	mu           sync.Mutex
	catalogQuery string
	checkoutIDs  []string
}

func (f *fakeBackend) lastCatalogQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalogQuery
}

func (f *fakeBackend) purchased() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkoutIDs
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var hades = map[string]any{"_id": "g1", "title": "Hades", "price": 25, "genre": "RPG", "platform": "PC"}

func newFakeBackend(t *testing.T) (*httptest.Server, *fakeBackend) {
	t.Helper()
	f := &fakeBackend{}
	r := chi.NewRouter()
	r.Post("/users/login", func(w http.ResponseWriter, _ *http.Request) {
		token, err := auth.MintAccessToken(testSecret, time.Now(), 15*time.Minute, "u1", enums.UserRoleUser)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":        token,
			"refreshToken": "refresh-1",
			"user":         map[string]any{"_id": "u1", "username": "ana", "email": "ana@example.com", "role": "user"},
		})
	})
	r.Get("/public/games", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.catalogQuery = r.URL.RawQuery
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"games":      []map[string]any{hades},
			"total":      1,
			"totalPages": 1,
			"page":       1,
		})
	})
	r.Get("/public/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "g1" {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "game not found"})
			return
		}
		writeJSON(w, http.StatusOK, hades)
	})
	r.Post("/payments/checkout", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameIDs []string `json:"gameIds"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.checkoutIDs = body.GameIDs
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "orderId": "o1"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, f
}

func newTestApp(t *testing.T, baseURL string) *app.App {
	t.Helper()
	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		Storage: config.StorageConfig{Driver: config.StorageDriverMemory},
		Catalog: config.CatalogConfig{SearchDebounce: 500 * time.Millisecond, PageSize: 12},
	}
	a, err := app.New(context.Background(), cfg, nil, app.WithStorage(kv.NewMemory()), app.WithNotifier(&notify.Recorder{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func runCmd(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), a, args, &out)
	return out.String(), err
}

func TestRunWithoutArgsPrintsUsage(t *testing.T) {
	srv, _ := newFakeBackend(t)
	out, err := runCmd(t, newTestApp(t, srv.URL))
	if !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	assert.Contains(t, out, "usage: storefront")
	assert.Contains(t, out, "wishlist")
}

func TestUnknownCommand(t *testing.T) {
	srv, _ := newFakeBackend(t)
	_, err := runCmd(t, newTestApp(t, srv.URL), "teleport")
	if !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	assert.Equal(t, 2, exitCode(err))
}

func TestLoginWhoamiLogout(t *testing.T) {
	srv, _ := newFakeBackend(t)
	a := newTestApp(t, srv.URL)

	out, err := runCmd(t, a, "login", "-email", "ana@example.com", "-password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as ana")

	out, err = runCmd(t, a, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ana <ana@example.com>")
	assert.Contains(t, out, "role: user")
	assert.Contains(t, out, "token: expires in")

	_, err = runCmd(t, a, "logout")
	require.NoError(t, err)
	out, err = runCmd(t, a, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "not signed in\n", out)
}

func TestLoginValidationErrorKeepsDetails(t *testing.T) {
	srv, _ := newFakeBackend(t)
	_, err := runCmd(t, newTestApp(t, srv.URL), "login", "-email", "not-an-email", "-password", "x")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "email")
}

func TestCatalogFlagsDriveLocation(t *testing.T) {
	srv, backend := newFakeBackend(t)
	a := newTestApp(t, srv.URL)

	out, err := runCmd(t, a, "catalog", "-genre", "RPG", "-sort", "price", "-order", "asc")
	require.NoError(t, err)

	assert.Contains(t, out, "Hades")
	assert.Contains(t, out, "$25.00")
	assert.Contains(t, out, "?genre=RPG&order=asc&page=1&sortBy=price")
	query := backend.lastCatalogQuery()
	assert.Contains(t, query, "genre=RPG")
	assert.Contains(t, query, "sortBy=price")
	assert.Contains(t, query, "order=asc")
	assert.Contains(t, query, "page=1")
}

func TestCatalogWatchRefetchesSettledSearch(t *testing.T) {
	srv, backend := newFakeBackend(t)
	a := newTestApp(t, srv.URL)
	stdin = strings.NewReader("ce\ncel\n")
	t.Cleanup(func() { stdin = os.Stdin })

	out, err := runCmd(t, a, "catalog", "-watch")
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "Hades"), out)
	assert.Contains(t, out, "-- ?page=1&query=cel")
	assert.Contains(t, backend.lastCatalogQuery(), "search=cel")
	assert.Equal(t, "page=1&query=cel", a.Location.String())
}

func TestCatalogRejectsUnknownSort(t *testing.T) {
	srv, _ := newFakeBackend(t)
	_, err := runCmd(t, newTestApp(t, srv.URL), "catalog", "-sort", "rating")
	if !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestCartAddAndCheckout(t *testing.T) {
	srv, backend := newFakeBackend(t)
	a := newTestApp(t, srv.URL)

	out, err := runCmd(t, a, "cart", "add", "g1")
	require.NoError(t, err)
	assert.Contains(t, out, "Hades")
	assert.Contains(t, out, "1 items")

	out, err = runCmd(t, a, "cart", "checkout")
	require.NoError(t, err)
	assert.Equal(t, "order o1 confirmed\n", out)
	assert.Equal(t, []string{"g1"}, backend.purchased())

	out, err = runCmd(t, a, "cart")
	require.NoError(t, err)
	assert.Equal(t, "cart is empty\n", out)
}

func TestCartAddUnknownGameFails(t *testing.T) {
	srv, _ := newFakeBackend(t)
	a := newTestApp(t, srv.URL)

	_, err := runCmd(t, a, "cart", "add", "nope")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	assert.Equal(t, 0, a.Cart.Count())
}

func TestWishlistRequiresLogin(t *testing.T) {
	srv, _ := newFakeBackend(t)
	_, err := runCmd(t, newTestApp(t, srv.URL), "wishlist")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)
	assert.Equal(t, 3, exitCode(err))
}
