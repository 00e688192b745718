package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/storefront/internal/apiclient"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminTokens struct{}

func (adminTokens) AccessToken(context.Context) string { return "admin-token" }
func (adminTokens) RefreshToken(context.Context) string { return "" }
func (adminTokens) StoreTokens(context.Context, string, string) error { return nil }
func (adminTokens) Clear(context.Context) error { return nil }

func newService(t *testing.T, router chi.Router) Service {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	client, err := apiclient.New(srv.URL+"/api", adminTokens{}, apiclient.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	svc, err := NewService(client)
	require.NoError(t, err)
	return svc
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func TestUsersPage(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		writeJSON(w, map[string]any{
			"users":      []map[string]string{{"_id": "u1", "username": "ada", "role": "admin"}},
			"total":      41,
			"page":       2,
			"totalPages": 3,
		})
	})
	svc := newService(t, router)

	page, err := svc.Users(context.Background(), 2, 0)
	require.NoError(t, err)

	require.Len(t, page.Users, 1)
	assert.True(t, page.Users[0].IsAdmin())
	assert.Equal(t, 3, page.Pagination.Pages)
	assert.Equal(t, 20, page.Pagination.Limit)
	assert.Equal(t, 3, page.Pagination.Next())
}

func TestDeleteEndpoints(t *testing.T) {
	var deleted []string
	router := chi.NewRouter()
	router.Delete("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = append(deleted, "user:"+chi.URLParam(r, "id"))
	})
	router.Delete("/api/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = append(deleted, "game:"+chi.URLParam(r, "id"))
	})
	svc := newService(t, router)

	require.NoError(t, svc.DeleteUser(context.Background(), "u1"))
	require.NoError(t, svc.DeleteGame(context.Background(), "g1"))
	assert.True(t, pkgerrors.IsCode(svc.DeleteUser(context.Background(), ""), pkgerrors.CodeValidation))

	assert.Equal(t, []string{"user:u1", "game:g1"}, deleted)
}

func TestCreateGameSendsMultipartForm(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/api/games", func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Hollow Knight", r.FormValue("title"))
		assert.Equal(t, "14.99", r.FormValue("price"))
		assert.Equal(t, "true", r.FormValue("isOffer"))
		assert.Equal(t, "9.99", r.FormValue("offerPrice"))
		assert.Equal(t, "dlc", r.FormValue("type"))
		assert.Empty(t, r.FormValue("publisher"))
		_, header, err := r.FormFile("image")
		if assert.NoError(t, err) {
			assert.Equal(t, "cover.jpg", header.Filename)
		}
		writeJSON(w, map[string]any{"_id": "g9", "title": "Hollow Knight", "price": 14.99})
	})
	svc := newService(t, router)

	offer := decimal.RequireFromString("9.99")
	game, err := svc.CreateGame(context.Background(), GameForm{
		Title:      "Hollow Knight",
		Price:      decimal.RequireFromString("14.99"),
		Type:       enums.GameTypeDLC,
		IsOffer:    true,
		OfferPrice: &offer,
		Cover:      &apiclient.File{Name: "cover.jpg", ContentType: "image/jpeg", Content: []byte("jpg")},
	})
	require.NoError(t, err)
	assert.Equal(t, "g9", game.ID)
}

func TestCreateGameRequiresTitle(t *testing.T) {
	svc := newService(t, chi.NewRouter())
	_, err := svc.CreateGame(context.Background(), GameForm{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateGame(t *testing.T) {
	router := chi.NewRouter()
	router.Put("/api/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		writeJSON(w, map[string]any{"_id": chi.URLParam(r, "id"), "title": r.FormValue("title")})
	})
	svc := newService(t, router)

	game, err := svc.UpdateGame(context.Background(), "g1", GameForm{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", game.Title)
}

func TestShortRAWGQueryIsNotSent(t *testing.T) {
	var hits atomic.Int32
	router := chi.NewRouter()
	router.Get("/api/admin/rawg/search", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "zelda", r.URL.Query().Get("query"))
		writeJSON(w, map[string]any{"results": []map[string]any{{"id": 22511, "name": "The Legend of Zelda"}}})
	})
	svc := newService(t, router)

	short, err := svc.SearchRAWG(context.Background(), " ze ")
	require.NoError(t, err)
	assert.Empty(t, short)
	assert.Zero(t, hits.Load())

	results, err := svc.SearchRAWG(context.Background(), "zelda")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(22511), results[0].ID)
	assert.Equal(t, int32(1), hits.Load())
}

func TestImportFromRAWG(t *testing.T) {
	var body map[string]any
	router := chi.NewRouter()
	router.Post("/api/games/from-rawg", func(w http.ResponseWriter, r *http.Request) {
		body = nil
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, map[string]any{"_id": "g7", "title": "Portal 2", "released": "2011-04-18"})
	})
	svc := newService(t, router)

	steam := int64(620)
	game, err := svc.ImportFromRAWG(context.Background(), 4200, &steam)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"rawgId": float64(4200), "steamAppId": float64(620)}, body)
	assert.Equal(t, "2011-04-18", game.ReleaseDate)

	_, err = svc.ImportFromRAWG(context.Background(), 4200, nil)
	require.NoError(t, err)
	assert.NotContains(t, body, "steamAppId")
}
