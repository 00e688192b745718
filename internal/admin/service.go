package admin

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/internal/apiclient"
	"github.com/angelmondragon/storefront/internal/games"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const (
	usersPath      = "/users"
	gamesPath      = "/games"
	rawgSearchPath = "/admin/rawg/search"
	rawgImportPath = "/games/from-rawg"
)

// Requester is the slice of the API client the admin endpoints need.
type Requester interface {
	GetJSON(ctx context.Context, path string, query url.Values, dest any) error
	PostJSON(ctx context.Context, path string, body, dest any) error
	Delete(ctx context.Context, path string, dest any) error
	PostMultipart(ctx context.Context, path string, fields map[string]string, files []apiclient.File, dest any) error
	PutMultipart(ctx context.Context, path string, fields map[string]string, files []apiclient.File, dest any) error
}

// Service exposes the admin-only user and catalog endpoints.
type Service interface {
	Users(ctx context.Context, page, limit int) (UserPage, error)
	DeleteUser(ctx context.Context, id string) error
	CreateGame(ctx context.Context, form GameForm) (games.Game, error)
	UpdateGame(ctx context.Context, id string, form GameForm) (games.Game, error)
	DeleteGame(ctx context.Context, id string) error
	SearchRAWG(ctx context.Context, query string) ([]RAWGGame, error)
	ImportFromRAWG(ctx context.Context, rawgID int64, steamAppID *int64) (games.Game, error)
}

type service struct {
	api Requester
}

func NewService(api Requester) (Service, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	return &service{api: api}, nil
}

func (s *service) Users(ctx context.Context, page, limit int) (UserPage, error) {
	page = pagination.NormalizePage(page)
	if limit <= 0 {
		limit = DefaultUsersLimit
	}
	limit = pagination.NormalizeLimit(limit)

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var resp usersResponse
	if err := s.api.GetJSON(ctx, usersPath, query, &resp); err != nil {
		return UserPage{}, err
	}
	users := resp.Users
	if users == nil {
		users = []User{}
	}
	pages := resp.TotalPages
	if pages == 0 {
		pages = pagination.PagesFor(resp.Total, limit)
	}
	return UserPage{
		Users: users,
		Pagination: pagination.Info{
			Total: resp.Total,
			Pages: pages,
			Page:  pagination.NormalizePage(resp.Page),
			Limit: limit,
		},
	}, nil
}

// DeleteUser removes an account. The backend cascades to the user's games and orders.
func (s *service) DeleteUser(ctx context.Context, id string) error {
	path, err := idPath(usersPath, id, "user id is required")
	if err != nil {
		return err
	}
	return s.api.Delete(ctx, path, nil)
}

func (s *service) CreateGame(ctx context.Context, form GameForm) (games.Game, error) {
	if strings.TrimSpace(form.Title) == "" {
		return games.Game{}, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	var raw games.RawGame
	if err := s.api.PostMultipart(ctx, gamesPath, form.Fields(), form.Files(), &raw); err != nil {
		return games.Game{}, err
	}
	return games.Normalize(raw), nil
}

func (s *service) UpdateGame(ctx context.Context, id string, form GameForm) (games.Game, error) {
	path, err := idPath(gamesPath, id, "game id is required")
	if err != nil {
		return games.Game{}, err
	}
	var raw games.RawGame
	if err := s.api.PutMultipart(ctx, path, form.Fields(), form.Files(), &raw); err != nil {
		return games.Game{}, err
	}
	return games.Normalize(raw), nil
}

// DeleteGame removes a listing. The backend cascades to every collection holding it.
func (s *service) DeleteGame(ctx context.Context, id string) error {
	path, err := idPath(gamesPath, id, "game id is required")
	if err != nil {
		return err
	}
	return s.api.Delete(ctx, path, nil)
}

// SearchRAWG returns no results, without a request, for queries shorter than MinRAWGQuery.
func (s *service) SearchRAWG(ctx context.Context, query string) ([]RAWGGame, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinRAWGQuery {
		return []RAWGGame{}, nil
	}
	var resp rawgSearchResponse
	if err := s.api.GetJSON(ctx, rawgSearchPath, url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return []RAWGGame{}, nil
	}
	return resp.Results, nil
}

func (s *service) ImportFromRAWG(ctx context.Context, rawgID int64, steamAppID *int64) (games.Game, error) {
	if rawgID <= 0 {
		return games.Game{}, pkgerrors.New(pkgerrors.CodeValidation, "rawg id is required")
	}
	var raw games.RawGame
	if err := s.api.PostJSON(ctx, rawgImportPath, rawgImportRequest{RAWGID: rawgID, SteamAppID: steamAppID}, &raw); err != nil {
		return games.Game{}, err
	}
	return games.Normalize(raw), nil
}

func idPath(prefix, id, missing string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, missing)
	}
	return apiclient.PathEscape(prefix, id), nil
}
