package games

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/internal/apiclient"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const (
	catalogPath = "/public/games"
	filtersPath = "/public/games/filters"
)

// Getter is the slice of the API client the read-only services need.
type Getter interface {
	GetJSON(ctx context.Context, path string, query url.Values, dest any) error
}

// CatalogParams narrows one catalog page request. Zero values are omitted from the query.
type CatalogParams struct {
	Page     int
	Limit    int
	Search   string
	Genre    string
	Platform string
	SortBy   enums.SortField
	Order    enums.SortOrder
}

// Query encodes the params as backend query parameters.
func (p CatalogParams) Query() url.Values {
	query := url.Values{}
	query.Set("page", strconv.Itoa(pagination.NormalizePage(p.Page)))
	query.Set("limit", strconv.Itoa(pagination.NormalizeLimit(p.Limit)))
	setIf(query, "search", p.Search)
	setIf(query, "genre", p.Genre)
	setIf(query, "platform", p.Platform)
	setIf(query, "sortBy", p.SortBy.String())
	setIf(query, "order", p.Order.String())
	return query
}

// Page is one normalized page of catalog results.
type Page struct {
	Data       []Game          `json:"data"`
	Pagination pagination.Info `json:"pagination"`
}

type catalogResponse struct {
	Games      []RawGame `json:"games"`
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
	Page       int       `json:"page"`
}

type filtersResponse struct {
	Genres    []string `json:"genres"`
	Platforms []string `json:"platforms"`
}

// ServiceParams groups dependencies for the games service.
type ServiceParams struct {
	API Getter
}

// Service exposes the public catalog endpoints.
type Service interface {
	Catalog(ctx context.Context, params CatalogParams) (Page, error)
	Game(ctx context.Context, id string) (Game, error)
	Filters(ctx context.Context) (Filters, error)
}

type service struct {
	api Getter
}

// NewService builds a games service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	return &service{api: params.API}, nil
}

// Catalog fetches one page and maps the backend envelope onto Page.
func (s *service) Catalog(ctx context.Context, params CatalogParams) (Page, error) {
	var resp catalogResponse
	if err := s.api.GetJSON(ctx, catalogPath, params.Query(), &resp); err != nil {
		return Page{}, err
	}
	return Page{
		Data: NormalizeAll(resp.Games),
		Pagination: pagination.Info{
			Total: resp.Total,
			Pages: resp.TotalPages,
			Page:  pagination.NormalizePage(resp.Page),
			Limit: pagination.NormalizeLimit(params.Limit),
		},
	}, nil
}

func (s *service) Game(ctx context.Context, id string) (Game, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Game{}, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	var raw RawGame
	if err := s.api.GetJSON(ctx, apiclient.PathEscape(catalogPath, id), nil, &raw); err != nil {
		return Game{}, err
	}
	return Normalize(raw), nil
}

// Filters returns the distinct non-empty genres and platforms in backend order.
func (s *service) Filters(ctx context.Context) (Filters, error) {
	var resp filtersResponse
	if err := s.api.GetJSON(ctx, filtersPath, nil, &resp); err != nil {
		return Filters{}, err
	}
	return Filters{
		Genres:    distinct(resp.Genres),
		Platforms: distinct(resp.Platforms),
	}, nil
}

func setIf(query url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		query.Set(key, value)
	}
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
