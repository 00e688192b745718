package wishlist

import (
	"context"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront/internal/apiclient"
	"github.com/angelmondragon/storefront/internal/games"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const basePath = "/users/wishlist"

// Requester is the slice of the API client the wishlist endpoints need.
type Requester interface {
	GetJSON(ctx context.Context, path string, query url.Values, dest any) error
	PostJSON(ctx context.Context, path string, body, dest any) error
	Delete(ctx context.Context, path string, dest any) error
}

// Service exposes the signed-in user's remote wishlist.
type Service interface {
	List(ctx context.Context) ([]games.Game, error)
	Add(ctx context.Context, gameID string) error
	Remove(ctx context.Context, gameID string) error
}

type listResponse struct {
	Wishlist []games.RawGame `json:"wishlist"`
}

type service struct {
	api Requester
}

// NewService builds a wishlist service with the required dependencies.
func NewService(api Requester) (Service, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	return &service{api: api}, nil
}

func (s *service) List(ctx context.Context) ([]games.Game, error) {
	var resp listResponse
	if err := s.api.GetJSON(ctx, basePath, nil, &resp); err != nil {
		return nil, err
	}
	return games.NormalizeAll(resp.Wishlist), nil
}

// Add records the game remotely. The backend answers with bare ids, which are ignored.
func (s *service) Add(ctx context.Context, gameID string) error {
	path, err := itemPath(gameID)
	if err != nil {
		return err
	}
	return s.api.PostJSON(ctx, path, nil, nil)
}

func (s *service) Remove(ctx context.Context, gameID string) error {
	path, err := itemPath(gameID)
	if err != nil {
		return err
	}
	return s.api.Delete(ctx, path, nil)
}

func itemPath(gameID string) (string, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	return apiclient.PathEscape(basePath, gameID), nil
}
