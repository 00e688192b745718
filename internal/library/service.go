package library

import (
	"context"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront/internal/apiclient"
	"github.com/angelmondragon/storefront/internal/games"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const collectionPath = "/collection"

// Requester is the slice of the API client the library needs.
type Requester interface {
	GetJSON(ctx context.Context, path string, query url.Values, dest any) error
	PutJSON(ctx context.Context, path string, body, dest any) error
}

// Item is an owned game and how far the user got with it.
type Item struct {
	ID      string              `json:"id"`
	Game    games.Game          `json:"game"`
	Status  enums.LibraryStatus `json:"status"`
	Score   *float64            `json:"score,omitempty"`
	Notes   string              `json:"notes,omitempty"`
	AddedAt string              `json:"addedAt"`
}

type rawItem struct {
	MongoID string        `json:"_id"`
	ID      string        `json:"id"`
	Game    games.RawGame `json:"game"`
	Status  string        `json:"status"`
	Score   *float64      `json:"score"`
	Notes   string        `json:"notes"`
	AddedAt string        `json:"addedAt"`
}

type statusRequest struct {
	Status enums.LibraryStatus `json:"status"`
}

// Service reads and updates the purchased-games collection.
type Service interface {
	List(ctx context.Context) ([]Item, error)
	UpdateStatus(ctx context.Context, id string, status enums.LibraryStatus) (Item, error)
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

func (s *service) List(ctx context.Context) ([]Item, error) {
	var raws []rawItem
	if err := s.api.GetJSON(ctx, collectionPath, nil, &raws); err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(raws))
	for _, raw := range raws {
		out = append(out, normalize(raw))
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status enums.LibraryStatus) (Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "library item id is required")
	}
	if !status.IsValid() {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid library status").
			WithDetails(map[string]string{"status": status.String()})
	}
	var raw rawItem
	path := apiclient.PathEscape(collectionPath, id) + "/status"
	if err := s.api.PutJSON(ctx, path, statusRequest{Status: status}, &raw); err != nil {
		return Item{}, err
	}
	return normalize(raw), nil
}

// normalize reads an unknown status as backlog.
func normalize(raw rawItem) Item {
	item := Item{
		ID:      raw.MongoID,
		Game:    games.Normalize(raw.Game),
		Status:  enums.LibraryStatusBacklog,
		Score:   raw.Score,
		Notes:   raw.Notes,
		AddedAt: raw.AddedAt,
	}
	if item.ID == "" {
		item.ID = raw.ID
	}
	if status, err := enums.ParseLibraryStatus(strings.ToLower(strings.TrimSpace(raw.Status))); err == nil {
		item.Status = status
	}
	return item
}
