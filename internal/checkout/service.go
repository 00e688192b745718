package checkout

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const checkoutPath = "/payments/checkout"

// Poster is the slice of the API client checkout needs.
type Poster interface {
	PostJSON(ctx context.Context, path string, body, dest any) error
}

// Confirmation is the backend's answer to a purchase.
type Confirmation struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

type request struct {
	GameIDs []string `json:"gameIds"`
}

// Service buys games.
type Service interface {
	Purchase(ctx context.Context, gameIDs ...string) (Confirmation, error)
}

type service struct {
	api Poster
}

// NewService builds a checkout service with the required dependencies.
func NewService(api Poster) (Service, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	return &service{api: api}, nil
}

// Purchase checks out the given game ids in one order. Duplicate and blank ids are dropped.
// A response without success is reported as a state conflict carrying the backend message.
func (s *service) Purchase(ctx context.Context, gameIDs ...string) (Confirmation, error) {
	ids := uniqueIDs(gameIDs)
	if len(ids) == 0 {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one game id is required")
	}

	var out Confirmation
	if err := s.api.PostJSON(ctx, checkoutPath, request{GameIDs: ids}, &out); err != nil {
		return Confirmation{}, err
	}
	if !out.Success {
		msg := strings.TrimSpace(out.Message)
		if msg == "" {
			msg = "checkout was not completed"
		}
		return out, pkgerrors.FromResponse(http.StatusUnprocessableEntity, msg)
	}
	return out, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
