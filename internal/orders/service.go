package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"sort"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

const ordersPath = "/payments/orders"

// Getter is the slice of the API client the order history needs.
type Getter interface {
	GetJSON(ctx context.Context, path string, query url.Values, dest any) error
}

// Item is one purchased game inside an order.
type Item struct {
	GameID     string          `json:"gameId"`
	Title      string          `json:"title"`
	LicenseKey string          `json:"licenseKey"`
	Price      decimal.Decimal `json:"price"`
}

// Order is a completed purchase.
type Order struct {
	ID          string          `json:"id"`
	CreatedAt   string          `json:"createdAt"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
	Items       []Item          `json:"items"`
}

func (o Order) DisplayTotal() string {
	return money.Format(o.TotalAmount, o.Currency)
}

type rawOrder struct {
	MongoID     string           `json:"_id"`
	ID          string           `json:"id"`
	CreatedAt   string           `json:"createdAt"`
	TotalAmount *decimal.Decimal `json:"totalAmount"`
	Currency    string           `json:"currency"`
	Items       []rawItem        `json:"items"`
}

// rawItem.Game is either a bare id or a populated game document.
type rawItem struct {
	Game       json.RawMessage  `json:"game"`
	GameID     string           `json:"gameId"`
	Title      string           `json:"title"`
	LicenseKey string           `json:"licenseKey"`
	Price      *decimal.Decimal `json:"price"`
}

// Service reads the signed-in user's order history.
type Service interface {
	List(ctx context.Context) ([]Order, error)
}

type service struct {
	api Getter
}

func NewService(api Getter) (Service, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	return &service{api: api}, nil
}

// List returns orders newest first.
func (s *service) List(ctx context.Context) ([]Order, error) {
	var body json.RawMessage
	if err := s.api.GetJSON(ctx, ordersPath, nil, &body); err != nil {
		return nil, err
	}
	raws, err := decodeOrders(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode orders")
	}
	out := make([]Order, 0, len(raws))
	for _, raw := range raws {
		out = append(out, normalize(raw))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// decodeOrders accepts a bare array or an {"orders": [...]} envelope.
func decodeOrders(body json.RawMessage) ([]rawOrder, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []rawOrder
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}
	var envelope struct {
		Orders []rawOrder `json:"orders"`
	}
	err := json.Unmarshal(trimmed, &envelope)
	return envelope.Orders, err
}

func normalize(raw rawOrder) Order {
	order := Order{
		ID:        raw.MongoID,
		CreatedAt: raw.CreatedAt,
		Currency:  money.NormalizeCurrency(raw.Currency),
		Items:     make([]Item, 0, len(raw.Items)),
	}
	if order.ID == "" {
		order.ID = raw.ID
	}
	sum := decimal.Zero
	for _, item := range raw.Items {
		normalized := normalizeItem(item)
		sum = sum.Add(normalized.Price)
		order.Items = append(order.Items, normalized)
	}
	if raw.TotalAmount != nil {
		order.TotalAmount = *raw.TotalAmount
	} else {
		order.TotalAmount = sum
	}
	return order
}

func normalizeItem(raw rawItem) Item {
	item := Item{GameID: raw.GameID, Title: raw.Title, LicenseKey: raw.LicenseKey}
	if raw.Price != nil {
		item.Price = *raw.Price
	}
	if len(raw.Game) > 0 {
		var id string
		if json.Unmarshal(raw.Game, &id) == nil {
			if item.GameID == "" {
				item.GameID = id
			}
		} else {
			var game struct {
				MongoID string `json:"_id"`
				ID      string `json:"id"`
				Title   string `json:"title"`
			}
			if json.Unmarshal(raw.Game, &game) == nil {
				if item.GameID == "" {
					item.GameID = firstNonEmpty(game.MongoID, game.ID)
				}
				if item.Title == "" {
					item.Title = game.Title
				}
			}
		}
	}
	if item.Title == "" {
		item.Title = "Untitled"
	}
	return item
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
