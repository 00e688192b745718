package cart

import (
	"slices"

	"github.com/angelmondragon/storefront/internal/games"
	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

// Item is one game in the cart. UnitPrice is frozen when the game is added.
type Item struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Currency  string          `json:"currency"`
	CoverURL  string          `json:"coverUrl,omitempty"`
}

// ItemFromGame resolves the price the cart keeps for game.
func ItemFromGame(game games.Game) Item {
	return Item{
		ID:        game.ID,
		Title:     game.Title,
		UnitPrice: game.EffectivePrice(),
		Currency:  money.NormalizeCurrency(game.Currency),
		CoverURL:  game.Assets.Cover,
	}
}

// State is the cart contents. Items is never mutated in place.
type State struct {
	Items []Item
}

func (s State) Count() int {
	return len(s.Items)
}

// Total sums every unit price; each id counts once.
func (s State) Total() decimal.Decimal {
	prices := make([]decimal.Decimal, 0, len(s.Items))
	for _, item := range s.Items {
		prices = append(prices, item.UnitPrice)
	}
	return money.Sum(prices...)
}

func (s State) Contains(id string) bool {
	return s.index(id) >= 0
}

// IDs lists item ids in cart order.
func (s State) IDs() []string {
	ids := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (s State) index(id string) int {
	return slices.IndexFunc(s.Items, func(item Item) bool { return item.ID == id })
}

func (s State) with(item Item) State {
	items := make([]Item, 0, len(s.Items)+1)
	items = append(items, s.Items...)
	return State{Items: append(items, item)}
}

func (s State) without(id string) State {
	items := make([]Item, 0, len(s.Items))
	for _, item := range s.Items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	return State{Items: items}
}

// dedupe drops blank ids and repeats, keeping first occurrences.
func dedupe(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
