package games

import (
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

// Assets groups the media shown for a listing.
type Assets struct {
	Cover       string   `json:"cover"`
	Screenshots []string `json:"screenshots"`
	Videos      []string `json:"videos"`
}

// Game is the normalized catalog listing every layer above this package works with.
type Game struct {
	ID              string           `json:"id"`
	ExternalID      *int64           `json:"externalId,omitempty"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Price           decimal.Decimal  `json:"price"`
	Currency        string           `json:"currency"`
	Platform        string           `json:"platform"`
	Genre           string           `json:"genre"`
	Type            enums.GameType   `json:"type"`
	ReleaseDate     string           `json:"releaseDate"`
	Developer       string           `json:"developer"`
	Publisher       string           `json:"publisher"`
	IsOffer         bool             `json:"isOffer"`
	OfferPrice      *decimal.Decimal `json:"offerPrice,omitempty"`
	Assets          Assets           `json:"assets"`
	Score           *float64         `json:"score,omitempty"`
	MetacriticScore *int             `json:"metacriticScore,omitempty"`
}

// EffectivePrice is the offer price while an offer with a price is active, otherwise the list price.
func (g Game) EffectivePrice() decimal.Decimal {
	if g.IsOffer && g.OfferPrice != nil {
		return *g.OfferPrice
	}
	return g.Price
}

func (g Game) DisplayPrice() string {
	return money.Format(g.EffectivePrice(), g.Currency)
}

// Filters lists the facet values the catalog can be narrowed by.
type Filters struct {
	Genres    []string `json:"genres"`
	Platforms []string `json:"platforms"`
}
