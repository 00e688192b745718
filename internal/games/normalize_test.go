package games

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSynthesizesPlaceholderAssets(t *testing.T) {
	game := Decode(json.RawMessage(`{"_id":"g1","title":"Hades"}`))

	assert.Equal(t, PlaceholderCover, game.Assets.Cover)
	assert.NotNil(t, game.Assets.Screenshots)
	assert.Empty(t, game.Assets.Screenshots)
	assert.Empty(t, game.Assets.Videos)
}

func TestNormalizeAppliesFallbacks(t *testing.T) {
	game := Normalize(RawGame{})

	assert.Equal(t, UntitledTitle, game.Title)
	assert.Equal(t, UnknownValue, game.Platform)
	assert.Equal(t, UnknownValue, game.Genre)
	assert.Equal(t, UnknownValue, game.Developer)
	assert.Equal(t, UnknownValue, game.Publisher)
	assert.Equal(t, "", game.Description)
	assert.Equal(t, "USD", game.Currency)
	assert.Equal(t, enums.GameTypeGame, game.Type)
	assert.True(t, game.Price.IsZero())
	assert.False(t, game.IsOffer)
}

func TestNormalizeResolvesFieldDrift(t *testing.T) {
	raw := `{
		"id": "g2",
		"title": "Celeste",
		"price": 19.99,
		"currency": "eur",
		"type": "DLC",
		"released": "2018-01-25",
		"releaseDate": "1999-01-01",
		"metacritic": 92,
		"image": "https://cdn.example.com/celeste.jpg",
		"screenshots": ["https://cdn.example.com/1.jpg", "/relative.jpg", 42, "ftp://cdn.example.com/2.jpg", "http://cdn.example.com/3.jpg"]
	}`
	game := Decode(json.RawMessage(raw))

	assert.Equal(t, "g2", game.ID)
	assert.Equal(t, "2018-01-25", game.ReleaseDate)
	assert.Equal(t, "EUR", game.Currency)
	assert.Equal(t, enums.GameTypeDLC, game.Type)
	require.NotNil(t, game.MetacriticScore)
	assert.Equal(t, 92, *game.MetacriticScore)
	assert.Equal(t, "https://cdn.example.com/celeste.jpg", game.Assets.Cover)
	assert.Equal(t, []string{"https://cdn.example.com/1.jpg", "http://cdn.example.com/3.jpg"}, game.Assets.Screenshots)
	assert.True(t, decimal.RequireFromString("19.99").Equal(game.Price))
}

func TestMistypedFieldsFallBackIndividually(t *testing.T) {
	raw := `{
		"_id": "g3",
		"title": "Hades",
		"metacritic": "85",
		"score": "great",
		"externalId": {"rawg": 1},
		"isOffer": "true",
		"price": 24.99,
		"platform": 7,
		"assets": {"cover": "https://cdn.example.com/h.jpg", "screenshots": "none"}
	}`
	game := Decode(json.RawMessage(raw))

	assert.Equal(t, "g3", game.ID)
	assert.Equal(t, "Hades", game.Title)
	require.NotNil(t, game.MetacriticScore)
	assert.Equal(t, 85, *game.MetacriticScore)
	assert.Nil(t, game.Score)
	assert.Nil(t, game.ExternalID)
	assert.True(t, game.IsOffer)
	assert.Equal(t, UnknownValue, game.Platform)
	assert.True(t, decimal.RequireFromString("24.99").Equal(game.Price))
	assert.Equal(t, "https://cdn.example.com/h.jpg", game.Assets.Cover)
	assert.Empty(t, game.Assets.Screenshots)
}

func TestDecodeInvalidInputYieldsFallbackGame(t *testing.T) {
	for _, raw := range []string{`not json`, `"g1"`, `null`, `[1,2]`} {
		game := Decode(json.RawMessage(raw))
		assert.Equal(t, "", game.ID, raw)
		assert.Equal(t, UntitledTitle, game.Title, raw)
		assert.Equal(t, PlaceholderCover, game.Assets.Cover, raw)
	}
}

func TestNormalizeKeepsProvidedAssets(t *testing.T) {
	raw := `{"_id":"g3","image":"https://ignored.example.com/x.jpg","assets":{"cover":"https://cdn.example.com/c.jpg","screenshots":["https://cdn.example.com/s.jpg","bad"],"videos":["https://cdn.example.com/v.mp4"]}}`
	game := Decode(json.RawMessage(raw))

	assert.Equal(t, "https://cdn.example.com/c.jpg", game.Assets.Cover)
	assert.Equal(t, []string{"https://cdn.example.com/s.jpg"}, game.Assets.Screenshots)
	assert.Equal(t, []string{"https://cdn.example.com/v.mp4"}, game.Assets.Videos)
}

func TestUnknownTypeFallsBackToGame(t *testing.T) {
	game := Normalize(RawGame{Type: "expansion"})
	assert.Equal(t, enums.GameTypeGame, game.Type)
}

func TestEffectivePrice(t *testing.T) {
	offer := decimal.RequireFromString("4.99")
	tests := []struct {
		name string
		game Game
		want string
	}{
		{name: "list price", game: Game{Price: decimal.RequireFromString("9.99")}, want: "9.99"},
		{name: "active offer", game: Game{Price: decimal.RequireFromString("9.99"), IsOffer: true, OfferPrice: &offer}, want: "4.99"},
		{name: "offer without price", game: Game{Price: decimal.RequireFromString("9.99"), IsOffer: true}, want: "9.99"},
		{name: "inactive offer", game: Game{Price: decimal.RequireFromString("9.99"), OfferPrice: &offer}, want: "9.99"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.game.EffectivePrice().StringFixed(2))
		})
	}
}

func TestDisplayPrice(t *testing.T) {
	game := Game{Price: decimal.RequireFromString("30"), Currency: "USD"}
	assert.Equal(t, "$30.00", game.DisplayPrice())
}
