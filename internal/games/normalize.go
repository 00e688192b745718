package games

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

const (
	// PlaceholderCover stands in for listings that carry no cover art.
	PlaceholderCover = "https://placehold.co/600x400/101010/FFF?text=No+Cover"
	UntitledTitle    = "Untitled"
	UnknownValue     = "Unknown"
)

// RawGame is a game record as the backend sends it. Older endpoints use flat
// image/screenshots fields and `released` instead of `releaseDate`.
type RawGame struct {
	MongoID     string           `json:"_id"`
	ID          string           `json:"id"`
	ExternalID  *int64           `json:"externalId"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Currency    string           `json:"currency"`
	Platform    string           `json:"platform"`
	Genre       string           `json:"genre"`
	Type        string           `json:"type"`
	ReleaseDate string           `json:"releaseDate"`
	Released    string           `json:"released"`
	Developer   string           `json:"developer"`
	Publisher   string           `json:"publisher"`
	IsOffer     bool             `json:"isOffer"`
	OfferPrice  *decimal.Decimal `json:"offerPrice"`
	Assets      *RawAssets       `json:"assets"`
	Image       string           `json:"image"`
	Screenshots []any            `json:"screenshots"`
	Score       *float64         `json:"score"`
	Metacritic  *int             `json:"metacritic"`
}

type RawAssets struct {
	Cover       string `json:"cover"`
	Screenshots []any  `json:"screenshots"`
	Videos      []any  `json:"videos"`
}

// UnmarshalJSON decodes field by field. A field of the wrong type keeps its
// zero value instead of failing the record, and quoted numbers and booleans
// are accepted. Anything that is not an object decodes to the empty record.
func (r *RawGame) UnmarshalJSON(data []byte) error {
	*r = RawGame{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	for key, value := range fields {
		switch key {
		case "_id":
			decodeField(value, &r.MongoID)
		case "id":
			decodeField(value, &r.ID)
		case "externalId":
			decodeField(value, &r.ExternalID)
		case "title":
			decodeField(value, &r.Title)
		case "description":
			decodeField(value, &r.Description)
		case "price":
			decodeField(value, &r.Price)
		case "currency":
			decodeField(value, &r.Currency)
		case "platform":
			decodeField(value, &r.Platform)
		case "genre":
			decodeField(value, &r.Genre)
		case "type":
			decodeField(value, &r.Type)
		case "releaseDate":
			decodeField(value, &r.ReleaseDate)
		case "released":
			decodeField(value, &r.Released)
		case "developer":
			decodeField(value, &r.Developer)
		case "publisher":
			decodeField(value, &r.Publisher)
		case "isOffer":
			decodeField(value, &r.IsOffer)
		case "offerPrice":
			decodeField(value, &r.OfferPrice)
		case "assets":
			decodeField(value, &r.Assets)
		case "image":
			decodeField(value, &r.Image)
		case "screenshots":
			decodeField(value, &r.Screenshots)
		case "score":
			decodeField(value, &r.Score)
		case "metacritic":
			decodeField(value, &r.Metacritic)
		}
	}
	return nil
}

func (a *RawAssets) UnmarshalJSON(data []byte) error {
	*a = RawAssets{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	decodeField(fields["cover"], &a.Cover)
	decodeField(fields["screenshots"], &a.Screenshots)
	decodeField(fields["videos"], &a.Videos)
	return nil
}

// decodeField sets dst only when value decodes cleanly, either as is or from
// the contents of a JSON string.
func decodeField[T any](value json.RawMessage, dst *T) {
	if len(value) == 0 {
		return
	}
	var direct T
	if err := json.Unmarshal(value, &direct); err == nil {
		*dst = direct
		return
	}
	var quoted string
	if err := json.Unmarshal(value, &quoted); err != nil {
		return
	}
	var unquoted T
	if err := json.Unmarshal([]byte(strings.TrimSpace(quoted)), &unquoted); err == nil {
		*dst = unquoted
	}
}

// Normalize maps a backend record onto Game, substituting a fallback for every
// missing display field. It never fails.
func Normalize(raw RawGame) Game {
	game := Game{
		ID:              firstNonEmpty(raw.MongoID, raw.ID),
		ExternalID:      raw.ExternalID,
		Title:           firstNonEmpty(raw.Title, UntitledTitle),
		Description:     raw.Description,
		Price:           raw.Price,
		Currency:        money.NormalizeCurrency(raw.Currency),
		Platform:        firstNonEmpty(raw.Platform, UnknownValue),
		Genre:           firstNonEmpty(raw.Genre, UnknownValue),
		Type:            enums.GameTypeGame,
		ReleaseDate:     firstNonEmpty(raw.Released, raw.ReleaseDate),
		Developer:       firstNonEmpty(raw.Developer, UnknownValue),
		Publisher:       firstNonEmpty(raw.Publisher, UnknownValue),
		IsOffer:         raw.IsOffer,
		OfferPrice:      raw.OfferPrice,
		Score:           raw.Score,
		MetacriticScore: raw.Metacritic,
	}
	if parsed, err := enums.ParseGameType(strings.ToLower(strings.TrimSpace(raw.Type))); err == nil {
		game.Type = parsed
	}
	if raw.Assets != nil {
		game.Assets = Assets{
			Cover:       firstNonEmpty(raw.Assets.Cover, PlaceholderCover),
			Screenshots: httpURLs(raw.Assets.Screenshots),
			Videos:      stringValues(raw.Assets.Videos),
		}
	} else {
		game.Assets = Assets{
			Cover:       firstNonEmpty(raw.Image, PlaceholderCover),
			Screenshots: httpURLs(raw.Screenshots),
			Videos:      []string{},
		}
	}
	return game
}

// NormalizeAll normalizes a list, returning an empty (non-nil) slice for none.
func NormalizeAll(raws []RawGame) []Game {
	out := make([]Game, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// Decode normalizes a single raw JSON game. Mistyped fields fall back one by
// one; input that is not valid JSON yields the all-fallback game.
func Decode(data json.RawMessage) Game {
	var raw RawGame
	if err := json.Unmarshal(data, &raw); err != nil {
		raw = RawGame{}
	}
	return Normalize(raw)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// httpURLs keeps the string entries that are absolute http(s) URLs.
func httpURLs(values []any) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		s, ok := value.(string)
		if !ok {
			continue
		}
		parsed, err := url.Parse(s)
		if err != nil || parsed.Host == "" {
			continue
		}
		if parsed.Scheme == "http" || parsed.Scheme == "https" {
			out = append(out, s)
		}
	}
	return out
}

func stringValues(values []any) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if s, ok := value.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
