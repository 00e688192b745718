package admin

import (
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/internal/apiclient"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"github.com/shopspring/decimal"
)

// DefaultUsersLimit is the admin user listing page size.
const DefaultUsersLimit = 20

// MinRAWGQuery is the shortest query sent to the RAWG search.
const MinRAWGQuery = 3

// User is an account as the admin listing shows it.
type User = session.User

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users      []User          `json:"users"`
	Pagination pagination.Info `json:"pagination"`
}

type usersResponse struct {
	Users      []User `json:"users"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
}

// GameForm is the manual create/update payload. Zero-valued optional fields are not sent.
type GameForm struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Currency    string
	Platform    string
	Genre       string
	Type        enums.GameType
	ReleaseDate string
	Developer   string
	Publisher   string
	IsOffer     bool
	OfferPrice  *decimal.Decimal
	Cover       *apiclient.File
	Screenshots []apiclient.File
}

// Fields renders the form's scalar values as multipart fields.
func (f GameForm) Fields() map[string]string {
	fields := map[string]string{
		"price":   f.Price.String(),
		"isOffer": strconv.FormatBool(f.IsOffer),
	}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fields[key] = value
		}
	}
	set("title", f.Title)
	set("description", f.Description)
	set("currency", f.Currency)
	set("platform", f.Platform)
	set("genre", f.Genre)
	set("type", f.Type.String())
	set("releaseDate", f.ReleaseDate)
	set("developer", f.Developer)
	set("publisher", f.Publisher)
	if f.OfferPrice != nil {
		fields["offerPrice"] = f.OfferPrice.String()
	}
	return fields
}

// Files lists the uploads in the order the backend expects them.
func (f GameForm) Files() []apiclient.File {
	var files []apiclient.File
	if f.Cover != nil {
		cover := *f.Cover
		if cover.Field == "" {
			cover.Field = "image"
		}
		files = append(files, cover)
	}
	for _, shot := range f.Screenshots {
		if shot.Field == "" {
			shot.Field = "screenshots"
		}
		files = append(files, shot)
	}
	return files
}

// RAWGGame is a search hit from the RAWG catalog.
type RAWGGame struct {
	ID              int64   `json:"id"`
	Slug            string  `json:"slug"`
	Name            string  `json:"name"`
	Released        string  `json:"released"`
	BackgroundImage string  `json:"background_image"`
	Rating          float64 `json:"rating"`
	Metacritic      *int    `json:"metacritic"`
}

type rawgSearchResponse struct {
	Results []RAWGGame `json:"results"`
}

type rawgImportRequest struct {
	RAWGID     int64  `json:"rawgId"`
	SteamAppID *int64 `json:"steamAppId,omitempty"`
}
