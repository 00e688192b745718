package catalog

import (
	"net/url"
	"strconv"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// Query-string parameter names.
const (
	ParamQuery    = "query"
	ParamGenre    = "genre"
	ParamPlatform = "platform"
	ParamSortBy   = "sortBy"
	ParamOrder    = "order"
	ParamPage     = "page"
)

const (
	DefaultSortBy = enums.SortFieldReleaseDate
	DefaultOrder  = enums.SortOrderDesc
)

// QueryState is the catalog browsing state as read from the location.
type QueryState struct {
	Query    string
	Genre    string
	Platform string
	SortBy   enums.SortField
	Order    enums.SortOrder
	Page     int
}

func DefaultState() QueryState {
	return QueryState{SortBy: DefaultSortBy, Order: DefaultOrder, Page: pagination.FirstPage}
}

// Decode reads every field with its default. Unknown sort values and
// non-positive or malformed pages fall back to the defaults.
func Decode(values url.Values) QueryState {
	state := DefaultState()
	state.Query = values.Get(ParamQuery)
	state.Genre = values.Get(ParamGenre)
	state.Platform = values.Get(ParamPlatform)
	if sortBy, err := enums.ParseSortField(values.Get(ParamSortBy)); err == nil {
		state.SortBy = sortBy
	}
	if order, err := enums.ParseSortOrder(values.Get(ParamOrder)); err == nil {
		state.Order = order
	}
	if raw := values.Get(ParamPage); raw != "" {
		state.Page = pagination.ParsePage(raw)
	}
	return state
}

// Encode writes state as query parameters. Empty text fields are omitted.
func Encode(state QueryState) url.Values {
	values := url.Values{}
	setOrDelete(values, ParamQuery, state.Query)
	setOrDelete(values, ParamGenre, state.Genre)
	setOrDelete(values, ParamPlatform, state.Platform)
	if state.SortBy.IsValid() {
		values.Set(ParamSortBy, state.SortBy.String())
	}
	if state.Order.IsValid() {
		values.Set(ParamOrder, state.Order.String())
	}
	values.Set(ParamPage, strconv.Itoa(pagination.NormalizePage(state.Page)))
	return values
}

func setOrDelete(values url.Values, key, value string) {
	if value == "" {
		values.Del(key)
		return
	}
	values.Set(key, value)
}
