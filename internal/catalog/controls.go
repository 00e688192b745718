package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/angelmondragon/storefront/pkg/debounce"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// DefaultSearchDebounce is how long search input must settle before it is written.
const DefaultSearchDebounce = 500 * time.Millisecond

// FilterKey names a facet SetFilter can change.
type FilterKey string

const (
	FilterGenre    FilterKey = ParamGenre
	FilterPlatform FilterKey = ParamPlatform
)

// Controls reads and writes catalog state through a Location. It keeps no copy
// of the state; every read parses the location again.
type Controls struct {
	loc    *Location
	search *debounce.Debouncer[string]
}

// NewControls binds controls to loc. Each Controls owns one search debouncer.
func NewControls(loc *Location, window time.Duration, clock debounce.Clock) *Controls {
	if window <= 0 {
		window = DefaultSearchDebounce
	}
	c := &Controls{loc: loc}
	c.search = debounce.New(window, clock, c.writeSearch)
	return c
}

func (c *Controls) State() QueryState {
	return Decode(c.loc.Query())
}

func (c *Controls) SetPage(page int) {
	c.loc.Modify(func(values url.Values) {
		values.Set(ParamPage, strconv.Itoa(pagination.NormalizePage(page)))
	})
}

// SetFilter sets or, for an empty value, removes a facet and returns to the first page.
func (c *Controls) SetFilter(key FilterKey, value string) error {
	if key != FilterGenre && key != FilterPlatform {
		return fmt.Errorf("unknown catalog filter %q", key)
	}
	c.loc.Modify(func(values url.Values) {
		setOrDelete(values, string(key), value)
		values.Set(ParamPage, strconv.Itoa(pagination.FirstPage))
	})
	return nil
}

// SetSort changes the ordering and returns to the first page.
func (c *Controls) SetSort(field enums.SortField, order enums.SortOrder) error {
	if !field.IsValid() {
		return fmt.Errorf("unknown sort field %q", field)
	}
	if !order.IsValid() {
		return fmt.Errorf("unknown sort order %q", order)
	}
	c.loc.Modify(func(values url.Values) {
		values.Set(ParamSortBy, field.String())
		values.Set(ParamOrder, order.String())
		values.Set(ParamPage, strconv.Itoa(pagination.FirstPage))
	})
	return nil
}

// SetSearch schedules a search write. Calls inside the debounce window replace
// each other; only the last one reaches the location.
func (c *Controls) SetSearch(query string) {
	c.search.Call(query)
}

// FlushSearch writes a scheduled search now.
func (c *Controls) FlushSearch() {
	c.search.Flush()
}

func (c *Controls) SearchPending() bool {
	return c.search.Pending()
}

func (c *Controls) writeSearch(query string) {
	c.loc.Modify(func(values url.Values) {
		setOrDelete(values, ParamQuery, query)
		values.Set(ParamPage, strconv.Itoa(pagination.FirstPage))
	})
}

// ClearAll drops every parameter.
func (c *Controls) ClearAll() {
	c.loc.Push(nil)
}

// Close cancels a scheduled search write.
func (c *Controls) Close() {
	c.search.Close()
}
