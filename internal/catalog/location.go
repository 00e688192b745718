package catalog

import (
	"net/url"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/observable"
)

// Location is the address bar: the current catalog query string plus the
// history of entries pushed onto it. Navigations are serialized and each one
// reaches listeners before the next begins. Listeners may read the location
// but must not navigate from inside the callback.
type Location struct {
	nav     sync.Mutex
	mu      sync.Mutex
	entries []string
	current *observable.Store[string, string]
}

func NewLocation(rawQuery string) *Location {
	rawQuery = canonical(rawQuery)
	return &Location{
		entries: []string{rawQuery},
		current: observable.New(rawQuery, func(_ string, next string) string { return next }),
	}
}

// String returns the encoded query string without a leading '?'.
func (l *Location) String() string {
	return l.current.State()
}

// Query returns a fresh copy of the current parameters.
func (l *Location) Query() url.Values {
	return parse(l.String())
}

// Push navigates to values, adding a history entry. Navigating to the current
// query is a no-op.
func (l *Location) Push(values url.Values) {
	l.navigate(func(url.Values) url.Values { return values })
}

// Modify applies edit to a copy of the current parameters and navigates to
// the result. Read and write happen under one lock, so concurrent edits of
// different parameters never drop each other.
func (l *Location) Modify(edit func(url.Values)) {
	l.navigate(func(current url.Values) url.Values {
		edit(current)
		return current
	})
}

func (l *Location) navigate(next func(current url.Values) url.Values) {
	l.nav.Lock()
	defer l.nav.Unlock()

	l.mu.Lock()
	encoded := next(parse(l.entries[len(l.entries)-1])).Encode()
	if l.entries[len(l.entries)-1] == encoded {
		l.mu.Unlock()
		return
	}
	l.entries = append(l.entries, encoded)
	l.mu.Unlock()
	l.current.Dispatch(encoded)
}

// Back returns to the previous entry. It reports false at the start of history.
func (l *Location) Back() bool {
	l.nav.Lock()
	defer l.nav.Unlock()

	l.mu.Lock()
	if len(l.entries) < 2 {
		l.mu.Unlock()
		return false
	}
	l.entries = l.entries[:len(l.entries)-1]
	prev := l.entries[len(l.entries)-1]
	l.mu.Unlock()
	l.current.Dispatch(prev)
	return true
}

// Depth is the number of history entries, including the initial one.
func (l *Location) Depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Subscribe is called with the new query string after every navigation.
func (l *Location) Subscribe(listener func(string)) func() {
	return l.current.Subscribe(listener)
}

func parse(rawQuery string) url.Values {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return url.Values{}
	}
	return values
}

func canonical(rawQuery string) string {
	values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return ""
	}
	return values.Encode()
}
