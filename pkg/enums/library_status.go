package enums

import "fmt"

// LibraryStatus is the play state a user tracks for an owned game.
type LibraryStatus string

const (
	LibraryStatusPlaying   LibraryStatus = "playing"
	LibraryStatusCompleted LibraryStatus = "completed"
	LibraryStatusBacklog   LibraryStatus = "backlog"
	LibraryStatusDropped   LibraryStatus = "dropped"
)

var validLibraryStatuses = []LibraryStatus{
	LibraryStatusPlaying,
	LibraryStatusCompleted,
	LibraryStatusBacklog,
	LibraryStatusDropped,
}

// String implements fmt.Stringer.
func (l LibraryStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LibraryStatus.
func (l LibraryStatus) IsValid() bool {
	for _, candidate := range validLibraryStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLibraryStatus converts raw input into a LibraryStatus.
func ParseLibraryStatus(value string) (LibraryStatus, error) {
	for _, candidate := range validLibraryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid library status %q", value)
}
