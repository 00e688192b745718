package enums

import "fmt"

// SortField is a catalog ordering key.
type SortField string

const (
	SortFieldTitle       SortField = "title"
	SortFieldPrice       SortField = "price"
	SortFieldReleaseDate SortField = "releaseDate"
)

var validSortFields = []SortField{
	SortFieldTitle,
	SortFieldPrice,
	SortFieldReleaseDate,
}

// String implements fmt.Stringer.
func (s SortField) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SortField.
func (s SortField) IsValid() bool {
	for _, candidate := range validSortFields {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortField converts raw input into a SortField.
func ParseSortField(value string) (SortField, error) {
	for _, candidate := range validSortFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort field %q", value)
}
