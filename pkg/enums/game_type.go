package enums

import "fmt"

// GameType classifies a catalog listing.
type GameType string

const (
	GameTypeGame   GameType = "game"
	GameTypeDLC    GameType = "dlc"
	GameTypeBundle GameType = "bundle"
)

var validGameTypes = []GameType{
	GameTypeGame,
	GameTypeDLC,
	GameTypeBundle,
}

// String implements fmt.Stringer.
func (g GameType) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GameType.
func (g GameType) IsValid() bool {
	for _, candidate := range validGameTypes {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGameType converts raw input into a GameType.
func ParseGameType(value string) (GameType, error) {
	for _, candidate := range validGameTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid game type %q", value)
}
