package session

import (
	"encoding/json"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// User is the signed-in account as the storefront displays it.
type User struct {
	ID        string         `json:"_id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
	AvatarURL string         `json:"avatar,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts both `_id` and `id` for the identifier. An unknown role reads as user.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	if u.ID == "" {
		u.ID = raw.AltID
	}
	if !u.Role.IsValid() {
		u.Role = enums.UserRoleUser
	}
	return nil
}

func (u User) IsAdmin() bool {
	return u.Role == enums.UserRoleAdmin
}

func (u User) valid() bool {
	return u.ID != ""
}
