package session

import "github.com/angelmondragon/storefront/internal/apiclient"

// LoginCredentials is the body of the login call.
type LoginCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterCredentials is the body of the register call.
type RegisterCredentials struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is what login, register and refresh return.
type AuthResponse struct {
	Message      string `json:"message"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// ProfileUpdate carries the editable profile fields; empty fields are not sent.
type ProfileUpdate struct {
	Username string
	Email    string `validate:"omitempty,email"`
	Avatar   *apiclient.File
}

type profileUpdateResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}
