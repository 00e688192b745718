package session

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront/internal/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	loginPath    = "/users/login"
	registerPath = "/users/register"
	profilePath  = "/users/profile"
	updatePath   = "/users/update"
)

// Requester is the slice of the API client the auth service needs.
type Requester interface {
	DoJSON(ctx context.Context, req apiclient.Request, dest any) error
	GetJSON(ctx context.Context, path string, query url.Values, dest any) error
	PutMultipart(ctx context.Context, path string, fields map[string]string, files []apiclient.File, dest any) error
}

// AuthService maps the account endpoints. It does not touch storage.
type AuthService interface {
	Login(ctx context.Context, creds LoginCredentials) (AuthResponse, error)
	Register(ctx context.Context, creds RegisterCredentials) (AuthResponse, error)
	Profile(ctx context.Context) (User, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error)
}

type authService struct {
	api Requester
}

func NewAuthService(api Requester) (AuthService, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	return &authService{api: api}, nil
}

func (s *authService) Login(ctx context.Context, creds LoginCredentials) (AuthResponse, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := checkShape(creds); err != nil {
		return AuthResponse{}, err
	}
	return s.authenticate(ctx, loginPath, creds)
}

func (s *authService) Register(ctx context.Context, creds RegisterCredentials) (AuthResponse, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	creds.Username = strings.TrimSpace(creds.Username)
	if err := checkShape(creds); err != nil {
		return AuthResponse{}, err
	}
	return s.authenticate(ctx, registerPath, creds)
}

func (s *authService) authenticate(ctx context.Context, path string, body any) (AuthResponse, error) {
	req, err := apiclient.JSONRequest(http.MethodPost, path, body)
	if err != nil {
		return AuthResponse{}, err
	}
	req.Anonymous = true

	var resp AuthResponse
	if err := s.api.DoJSON(ctx, req, &resp); err != nil {
		return AuthResponse{}, err
	}
	if resp.Token == "" {
		return AuthResponse{}, pkgerrors.New(pkgerrors.CodeDependency, "auth response carried no token")
	}
	return resp, nil
}

func (s *authService) Profile(ctx context.Context) (User, error) {
	var user User
	if err := s.api.GetJSON(ctx, profilePath, nil, &user); err != nil {
		return User{}, err
	}
	if !user.valid() {
		return User{}, pkgerrors.New(pkgerrors.CodeDependency, "profile response carried no user id")
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error) {
	if err := checkShape(update); err != nil {
		return User{}, err
	}
	fields := map[string]string{}
	if v := strings.TrimSpace(update.Username); v != "" {
		fields["username"] = v
	}
	if v := strings.TrimSpace(update.Email); v != "" {
		fields["email"] = v
	}
	var files []apiclient.File
	if update.Avatar != nil {
		files = append(files, *update.Avatar)
	}
	if len(fields) == 0 && len(files) == 0 {
		return User{}, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	var resp profileUpdateResponse
	if err := s.api.PutMultipart(ctx, updatePath, fields, files, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}
