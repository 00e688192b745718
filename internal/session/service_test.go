package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront/internal/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T, router chi.Router, creds *Credentials) AuthService {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	client, err := apiclient.New(srv.URL+"/api", creds, apiclient.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	svc, err := NewAuthService(client)
	require.NoError(t, err)
	return svc
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestLoginIsSentWithoutBearer(t *testing.T) {
	var auth string
	var body LoginCredentials
	router := chi.NewRouter()
	router.Post("/api/users/login", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{
			"message":      "ok",
			"token":        "a",
			"refreshToken": "r",
			"user":         map[string]string{"_id": "u1", "email": "ada@example.com", "role": "admin"},
		})
	})
	creds := seededCredentials(t, "stale", nil)
	svc := newAuthService(t, router, creds)

	resp, err := svc.Login(context.Background(), LoginCredentials{Email: " ada@example.com ", Password: "pw"})
	require.NoError(t, err)

	assert.Empty(t, auth)
	assert.Equal(t, "ada@example.com", body.Email)
	assert.Equal(t, "a", resp.Token)
	assert.True(t, resp.User.IsAdmin())
}

func TestLoginRejectsIncompleteCredentials(t *testing.T) {
	router := chi.NewRouter()
	svc := newAuthService(t, router, seededCredentials(t, "", nil))

	_, err := svc.Login(context.Background(), LoginCredentials{Email: "not-an-email"})

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"email": "must be a valid email", "password": "is required"}, typed.Details())
}

func TestRegisterSurfacesFieldErrors(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/api/users/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Email already registered",
			"errors":  map[string]string{"email": "taken"},
		})
	})
	svc := newAuthService(t, router, seededCredentials(t, "", nil))

	_, err := svc.Register(context.Background(), RegisterCredentials{Username: "ada", Email: "ada@example.com", Password: "pw"})

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "Email already registered", typed.Message())
}

func TestLoginWithoutTokenIsAnError(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/api/users/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "check your inbox"})
	})
	svc := newAuthService(t, router, seededCredentials(t, "", nil))

	_, err := svc.Login(context.Background(), LoginCredentials{Email: "ada@example.com", Password: "pw"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestUpdateProfileSendsMultipart(t *testing.T) {
	router := chi.NewRouter()
	router.Put("/api/users/update", func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "lovelace", r.FormValue("username"))
		_, header, err := r.FormFile("avatar")
		if assert.NoError(t, err) {
			assert.Equal(t, "me.png", header.Filename)
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "updated", "user": map[string]string{"_id": "u1", "username": "lovelace"}})
	})
	svc := newAuthService(t, router, seededCredentials(t, "tok", nil))

	user, err := svc.UpdateProfile(context.Background(), ProfileUpdate{
		Username: "lovelace",
		Avatar:   &apiclient.File{Field: "avatar", Name: "me.png", ContentType: "image/png", Content: []byte{0x89, 'P', 'N', 'G'}},
	})
	require.NoError(t, err)
	assert.Equal(t, "lovelace", user.Username)
}

func TestUpdateProfileWithNothingToSend(t *testing.T) {
	creds, err := NewCredentials(kv.NewMemory())
	require.NoError(t, err)
	svc := newAuthService(t, chi.NewRouter(), creds)

	_, err = svc.UpdateProfile(context.Background(), ProfileUpdate{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
