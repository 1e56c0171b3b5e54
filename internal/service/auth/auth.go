package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/bookadmin/internal/apiclient"
	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/models"
	"github.com/nkiryanov/bookadmin/internal/service"
	"github.com/nkiryanov/bookadmin/internal/service/validate"
)

const (
	pathLogin          = "/auth/login/"
	pathLogout         = "/auth/logout/"
	pathRegister       = "/auth/register/"
	pathMe             = "/users/me/"
	pathChangePassword = "/users/change_password/"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username        string      `json:"username" validate:"required,max=150"`
	Password        string      `json:"password" validate:"required,min=8"`
	ConfirmPassword string      `json:"confirm_password" validate:"required,eqfield=Password"`
	Email           string      `json:"email,omitempty" validate:"omitempty,email"`
	FirstName       string      `json:"first_name,omitempty"`
	LastName        string      `json:"last_name,omitempty"`
	Role            models.Role `json:"role,omitempty" validate:"omitempty,role"`
}

type ProfileUpdate struct {
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Department *string `json:"department,omitempty"`
	Position   *string `json:"position,omitempty"`
}

type PasswordChange struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type Service struct {
	api service.API
}

func New(api service.API) *Service {
	return &Service{api: api}
}

// Login exchanges username and password for a credential. Nothing is stored here.
//
// Returns apperrors.ErrBadCredentials when the API rejects the pair
func (s *Service) Login(ctx context.Context, username string, password string) (models.Credential, error) {
	req := LoginRequest{Username: username, Password: password}
	if err := validate.Struct(req); err != nil {
		return models.Credential{}, service.Wrap("login", err)
	}

	var resp loginResponse
	err := s.api.Post(ctx, pathLogin, req, &resp, apiclient.Anonymous())
	if err != nil {
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			// Not wrapped: a rejected login must not look like an expired session
			return models.Credential{}, fmt.Errorf("login: %w: %s", apperrors.ErrBadCredentials, apiErr.Message)
		}
		return models.Credential{}, service.Wrap("login", err)
	}

	cred := resp.credential()
	if cred.IsZero() {
		return cred, errors.New("login: api answered without access token")
	}

	return cred, nil
}

// Logout tells the API the session is over. Callers ignore the error: the local session ends anyway
func (s *Service) Logout(ctx context.Context, refresh string) error {
	var body any
	if refresh != "" {
		body = map[string]string{"refresh": refresh}
	}
	return service.Wrap("logout", s.api.Post(ctx, pathLogout, body, nil))
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (models.Profile, error) {
	var resp registerResponse
	if err := validate.Struct(req); err != nil {
		return resp.User, service.Wrap("register", err)
	}

	err := s.api.Post(ctx, pathRegister, req, &resp, apiclient.Anonymous())
	return resp.User, service.Wrap("register", err)
}

// Me returns the profile of the stored credential owner
func (s *Service) Me(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := s.api.Get(ctx, pathMe, &p)
	return p, service.Wrap("get profile", err)
}

// MeWithToken returns the profile for an access token that is not stored yet
func (s *Service) MeWithToken(ctx context.Context, access string) (models.Profile, error) {
	var p models.Profile
	err := s.api.Get(ctx, pathMe, &p, apiclient.WithToken(access))
	return p, service.Wrap("get profile", err)
}

func (s *Service) UpdateMe(ctx context.Context, upd ProfileUpdate) (models.Profile, error) {
	var p models.Profile
	if err := validate.Struct(upd); err != nil {
		return p, service.Wrap("update profile", err)
	}

	err := s.api.Put(ctx, pathMe, upd, &p)
	return p, service.Wrap("update profile", err)
}

func (s *Service) ChangePassword(ctx context.Context, req PasswordChange) error {
	if err := validate.Struct(req); err != nil {
		return service.Wrap("change password", err)
	}
	return service.Wrap("change password", s.api.Post(ctx, pathChangePassword, req, nil))
}
