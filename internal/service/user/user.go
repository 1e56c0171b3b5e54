package user

import (
	"context"

	"github.com/nkiryanov/bookadmin/internal/models"
	"github.com/nkiryanov/bookadmin/internal/service"
	"github.com/nkiryanov/bookadmin/internal/service/validate"
)

const pathUsers = "/users/"

type CreateInput struct {
	Username        string      `json:"username" validate:"required,max=150"`
	Password        string      `json:"password" validate:"required,min=8"`
	ConfirmPassword string      `json:"confirm_password" validate:"required,eqfield=Password"`
	Email           string      `json:"email,omitempty" validate:"omitempty,email"`
	FirstName       string      `json:"first_name,omitempty"`
	LastName        string      `json:"last_name,omitempty"`
	Role            models.Role `json:"role" validate:"required,role"`
	IsActive        bool        `json:"is_active"`
}

type UpdateInput struct {
	Email       *string      `json:"email,omitempty" validate:"omitempty,email"`
	FirstName   *string      `json:"first_name,omitempty"`
	LastName    *string      `json:"last_name,omitempty"`
	Role        *models.Role `json:"role,omitempty" validate:"omitempty,role"`
	Phone       *string      `json:"phone,omitempty"`
	Department  *string      `json:"department,omitempty"`
	Position    *string      `json:"position,omitempty"`
	IsActive    *bool        `json:"is_active,omitempty"`
	Permissions []string     `json:"permissions,omitempty"`
}

type passwordReset struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type rolesResponse struct {
	Roles []models.Option `json:"roles"`
}

type permissionsResponse struct {
	Permissions []models.Option `json:"permissions"`
}

// Service is the user administration. Every call except the option lists needs an administrator
type Service struct {
	api service.API
}

func New(api service.API) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) ([]models.Profile, error) {
	var users []models.Profile
	err := s.api.Get(ctx, pathUsers, &users)
	return users, service.Wrap("list users", err)
}

func (s *Service) Get(ctx context.Context, id int64) (models.Profile, error) {
	var p models.Profile
	err := s.api.Get(ctx, service.Path(pathUsers, id), &p)
	return p, service.Wrap("get user", err)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (models.Profile, error) {
	var p models.Profile
	if err := validate.Struct(in); err != nil {
		return p, service.Wrap("create user", err)
	}

	err := s.api.Post(ctx, pathUsers, in, &p)
	return p, service.Wrap("create user", err)
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (models.Profile, error) {
	var p models.Profile
	if err := validate.Struct(in); err != nil {
		return p, service.Wrap("update user", err)
	}

	err := s.api.Patch(ctx, service.Path(pathUsers, id), in, &p)
	return p, service.Wrap("update user", err)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return service.Wrap("delete user", s.api.Delete(ctx, service.Path(pathUsers, id)))
}

func (s *Service) Activate(ctx context.Context, id int64) error {
	return service.Wrap("activate user", s.api.Post(ctx, service.Path(pathUsers, id, "activate"), nil, nil))
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return service.Wrap("deactivate user", s.api.Post(ctx, service.Path(pathUsers, id, "deactivate"), nil, nil))
}

func (s *Service) ResetPassword(ctx context.Context, id int64, newPassword string) error {
	req := passwordReset{NewPassword: newPassword}
	if err := validate.Struct(req); err != nil {
		return service.Wrap("reset password", err)
	}
	return service.Wrap("reset password", s.api.Post(ctx, service.Path(pathUsers, id, "reset_password"), req, nil))
}

func (s *Service) Roles(ctx context.Context) ([]models.Option, error) {
	var resp rolesResponse
	err := s.api.Get(ctx, pathUsers+"roles/", &resp)
	return resp.Roles, service.Wrap("list roles", err)
}

func (s *Service) Permissions(ctx context.Context) ([]models.Option, error) {
	var resp permissionsResponse
	err := s.api.Get(ctx, pathUsers+"permissions/", &resp)
	return resp.Permissions, service.Wrap("list permissions", err)
}
