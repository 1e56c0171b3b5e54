package mockapi

import (
	"net/http"

	"github.com/nkiryanov/bookadmin/internal/models"
)

var roleOptions = []models.Option{
	{Value: "admin", Label: "Administrator"},
	{Value: "manager", Label: "Manager"},
	{Value: "staff", Label: "Staff"},
}

var permissionOptions = func() []models.Option {
	var opts []models.Option
	for _, obj := range []string{"book", "sale", "purchase", "financial", "user"} {
		for _, act := range []string{"view", "add", "change", "delete"} {
			opts = append(opts, models.Option{Value: act + "_" + obj, Label: act + " " + obj})
		}
	}
	return opts
}()

type profileUpdate struct {
	Email      *string `json:"email" validate:"omitempty,email"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
}

type userCreate struct {
	Username        string      `json:"username" validate:"required,max=150"`
	Password        string      `json:"password" validate:"required,min=8"`
	ConfirmPassword string      `json:"confirm_password" validate:"required,eqfield=Password"`
	Email           string      `json:"email" validate:"omitempty,email"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Role            models.Role `json:"role" validate:"required,role"`
	IsActive        bool        `json:"is_active"`
}

type userPatch struct {
	profileUpdate
	Role        *models.Role `json:"role" validate:"omitempty,role"`
	IsActive    *bool        `json:"is_active"`
	Permissions []string     `json:"permissions"`
}

type passwordChange struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type passwordReset struct {
	NewPassword string `json:"new_password"`
}

func (u profileUpdate) apply(p *models.Profile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Email, u.Email)
	set(&p.FirstName, u.FirstName)
	set(&p.LastName, u.LastName)
	set(&p.Phone, u.Phone)
	set(&p.Department, u.Department)
	set(&p.Position, u.Position)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.current(r).Profile
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	upd, ok := bind[profileUpdate](w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	acc := s.current(r)
	upd.apply(&acc.Profile)
	p := acc.Profile
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[passwordChange](w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	hash := s.current(r).passwordHash
	s.mu.Unlock()

	if s.hasher.Compare(hash, req.OldPassword) != nil {
		writeFields(w, map[string][]string{"old_password": {"Wrong password."}})
		return
	}

	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		writeFields(w, map[string][]string{"new_password": {"Can't use this as password"}})
		return
	}

	s.mu.Lock()
	s.current(r).passwordHash = newHash
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

func (s *Server) handleRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"roles": roleOptions})
}

func (s *Server) handlePermissions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"permissions": permissionOptions})
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	accounts := sorted(s.db.accounts, nil)
	s.mu.Unlock()

	users := make([]models.Profile, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, a.Profile)
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[userCreate](w, r)
	if !ok {
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		writeFields(w, map[string][]string{"password": {"Can't use this as password"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.db.accountByUsername(req.Username); exists {
		writeFields(w, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}

	id := s.db.nextID()
	acc := &account{
		Profile: models.Profile{
			ID:          id,
			Username:    req.Username,
			Email:       req.Email,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Role:        req.Role,
			IsStaff:     req.Role != models.RoleStaff,
			IsSuperuser: false,
			IsActive:    req.IsActive,
			CreatedAt:   s.db.now(),
		},
		passwordHash: hash,
	}
	s.db.accounts[id] = acc

	writeJSON(w, http.StatusCreated, acc.Profile)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.withAccount(w, r, func(acc *account) {
		writeJSON(w, http.StatusOK, acc.Profile)
	})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	patch, ok := bind[userPatch](w, r)
	if !ok {
		return
	}

	s.withAccount(w, r, func(acc *account) {
		patch.apply(&acc.Profile)
		if patch.Role != nil {
			acc.Role = *patch.Role
		}
		if patch.IsActive != nil {
			acc.IsActive = *patch.IsActive
		}
		if patch.Permissions != nil {
			acc.Permissions = patch.Permissions
		}
		writeJSON(w, http.StatusOK, acc.Profile)
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.withAccount(w, r, func(acc *account) {
		if acc.ID == s.current(r).ID {
			writeError(w, http.StatusBadRequest, "You can not delete yourself")
			return
		}
		delete(s.db.accounts, acc.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withAccount(w, r, func(acc *account) {
			acc.IsActive = active
			status := "user deactivated"
			if active {
				status = "user activated"
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": status})
		})
	}
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[passwordReset](w, r)
	if !ok {
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "New password must not be empty")
		return
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		writeFields(w, map[string][]string{"new_password": {"Can't use this as password"}})
		return
	}

	s.withAccount(w, r, func(acc *account) {
		acc.passwordHash = hash
		writeJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
	})
}

// withAccount runs fn under the lock with the account from the path, or answers 404
func (s *Server) withAccount(w http.ResponseWriter, r *http.Request, fn func(*account)) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.db.accounts[id]
	if !ok {
		writeNotFound(w)
		return
	}
	fn(acc)
}
