package mockapi

import (
	"net/http"

	"github.com/nkiryanov/bookadmin/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type loginAnswer struct {
	Message string         `json:"message"`
	User    models.Profile `json:"user"`
	Tokens  loginTokens    `json:"tokens"`
}

type logoutRequest struct {
	Refresh string `json:"refresh"`
}

type registerRequest struct {
	Username        string      `json:"username" validate:"required,max=150"`
	Password        string      `json:"password" validate:"required,min=8"`
	ConfirmPassword string      `json:"confirm_password" validate:"required,eqfield=Password"`
	Email           string      `json:"email" validate:"omitempty,email"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Role            models.Role `json:"role" validate:"omitempty,role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[loginRequest](w, r)
	if !ok {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide both username and password")
		return
	}

	s.mu.Lock()
	acc, found := s.db.accountByUsername(req.Username)
	var hash string
	var profile models.Profile
	if found {
		hash = acc.passwordHash
		profile = acc.Profile
	}
	s.mu.Unlock()

	if !found || !profile.IsActive || s.hasher.Compare(hash, req.Password) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	pair, err := s.tokens.Issue(profile.ID)
	if err != nil {
		s.logger.Error("Failed to issue tokens", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	csrf, err := newCSRFToken()
	if err != nil {
		s.logger.Error("Failed to issue csrf token", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: csrfCookie, Value: csrf, Path: "/", SameSite: http.SameSiteLaxMode})

	s.logger.Info("User logged in", "username", profile.Username)
	writeJSON(w, http.StatusOK, loginAnswer{
		Message: "Login successful",
		User:    profile,
		Tokens:  loginTokens{Access: pair.Access, Refresh: pair.Refresh},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if r.ContentLength != 0 {
		var ok bool
		if req, ok = bind[logoutRequest](w, r); !ok {
			return
		}
	}

	s.tokens.Revoke(requestClaims(r), req.Refresh)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[registerRequest](w, r)
	if !ok {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleStaff
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
			ID:        id,
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      req.Role,
			IsActive:  true,
			CreatedAt: s.db.now(),
		},
		passwordHash: hash,
	}
	s.db.accounts[id] = acc

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Registration successful", "user": acc.Profile})
}
