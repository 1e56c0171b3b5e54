package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/guard"
	"github.com/nkiryanov/bookadmin/internal/handlers/render"
	"github.com/nkiryanov/bookadmin/internal/handlers/userctx"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/models"
	"github.com/nkiryanov/bookadmin/internal/service/auth"
)

type sessionResponse struct {
	State   string          `json:"state"`
	User    *models.Profile `json:"user,omitempty"`
	IsAdmin bool            `json:"is_admin"`
}

func handleHealth(sessions sessionManager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, map[string]string{"status": "ok", "session": sessions.Snapshot().State.String()})
	})
}

// Login view. An operator already logged in lands on the dashboard
func handleLoginView(sessions sessionManager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := sessions.Snapshot()
		if snap.IsAuthenticated() {
			http.Redirect(w, r, guard.DefaultPath, http.StatusSeeOther)
			return
		}
		render.JSON(w, sessionResponse{State: snap.State.String()})
	})
}

func handleLogin(sessions sessionManager, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Message  string         `json:"message"`
		User     models.Profile `json:"user"`
		Redirect string         `json:"redirect"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		profile, err := sessions.Login(r.Context(), data.Username, data.Password)
		switch {
		case err == nil:
			render.JSON(w, response{Message: "Logged in", User: profile, Redirect: guard.DefaultPath})
		case errors.Is(err, apperrors.ErrBadCredentials):
			render.ServiceError(w, "Invalid username or password", http.StatusUnauthorized)
		default:
			renderError(w, r, err, l)
		}
	})
}

// Register creates an account. The operator still logs in with it afterwards
func handleRegister(profiles profileService, l logger.Logger) http.Handler {
	type response struct {
		Message  string         `json:"message"`
		User     models.Profile `json:"user"`
		Redirect string         `json:"redirect"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[auth.RegisterRequest](w, r)
		if err != nil {
			return
		}

		profile, err := profiles.Register(r.Context(), data)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		l.Info("Account registered", "username", profile.Username, "role", profile.Role)
		render.JSONWithStatus(w, response{Message: "Registration successful", User: profile, Redirect: guard.LoginPath}, http.StatusCreated)
	})
}

func handleLogout(sessions sessionManager, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessions.Logout(r.Context())
		l.Debug("Operator logged out")
		http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
	})
}

func handleDashboard(money financialService, l logger.Logger) http.Handler {
	type response struct {
		User    *models.Profile          `json:"user"`
		IsAdmin bool                     `json:"is_admin"`
		Summary *models.FinancialSummary `json:"summary,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, _ := userctx.FromContext(r.Context())
		res := response{User: snap.Profile, IsAdmin: snap.IsAdmin()}

		// Not everyone may see the money. The dashboard still renders without it,
		// also when the API refuses the summary to a session the profile says may see it
		if snap.HasPermission("view_financial") {
			sum, err := money.Summary(r.Context())
			switch {
			case err == nil:
				res.Summary = &sum
			case errors.Is(err, apperrors.ErrForbidden):
				l.Debug("Financial summary refused, dashboard rendered without it", "error", err)
			default:
				renderError(w, r, err, l)
				return
			}
		}

		render.JSON(w, res)
	})
}

func handleProfile() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, _ := userctx.FromContext(r.Context())
		render.JSON(w, sessionResponse{State: snap.State.String(), User: snap.Profile, IsAdmin: snap.IsAdmin()})
	})
}

func handleUpdateProfile(profiles profileService, sessions sessionManager, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[auth.ProfileUpdate](w, r)
		if err != nil {
			return
		}

		if _, err := profiles.UpdateMe(r.Context(), data); err != nil {
			renderError(w, r, err, l)
			return
		}

		// The session keeps its own copy of the profile
		profile, err := sessions.RefreshProfile(r.Context())
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, profile)
	})
}

func handleChangePassword(profiles profileService, l logger.Logger) http.Handler {
	type request struct {
		OldPassword     string `json:"old_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8"`
		ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = profiles.ChangePassword(r.Context(), auth.PasswordChange{OldPassword: data.OldPassword, NewPassword: data.NewPassword})
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, map[string]string{"message": "Password changed"})
	})
}
