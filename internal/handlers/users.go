package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/bookadmin/internal/handlers/render"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/service/user"
)

func handleListUsers(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := users.List(r.Context())
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, list)
	})
}

func handleGetUser(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		u, err := users.Get(r.Context(), id)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, u)
	})
}

func handleCreateUser(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[user.CreateInput](w, r)
		if err != nil {
			return
		}

		u, err := users.Create(r.Context(), data)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSONWithStatus(w, u, http.StatusCreated)
	})
}

func handleUpdateUser(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		data, err := render.BindAndValidate[user.UpdateInput](w, r)
		if err != nil {
			return
		}

		u, err := users.Update(r.Context(), id, data)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, u)
	})
}

func handleDeleteUser(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := users.Delete(r.Context(), id); err != nil {
			renderError(w, r, err, l)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// handleUserAction serves activate and deactivate
func handleUserAction(action func(ctx context.Context, id int64) error, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := action(r.Context(), id); err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, map[string]string{"message": "User updated"})
	})
}

func handleResetPassword(users userService, l logger.Logger) http.Handler {
	type request struct {
		NewPassword string `json:"new_password" validate:"required,min=8"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := users.ResetPassword(r.Context(), id, data.NewPassword); err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, map[string]string{"message": "Password reset"})
	})
}

func handleRoles(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roles, err := users.Roles(r.Context())
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, roles)
	})
}

func handlePermissions(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perms, err := users.Permissions(r.Context())
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, perms)
	})
}
