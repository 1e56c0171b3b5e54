package handlers

import (
	"net/http"

	"github.com/nkiryanov/bookadmin/internal/handlers/render"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/service/catalog"
)

func handleListBooks(books catalogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := books.ListBooks(r.Context(), catalog.BookFilter{
			Search:   q.Get("search"),
			Category: q.Get("category"),
			Status:   q.Get("status"),
		})
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, list)
	})
}

func handleGetBook(books catalogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		book, err := books.GetBook(r.Context(), id)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, book)
	})
}

func handleCreateBook(books catalogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[catalog.BookInput](w, r)
		if err != nil {
			return
		}

		book, err := books.CreateBook(r.Context(), data)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSONWithStatus(w, book, http.StatusCreated)
	})
}

func handleUpdateBook(books catalogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		data, err := render.BindAndValidate[catalog.BookInput](w, r)
		if err != nil {
			return
		}

		book, err := books.UpdateBook(r.Context(), id, data)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, book)
	})
}

func handleDeleteBook(books catalogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := books.DeleteBook(r.Context(), id); err != nil {
			renderError(w, r, err, l)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func handleUpdateStock(books catalogService, l logger.Logger) http.Handler {
	type request struct {
		Quantity int `json:"quantity" validate:"ne=0"`
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

		book, err := books.UpdateStock(r.Context(), id, data.Quantity)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, book)
	})
}

func handleChangeStatus(books catalogService, l logger.Logger) http.Handler {
	type request struct {
		Status string `json:"status" validate:"required,book_status"`
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

		book, err := books.ChangeStatus(r.Context(), id, data.Status)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, book)
	})
}

func handleListCategories(books catalogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := books.ListCategories(r.Context())
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, list)
	})
}

func handleCreateCategory(books catalogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[catalog.CategoryInput](w, r)
		if err != nil {
			return
		}

		c, err := books.CreateCategory(r.Context(), data)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSONWithStatus(w, c, http.StatusCreated)
	})
}

func handleDeleteCategory(books catalogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := books.DeleteCategory(r.Context(), id); err != nil {
			renderError(w, r, err, l)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
