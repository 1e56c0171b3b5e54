package mockapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bookadmin/internal/models"
)

type bookInput struct {
	ISBN        string          `json:"isbn" validate:"required,max=13"`
	Title       string          `json:"title" validate:"required,max=200"`
	Author      string          `json:"author" validate:"required,max=100"`
	Publisher   string          `json:"publisher" validate:"required,max=100"`
	Category    string          `json:"category" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Status      string          `json:"status" validate:"omitempty,book_status"`
	Description string          `json:"description"`
}

func (in bookInput) apply(b *models.Book) {
	b.ISBN = in.ISBN
	b.Title = in.Title
	b.Author = in.Author
	b.Publisher = in.Publisher
	b.Category = in.Category
	b.Price = in.Price
	b.Description = in.Description
	if in.Status != "" {
		b.Status = in.Status
	}
	setStock(b, in.Stock)
}

type stockChange struct {
	Quantity int `json:"quantity" validate:"ne=0"`
}

type statusChange struct {
	Status string `json:"status" validate:"required,book_status"`
}

type categoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search, category, status := q.Get("search"), q.Get("category"), q.Get("status")

	s.mu.Lock()
	books := sorted(s.db.books, func(b *models.Book) bool {
		if category != "" && b.Category != category {
			return false
		}
		if status != "" && b.Status != status {
			return false
		}
		if search != "" {
			return containsFold(b.Title, search) || containsFold(b.Author, search) ||
				containsFold(b.Publisher, search) || containsFold(b.ISBN, search)
		}
		return true
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	in, ok := bind[bookInput](w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isbnTaken(in.ISBN, 0) {
		writeFields(w, map[string][]string{"isbn": {"book with this isbn already exists."}})
		return
	}

	b := &models.Book{ID: s.db.nextID(), CreatedAt: s.db.now()}
	b.UpdatedAt = b.CreatedAt
	in.apply(b)
	s.db.books[b.ID] = b

	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	s.withBook(w, r, func(b *models.Book) {
		writeJSON(w, http.StatusOK, b)
	})
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	in, ok := bind[bookInput](w, r)
	if !ok {
		return
	}

	s.withBook(w, r, func(b *models.Book) {
		if s.isbnTaken(in.ISBN, b.ID) {
			writeFields(w, map[string][]string{"isbn": {"book with this isbn already exists."}})
			return
		}
		in.apply(b)
		b.UpdatedAt = s.db.now()
		writeJSON(w, http.StatusOK, b)
	})
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	s.withBook(w, r, func(b *models.Book) {
		delete(s.db.books, b.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) handleUpdateStock(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[stockChange](w, r)
	if !ok {
		return
	}

	s.withBook(w, r, func(b *models.Book) {
		if b.Stock+req.Quantity < 0 {
			writeError(w, http.StatusBadRequest, "Stock can not be negative")
			return
		}
		setStock(b, b.Stock+req.Quantity)
		b.UpdatedAt = s.db.now()
		writeJSON(w, http.StatusOK, b)
	})
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[statusChange](w, r)
	if !ok {
		return
	}

	s.withBook(w, r, func(b *models.Book) {
		if req.Status == models.BookStatusInStock && b.Stock == 0 {
			writeError(w, http.StatusBadRequest, "Book without stock can not be in stock")
			return
		}
		b.Status = req.Status
		b.UpdatedAt = s.db.now()
		writeJSON(w, http.StatusOK, b)
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	categories := sorted(s.db.categories, nil)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	in, ok := bind[categoryInput](w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.db.categories {
		if c.Name == in.Name {
			writeFields(w, map[string][]string{"name": {"category with this name already exists."}})
			return
		}
	}

	c := &models.Category{ID: s.db.nextID(), Name: in.Name, Description: in.Description}
	s.db.categories[c.ID] = c

	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.categories[id]; !ok {
		writeNotFound(w)
		return
	}
	delete(s.db.categories, id)
	w.WriteHeader(http.StatusNoContent)
}

// Callers hold s.mu
func (s *Server) isbnTaken(isbn string, except int64) bool {
	for _, b := range s.db.books {
		if b.ISBN == isbn && b.ID != except {
			return true
		}
	}
	return false
}

// withBook runs fn under the lock with the book from the path, or answers 404
func (s *Server) withBook(w http.ResponseWriter, r *http.Request, fn func(*models.Book)) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.db.books[id]
	if !ok {
		writeNotFound(w)
		return
	}
	fn(b)
}
