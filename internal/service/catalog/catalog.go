package catalog

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bookadmin/internal/apiclient"
	"github.com/nkiryanov/bookadmin/internal/models"
	"github.com/nkiryanov/bookadmin/internal/service"
	"github.com/nkiryanov/bookadmin/internal/service/validate"
)

const (
	pathBooks      = "/books/"
	pathCategories = "/categories/"
)

type BookFilter struct {
	Search   string
	Category string
	Status   string
}

func (f BookFilter) query() url.Values {
	return url.Values{
		"search":   {f.Search},
		"category": {f.Category},
		"status":   {f.Status},
	}
}

type BookInput struct {
	ISBN        string          `json:"isbn" validate:"required,max=13"`
	Title       string          `json:"title" validate:"required,max=200"`
	Author      string          `json:"author" validate:"required,max=100"`
	Publisher   string          `json:"publisher" validate:"required,max=100"`
	Category    string          `json:"category" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Status      string          `json:"status,omitempty" validate:"omitempty,book_status"`
	Description string          `json:"description,omitempty"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty"`
}

type stockChange struct {
	Quantity int `json:"quantity" validate:"ne=0"`
}

type statusChange struct {
	Status string `json:"status" validate:"required,book_status"`
}

type Service struct {
	api service.API
}

func New(api service.API) *Service {
	return &Service{api: api}
}

func (s *Service) ListBooks(ctx context.Context, f BookFilter) ([]models.Book, error) {
	var books []models.Book
	err := s.api.Get(ctx, pathBooks, &books, apiclient.WithQuery(f.query()))
	return books, service.Wrap("list books", err)
}

func (s *Service) GetBook(ctx context.Context, id int64) (models.Book, error) {
	var b models.Book
	err := s.api.Get(ctx, service.Path(pathBooks, id), &b)
	return b, service.Wrap("get book", err)
}

func (s *Service) CreateBook(ctx context.Context, in BookInput) (models.Book, error) {
	var b models.Book
	if err := validate.Struct(in); err != nil {
		return b, service.Wrap("create book", err)
	}

	err := s.api.Post(ctx, pathBooks, in, &b)
	return b, service.Wrap("create book", err)
}

func (s *Service) UpdateBook(ctx context.Context, id int64, in BookInput) (models.Book, error) {
	var b models.Book
	if err := validate.Struct(in); err != nil {
		return b, service.Wrap("update book", err)
	}

	err := s.api.Put(ctx, service.Path(pathBooks, id), in, &b)
	return b, service.Wrap("update book", err)
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	return service.Wrap("delete book", s.api.Delete(ctx, service.Path(pathBooks, id)))
}

// UpdateStock adds quantity (negative to remove) to the book stock and returns the book as the API reports it
func (s *Service) UpdateStock(ctx context.Context, id int64, quantity int) (models.Book, error) {
	var b models.Book
	req := stockChange{Quantity: quantity}
	if err := validate.Struct(req); err != nil {
		return b, service.Wrap("update stock", err)
	}

	err := s.api.Post(ctx, service.Path(pathBooks, id, "update_stock"), req, &b)
	return b, service.Wrap("update stock", err)
}

func (s *Service) ChangeStatus(ctx context.Context, id int64, status string) (models.Book, error) {
	var b models.Book
	req := statusChange{Status: status}
	if err := validate.Struct(req); err != nil {
		return b, service.Wrap("change book status", err)
	}

	err := s.api.Post(ctx, service.Path(pathBooks, id, "change_status"), req, &b)
	return b, service.Wrap("change book status", err)
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cs []models.Category
	err := s.api.Get(ctx, pathCategories, &cs)
	return cs, service.Wrap("list categories", err)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (models.Category, error) {
	var c models.Category
	if err := validate.Struct(in); err != nil {
		return c, service.Wrap("create category", err)
	}

	err := s.api.Post(ctx, pathCategories, in, &c)
	return c, service.Wrap("create category", err)
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return service.Wrap("delete category", s.api.Delete(ctx, service.Path(pathCategories, id)))
}
