package purchase

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bookadmin/internal/apiclient"
	"github.com/nkiryanov/bookadmin/internal/models"
	"github.com/nkiryanov/bookadmin/internal/service"
	"github.com/nkiryanov/bookadmin/internal/service/validate"
)

const pathPurchases = "/purchases/"

type Filter struct {
	Status string
	Search string
}

type OrderInput struct {
	BookID        int64           `json:"book" validate:"required"`
	Quantity      int             `json:"quantity" validate:"gt=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"gt=0"`
	Supplier      string          `json:"supplier,omitempty" validate:"max=200"`
}

// NewBookOrderInput creates the book and its first purchase order in one call
type NewBookOrderInput struct {
	ISBN          string          `json:"isbn" validate:"required,max=13"`
	Title         string          `json:"title" validate:"required,max=200"`
	Author        string          `json:"author" validate:"required,max=100"`
	Publisher     string          `json:"publisher" validate:"required,max=100"`
	Category      string          `json:"category" validate:"required"`
	Description   string          `json:"description,omitempty"`
	Quantity      int             `json:"quantity" validate:"gt=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"gt=0"`
	Supplier      string          `json:"supplier,omitempty" validate:"max=200"`
}

type Service struct {
	api service.API
}

func New(api service.API) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.PurchaseOrder, error) {
	var orders []models.PurchaseOrder
	q := url.Values{"status": {f.Status}, "search": {f.Search}}
	err := s.api.Get(ctx, pathPurchases, &orders, apiclient.WithQuery(q))
	return orders, service.Wrap("list purchase orders", err)
}

func (s *Service) Get(ctx context.Context, id int64) (models.PurchaseOrder, error) {
	var o models.PurchaseOrder
	err := s.api.Get(ctx, service.Path(pathPurchases, id), &o)
	return o, service.Wrap("get purchase order", err)
}

func (s *Service) Create(ctx context.Context, in OrderInput) (models.PurchaseOrder, error) {
	var o models.PurchaseOrder
	if err := validate.Struct(in); err != nil {
		return o, service.Wrap("create purchase order", err)
	}

	err := s.api.Post(ctx, pathPurchases, in, &o)
	return o, service.Wrap("create purchase order", err)
}

func (s *Service) CreateWithNewBook(ctx context.Context, in NewBookOrderInput) (models.PurchaseOrder, error) {
	var o models.PurchaseOrder
	if err := validate.Struct(in); err != nil {
		return o, service.Wrap("create purchase order with new book", err)
	}

	err := s.api.Post(ctx, pathPurchases+"create_with_new_book/", in, &o)
	return o, service.Wrap("create purchase order with new book", err)
}

// Pay moves a pending order to paid. The API adds the quantity to the book stock
func (s *Service) Pay(ctx context.Context, id int64) (models.StatusChange, error) {
	return s.transition(ctx, id, "pay")
}

// Return moves a pending order to returned
func (s *Service) Return(ctx context.Context, id int64) (models.StatusChange, error) {
	return s.transition(ctx, id, "return_order")
}

// Shelve moves a paid order to shelved
func (s *Service) Shelve(ctx context.Context, id int64) (models.StatusChange, error) {
	return s.transition(ctx, id, "shelve")
}

func (s *Service) transition(ctx context.Context, id int64, action string) (models.StatusChange, error) {
	var ch models.StatusChange
	err := s.api.Post(ctx, service.Path(pathPurchases, id, action), nil, &ch)
	return ch, service.Wrap(action+" purchase order", err)
}
