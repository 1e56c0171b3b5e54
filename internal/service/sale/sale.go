package sale

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bookadmin/internal/models"
	"github.com/nkiryanov/bookadmin/internal/service"
	"github.com/nkiryanov/bookadmin/internal/service/validate"
)

const pathSales = "/sales/"

type Item struct {
	BookID   int64 `json:"book_id" validate:"required"`
	Quantity int   `json:"quantity" validate:"gt=0"`
}

type Batch struct {
	Items []Item `json:"items" validate:"min=1,dive"`
}

type Service struct {
	api service.API
}

func New(api service.API) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.api.Get(ctx, pathSales, &sales)
	return sales, service.Wrap("list sales", err)
}

func (s *Service) Get(ctx context.Context, id int64) (models.Sale, error) {
	var sl models.Sale
	err := s.api.Get(ctx, service.Path(pathSales, id), &sl)
	return sl, service.Wrap("get sale", err)
}

// CreateBatch records one sale per item. Either all items are sold or none
func (s *Service) CreateBatch(ctx context.Context, b Batch) (models.SaleBatch, error) {
	var batch models.SaleBatch
	if err := validate.Struct(b); err != nil {
		return batch, service.Wrap("create sales", err)
	}

	if err := s.api.Post(ctx, pathSales+"create_batch/", b, &batch.Sales); err != nil {
		return batch, service.Wrap("create sales", err)
	}

	batch.TotalAmount = decimal.Zero
	for _, sl := range batch.Sales {
		batch.TotalAmount = batch.TotalAmount.Add(sl.Total)
	}

	return batch, nil
}

// Return moves a completed sale to returned. The API restores the stock and books a refund
func (s *Service) Return(ctx context.Context, id int64) (models.StatusChange, error) {
	var ch models.StatusChange
	err := s.api.Post(ctx, service.Path(pathSales, id, "process_return"), nil, &ch)
	return ch, service.Wrap("return sale", err)
}
