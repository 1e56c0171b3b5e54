package financial

import (
	"context"
	"net/url"

	"github.com/nkiryanov/bookadmin/internal/apiclient"
	"github.com/nkiryanov/bookadmin/internal/models"
	"github.com/nkiryanov/bookadmin/internal/service"
)

const pathFinancial = "/financial/"

type Filter struct {
	Type     string
	Category string
}

type Service struct {
	api service.API
}

func New(api service.API) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.FinancialRecord, error) {
	var records []models.FinancialRecord
	q := url.Values{"type": {f.Type}, "category": {f.Category}}
	err := s.api.Get(ctx, pathFinancial, &records, apiclient.WithQuery(q))
	return records, service.Wrap("list financial records", err)
}

func (s *Service) Get(ctx context.Context, id int64) (models.FinancialRecord, error) {
	var r models.FinancialRecord
	err := s.api.Get(ctx, service.Path(pathFinancial, id), &r)
	return r, service.Wrap("get financial record", err)
}

func (s *Service) Summary(ctx context.Context) (models.FinancialSummary, error) {
	var sum models.FinancialSummary
	err := s.api.Get(ctx, pathFinancial+"summary/", &sum)
	return sum, service.Wrap("get financial summary", err)
}
