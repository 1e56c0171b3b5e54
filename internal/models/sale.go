package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SaleStatusCompleted = "completed"
	SaleStatusReturned  = "returned"
)

type Sale struct {
	ID        int64           `json:"id"`
	BookID    int64           `json:"book"`
	BookTitle string          `json:"book_title,omitempty"`
	Quantity  int             `json:"quantity"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitzero"`
}

type SaleBatch struct {
	Sales       []Sale          `json:"sales"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
