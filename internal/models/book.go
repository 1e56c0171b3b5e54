package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BookStatusInStock      = "in_stock"
	BookStatusOutOfStock   = "out_of_stock"
	BookStatusDiscontinued = "discontinued"
)

type Book struct {
	ID          int64           `json:"id"`
	ISBN        string          `json:"isbn"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Publisher   string          `json:"publisher"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitzero"`
	UpdatedAt   time.Time       `json:"updated_at,omitzero"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
