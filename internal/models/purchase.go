package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase order lifecycle: pending -> paid -> shelved, or pending -> returned.
// Transitions are enforced by the API
const (
	PurchaseStatusPending  = "pending"
	PurchaseStatusPaid     = "paid"
	PurchaseStatusReturned = "returned"
	PurchaseStatusShelved  = "shelved"
)

type PurchaseOrder struct {
	ID            int64           `json:"id"`
	BookID        int64           `json:"book"`
	BookTitle     string          `json:"book_title,omitempty"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Total         decimal.Decimal `json:"total"`
	Supplier      string          `json:"supplier,omitempty"`
	Status        string          `json:"status"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at,omitzero"`
}

// Answer of pay/return/shelve actions
type StatusChange struct {
	Message string `json:"message,omitempty"`
	Status  string `json:"status"`
}
