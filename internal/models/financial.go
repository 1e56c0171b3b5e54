package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FinancialTypeIncome  = "income"
	FinancialTypeExpense = "expense"
)

type FinancialRecord struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Operator    string          `json:"operator,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitzero"`
}

type FinancialSummary struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	NetBalance       decimal.Decimal `json:"net_balance"`
	TransactionCount int             `json:"transaction_count"`
}
