package mockapi

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bookadmin/internal/models"
)

type account struct {
	models.Profile
	passwordHash string
}

// db is the whole state of the fake API. Callers hold Server.mu
type db struct {
	now func() time.Time

	accounts   map[int64]*account
	books      map[int64]*models.Book
	categories map[int64]*models.Category
	purchases  map[int64]*models.PurchaseOrder
	sales      map[int64]*models.Sale
	financial  map[int64]*models.FinancialRecord

	lastID int64
}

func newDB(now func() time.Time) *db {
	return &db{
		now:        now,
		accounts:   make(map[int64]*account),
		books:      make(map[int64]*models.Book),
		categories: make(map[int64]*models.Category),
		purchases:  make(map[int64]*models.PurchaseOrder),
		sales:      make(map[int64]*models.Sale),
		financial:  make(map[int64]*models.FinancialRecord),
	}
}

// One id sequence for everything: ids never collide across kinds, which catches mixed up paths in tests
func (d *db) nextID() int64 {
	d.lastID++
	return d.lastID
}

func (d *db) accountByUsername(username string) (*account, bool) {
	for _, a := range d.accounts {
		if a.Username == username {
			return a, true
		}
	}
	return nil, false
}

func (d *db) addFinancial(kind string, category string, amount decimal.Decimal, description string, operator string) {
	id := d.nextID()
	d.financial[id] = &models.FinancialRecord{
		ID:          id,
		Type:        kind,
		Category:    category,
		Amount:      amount,
		Description: description,
		Operator:    operator,
		CreatedAt:   d.now(),
	}
}

// setStock keeps status consistent with stock the way the API does: out of stock on zero, in stock otherwise.
// Discontinued books stay discontinued
func setStock(b *models.Book, stock int) {
	b.Stock = stock
	if b.Status == models.BookStatusDiscontinued {
		return
	}
	if stock == 0 {
		b.Status = models.BookStatusOutOfStock
	} else {
		b.Status = models.BookStatusInStock
	}
}

// sorted returns map values ordered by id
func sorted[T any](m map[int64]*T, keep func(*T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m[id])
	}
	return out
}

func containsFold(s string, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
