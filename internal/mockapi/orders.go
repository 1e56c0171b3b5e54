package mockapi

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bookadmin/internal/models"
)

// New books are priced at purchase price plus this markup
var newBookMarkup = decimal.RequireFromString("1.3")

type purchaseInput struct {
	BookID        int64           `json:"book" validate:"required"`
	Quantity      int             `json:"quantity" validate:"gt=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"gt=0"`
	Supplier      string          `json:"supplier" validate:"max=200"`
}

type purchaseWithBookInput struct {
	ISBN          string          `json:"isbn" validate:"required,max=13"`
	Title         string          `json:"title" validate:"required,max=200"`
	Author        string          `json:"author" validate:"required,max=100"`
	Publisher     string          `json:"publisher" validate:"required,max=100"`
	Category      string          `json:"category" validate:"required"`
	Description   string          `json:"description"`
	Quantity      int             `json:"quantity" validate:"gt=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"gt=0"`
	Supplier      string          `json:"supplier" validate:"max=200"`
}

type saleItem struct {
	BookID   int64 `json:"book_id" validate:"required"`
	Quantity int   `json:"quantity" validate:"gt=0"`
}

type saleBatch struct {
	Items []saleItem `json:"items" validate:"dive"`
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, search := q.Get("status"), q.Get("search")

	s.mu.Lock()
	orders := sorted(s.db.purchases, func(o *models.PurchaseOrder) bool {
		if status != "" && o.Status != status {
			return false
		}
		if search != "" {
			b, ok := s.db.books[o.BookID]
			return ok && (containsFold(b.Title, search) || containsFold(b.Author, search) ||
				containsFold(b.Publisher, search) || containsFold(b.ISBN, search))
		}
		return true
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	in, ok := bind[purchaseInput](w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.db.books[in.BookID]
	if !ok {
		writeFields(w, map[string][]string{"book": {fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", in.BookID)}})
		return
	}

	o := s.newPurchase(b, in.Quantity, in.PurchasePrice, in.Supplier, s.current(r).Username)
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleCreatePurchaseWithBook(w http.ResponseWriter, r *http.Request) {
	in, ok := bind[purchaseWithBookInput](w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isbnTaken(in.ISBN, 0) {
		writeFields(w, map[string][]string{"isbn": {"book with this isbn already exists."}})
		return
	}

	now := s.db.now()
	b := &models.Book{
		ID:          s.db.nextID(),
		ISBN:        in.ISBN,
		Title:       in.Title,
		Author:      in.Author,
		Publisher:   in.Publisher,
		Category:    in.Category,
		Description: in.Description,
		Price:       in.PurchasePrice.Mul(newBookMarkup).Round(2),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	setStock(b, 0)
	s.db.books[b.ID] = b

	o := s.newPurchase(b, in.Quantity, in.PurchasePrice, in.Supplier, s.current(r).Username)
	writeJSON(w, http.StatusCreated, o)
}

// Callers hold s.mu
func (s *Server) newPurchase(b *models.Book, qty int, price decimal.Decimal, supplier string, by string) *models.PurchaseOrder {
	o := &models.PurchaseOrder{
		ID:            s.db.nextID(),
		BookID:        b.ID,
		BookTitle:     b.Title,
		Quantity:      qty,
		PurchasePrice: price,
		Total:         price.Mul(decimal.NewFromInt(int64(qty))),
		Supplier:      supplier,
		Status:        models.PurchaseStatusPending,
		CreatedBy:     by,
		CreatedAt:     s.db.now(),
	}
	s.db.purchases[o.ID] = o
	return o
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	s.withPurchase(w, r, func(o *models.PurchaseOrder) {
		writeJSON(w, http.StatusOK, o)
	})
}

// Allowed moves: pending -> paid -> shelved, pending -> returned
func (s *Server) handlePurchaseTransition(action string) http.HandlerFunc {
	type move struct {
		from    string
		to      string
		message string
	}
	moves := map[string]move{
		"pay":          {models.PurchaseStatusPending, models.PurchaseStatusPaid, "Payment successful"},
		"return_order": {models.PurchaseStatusPending, models.PurchaseStatusReturned, "Order returned"},
		"shelve":       {models.PurchaseStatusPaid, models.PurchaseStatusShelved, "Order shelved"},
	}
	mv := moves[action]

	return func(w http.ResponseWriter, r *http.Request) {
		s.withPurchase(w, r, func(o *models.PurchaseOrder) {
			if o.Status != mv.from {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("Only %s orders can be moved to %s", mv.from, mv.to))
				return
			}
			o.Status = mv.to

			if action == "pay" {
				if b, ok := s.db.books[o.BookID]; ok {
					setStock(b, b.Stock+o.Quantity)
				}
				s.db.addFinancial(models.FinancialTypeExpense, "purchase", o.Total,
					fmt.Sprintf("Purchase order %d paid", o.ID), s.current(r).Username)
			}

			writeJSON(w, http.StatusOK, models.StatusChange{Message: mv.message, Status: o.Status})
		})
	}
}

func (s *Server) withPurchase(w http.ResponseWriter, r *http.Request, fn func(*models.PurchaseOrder)) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.db.purchases[id]
	if !ok {
		writeNotFound(w)
		return
	}
	fn(o)
}

func (s *Server) handleListSales(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	sales := sorted(s.db.sales, nil)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, sales)
}

func (s *Server) handleGetSale(w http.ResponseWriter, r *http.Request) {
	s.withSale(w, r, func(sl *models.Sale) {
		writeJSON(w, http.StatusOK, sl)
	})
}

// handleCreateSales sells every item or nothing
func (s *Server) handleCreateSales(w http.ResponseWriter, r *http.Request) {
	in, ok := bind[saleBatch](w, r)
	if !ok {
		return
	}
	if len(in.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Sale items must not be empty")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check the whole batch first, a book may appear more than once
	want := make(map[int64]int)
	for _, it := range in.Items {
		b, ok := s.db.books[it.BookID]
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Book %d does not exist", it.BookID))
			return
		}
		if b.Status != models.BookStatusInStock {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Book %s is not for sale", b.Title))
			return
		}
		want[b.ID] += it.Quantity
		if b.Stock < want[b.ID] {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Not enough stock for %s", b.Title))
			return
		}
	}

	by := s.current(r).Username
	total := decimal.Zero
	sales := make([]models.Sale, 0, len(in.Items))
	for _, it := range in.Items {
		b := s.db.books[it.BookID]
		sl := &models.Sale{
			ID:        s.db.nextID(),
			BookID:    b.ID,
			BookTitle: b.Title,
			Quantity:  it.Quantity,
			SalePrice: b.Price,
			Total:     b.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
			Status:    models.SaleStatusCompleted,
			CreatedBy: by,
			CreatedAt: s.db.now(),
		}
		s.db.sales[sl.ID] = sl
		setStock(b, b.Stock-it.Quantity)
		total = total.Add(sl.Total)
		sales = append(sales, *sl)
	}
	s.db.addFinancial(models.FinancialTypeIncome, "sale", total, fmt.Sprintf("Sold %d item(s)", len(sales)), by)

	writeJSON(w, http.StatusCreated, sales)
}

func (s *Server) handleReturnSale(w http.ResponseWriter, r *http.Request) {
	s.withSale(w, r, func(sl *models.Sale) {
		if sl.Status != models.SaleStatusCompleted {
			writeError(w, http.StatusBadRequest, "Sale is already returned")
			return
		}
		sl.Status = models.SaleStatusReturned

		if b, ok := s.db.books[sl.BookID]; ok {
			setStock(b, b.Stock+sl.Quantity)
		}
		s.db.addFinancial(models.FinancialTypeExpense, "refund", sl.Total,
			fmt.Sprintf("Sale %d returned", sl.ID), s.current(r).Username)

		writeJSON(w, http.StatusOK, models.StatusChange{Message: "Sale returned", Status: sl.Status})
	})
}

func (s *Server) withSale(w http.ResponseWriter, r *http.Request, fn func(*models.Sale)) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.db.sales[id]
	if !ok {
		writeNotFound(w)
		return
	}
	fn(sl)
}
