package mockapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bookadmin/internal/models"
)

func (s *Server) handleListFinancial(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, category := q.Get("type"), q.Get("category")

	s.mu.Lock()
	records := sorted(s.db.financial, func(f *models.FinancialRecord) bool {
		return (kind == "" || f.Type == kind) && (category == "" || f.Category == category)
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetFinancial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.db.financial[id]
	if !ok {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleFinancialSummary(w http.ResponseWriter, _ *http.Request) {
	sum := models.FinancialSummary{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}

	s.mu.Lock()
	for _, f := range s.db.financial {
		switch f.Type {
		case models.FinancialTypeIncome:
			sum.TotalIncome = sum.TotalIncome.Add(f.Amount)
		case models.FinancialTypeExpense:
			sum.TotalExpense = sum.TotalExpense.Add(f.Amount)
		}
		sum.TransactionCount++
	}
	s.mu.Unlock()

	sum.NetBalance = sum.TotalIncome.Sub(sum.TotalExpense)
	writeJSON(w, http.StatusOK, sum)
}
