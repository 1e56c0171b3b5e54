package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/bookadmin/internal/handlers/render"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/models"
	"github.com/nkiryanov/bookadmin/internal/service/financial"
	"github.com/nkiryanov/bookadmin/internal/service/purchase"
	"github.com/nkiryanov/bookadmin/internal/service/sale"
)

func handleListPurchases(purchases purchaseService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := purchases.List(r.Context(), purchase.Filter{Status: q.Get("status"), Search: q.Get("search")})
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, list)
	})
}

func handleGetPurchase(purchases purchaseService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		o, err := purchases.Get(r.Context(), id)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, o)
	})
}

func handleCreatePurchase(purchases purchaseService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[purchase.OrderInput](w, r)
		if err != nil {
			return
		}

		o, err := purchases.Create(r.Context(), data)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSONWithStatus(w, o, http.StatusCreated)
	})
}

func handleCreatePurchaseWithBook(purchases purchaseService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[purchase.NewBookOrderInput](w, r)
		if err != nil {
			return
		}

		o, err := purchases.CreateWithNewBook(r.Context(), data)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSONWithStatus(w, o, http.StatusCreated)
	})
}

// handlePurchaseAction serves pay, return and shelve: the API decides whether the move is allowed
func handlePurchaseAction(action func(ctx context.Context, id int64) (models.StatusChange, error), l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		change, err := action(r.Context(), id)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, change)
	})
}

func handleListSales(sales saleService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := sales.List(r.Context())
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, list)
	})
}

func handleGetSale(sales saleService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		sl, err := sales.Get(r.Context(), id)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, sl)
	})
}

func handleCreateSales(sales saleService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[sale.Batch](w, r)
		if err != nil {
			return
		}

		batch, err := sales.CreateBatch(r.Context(), data)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSONWithStatus(w, batch, http.StatusCreated)
	})
}

func handleReturnSale(sales saleService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		change, err := sales.Return(r.Context(), id)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, change)
	})
}

func handleListFinancial(money financialService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := money.List(r.Context(), financial.Filter{Type: q.Get("type"), Category: q.Get("category")})
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, list)
	})
}

func handleGetFinancial(money financialService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		rec, err := money.Get(r.Context(), id)
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, rec)
	})
}

func handleFinancialSummary(money financialService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sum, err := money.Summary(r.Context())
		if err != nil {
			renderError(w, r, err, l)
			return
		}
		render.JSON(w, sum)
	})
}
