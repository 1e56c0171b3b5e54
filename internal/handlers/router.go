package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/bookadmin/internal/guard"
	"github.com/nkiryanov/bookadmin/internal/handlers/middleware"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/models"
	"github.com/nkiryanov/bookadmin/internal/service/auth"
	"github.com/nkiryanov/bookadmin/internal/service/catalog"
	"github.com/nkiryanov/bookadmin/internal/service/financial"
	"github.com/nkiryanov/bookadmin/internal/service/purchase"
	"github.com/nkiryanov/bookadmin/internal/service/sale"
	"github.com/nkiryanov/bookadmin/internal/service/user"
	"github.com/nkiryanov/bookadmin/internal/session"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// Services the console views drive
type Services struct {
	Sessions  sessionManager
	Profile   profileService
	Catalog   catalogService
	Purchases purchaseService
	Sales     saleService
	Financial financialService
	Users     userService
}

func NewRouter(s Services, logger logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// protect mounts h behind the route guard
	protect := func(pattern string, path string, h http.Handler) {
		mux.Handle(pattern, middleware.GuardMiddleware(s.Sessions, guard.Route{Path: path})(h))
	}
	adminOnly := func(pattern string, path string, h http.Handler) {
		mux.Handle(pattern, middleware.GuardMiddleware(s.Sessions, guard.Route{Path: path, AdminOnly: true})(h))
	}

	mux.Handle("GET /healthz", handleHealth(s.Sessions))
	mux.Handle("GET /login", handleLoginView(s.Sessions))
	mux.Handle("POST /login", handleLogin(s.Sessions, logger))
	mux.Handle("POST /register", handleRegister(s.Profile, logger))
	mux.Handle("GET /{$}", http.RedirectHandler(guard.DefaultPath, http.StatusSeeOther))

	protect("POST /logout", "/logout", handleLogout(s.Sessions, logger))
	protect("GET /dashboard", "/dashboard", handleDashboard(s.Financial, logger))
	protect("GET /profile", "/profile", handleProfile())
	protect("PUT /profile", "/profile", handleUpdateProfile(s.Profile, s.Sessions, logger))
	protect("POST /profile/password", "/profile", handleChangePassword(s.Profile, logger))

	protect("GET /books", "/books", handleListBooks(s.Catalog, logger))
	protect("POST /books", "/books", handleCreateBook(s.Catalog, logger))
	protect("GET /books/{id}", "/books", handleGetBook(s.Catalog, logger))
	protect("PUT /books/{id}", "/books", handleUpdateBook(s.Catalog, logger))
	protect("DELETE /books/{id}", "/books", handleDeleteBook(s.Catalog, logger))
	protect("POST /books/{id}/stock", "/books", handleUpdateStock(s.Catalog, logger))
	protect("POST /books/{id}/status", "/books", handleChangeStatus(s.Catalog, logger))
	protect("GET /categories", "/categories", handleListCategories(s.Catalog, logger))
	protect("POST /categories", "/categories", handleCreateCategory(s.Catalog, logger))
	protect("DELETE /categories/{id}", "/categories", handleDeleteCategory(s.Catalog, logger))

	protect("GET /purchases", "/purchases", handleListPurchases(s.Purchases, logger))
	protect("POST /purchases", "/purchases", handleCreatePurchase(s.Purchases, logger))
	protect("POST /purchases/new-book", "/purchases", handleCreatePurchaseWithBook(s.Purchases, logger))
	protect("GET /purchases/{id}", "/purchases", handleGetPurchase(s.Purchases, logger))
	protect("POST /purchases/{id}/pay", "/purchases", handlePurchaseAction(s.Purchases.Pay, logger))
	protect("POST /purchases/{id}/return", "/purchases", handlePurchaseAction(s.Purchases.Return, logger))
	protect("POST /purchases/{id}/shelve", "/purchases", handlePurchaseAction(s.Purchases.Shelve, logger))

	protect("GET /sales", "/sales", handleListSales(s.Sales, logger))
	protect("POST /sales", "/sales", handleCreateSales(s.Sales, logger))
	protect("GET /sales/{id}", "/sales", handleGetSale(s.Sales, logger))
	protect("POST /sales/{id}/return", "/sales", handleReturnSale(s.Sales, logger))

	protect("GET /financial", "/financial", handleListFinancial(s.Financial, logger))
	protect("GET /financial/summary", "/financial", handleFinancialSummary(s.Financial, logger))
	protect("GET /financial/{id}", "/financial", handleGetFinancial(s.Financial, logger))

	adminOnly("GET /users", "/users", handleListUsers(s.Users, logger))
	adminOnly("POST /users", "/users", handleCreateUser(s.Users, logger))
	adminOnly("GET /users/roles", "/users", handleRoles(s.Users, logger))
	adminOnly("GET /users/permissions", "/users", handlePermissions(s.Users, logger))
	adminOnly("GET /users/{id}", "/users", handleGetUser(s.Users, logger))
	adminOnly("PATCH /users/{id}", "/users", handleUpdateUser(s.Users, logger))
	adminOnly("DELETE /users/{id}", "/users", handleDeleteUser(s.Users, logger))
	adminOnly("POST /users/{id}/activate", "/users", handleUserAction(s.Users.Activate, logger))
	adminOnly("POST /users/{id}/deactivate", "/users", handleUserAction(s.Users.Deactivate, logger))
	adminOnly("POST /users/{id}/reset-password", "/users", handleResetPassword(s.Users, logger))

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type sessionManager interface {
	Snapshot() session.Snapshot

	// Has to return apperrors.ErrBadCredentials if the API rejects the pair
	Login(ctx context.Context, username string, password string) (models.Profile, error)

	// Never fails: the local session ends whatever the API answers
	Logout(ctx context.Context)

	RefreshProfile(ctx context.Context) (models.Profile, error)
}

type profileService interface {
	// Anonymous: registering neither needs nor changes the session
	Register(ctx context.Context, req auth.RegisterRequest) (models.Profile, error)
	UpdateMe(ctx context.Context, upd auth.ProfileUpdate) (models.Profile, error)
	ChangePassword(ctx context.Context, req auth.PasswordChange) error
}

type catalogService interface {
	ListBooks(ctx context.Context, f catalog.BookFilter) ([]models.Book, error)
	GetBook(ctx context.Context, id int64) (models.Book, error)
	CreateBook(ctx context.Context, in catalog.BookInput) (models.Book, error)
	UpdateBook(ctx context.Context, id int64, in catalog.BookInput) (models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	UpdateStock(ctx context.Context, id int64, quantity int) (models.Book, error)
	ChangeStatus(ctx context.Context, id int64, status string) (models.Book, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, in catalog.CategoryInput) (models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type purchaseService interface {
	List(ctx context.Context, f purchase.Filter) ([]models.PurchaseOrder, error)
	Get(ctx context.Context, id int64) (models.PurchaseOrder, error)
	Create(ctx context.Context, in purchase.OrderInput) (models.PurchaseOrder, error)
	CreateWithNewBook(ctx context.Context, in purchase.NewBookOrderInput) (models.PurchaseOrder, error)
	Pay(ctx context.Context, id int64) (models.StatusChange, error)
	Return(ctx context.Context, id int64) (models.StatusChange, error)
	Shelve(ctx context.Context, id int64) (models.StatusChange, error)
}

type saleService interface {
	List(ctx context.Context) ([]models.Sale, error)
	Get(ctx context.Context, id int64) (models.Sale, error)
	CreateBatch(ctx context.Context, b sale.Batch) (models.SaleBatch, error)
	Return(ctx context.Context, id int64) (models.StatusChange, error)
}

type financialService interface {
	List(ctx context.Context, f financial.Filter) ([]models.FinancialRecord, error)
	Get(ctx context.Context, id int64) (models.FinancialRecord, error)
	Summary(ctx context.Context) (models.FinancialSummary, error)
}

type userService interface {
	List(ctx context.Context) ([]models.Profile, error)
	Get(ctx context.Context, id int64) (models.Profile, error)
	Create(ctx context.Context, in user.CreateInput) (models.Profile, error)
	Update(ctx context.Context, id int64, in user.UpdateInput) (models.Profile, error)
	Delete(ctx context.Context, id int64) error
	Activate(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
	ResetPassword(ctx context.Context, id int64, newPassword string) error
	Roles(ctx context.Context) ([]models.Option, error)
	Permissions(ctx context.Context) ([]models.Option, error)
}
