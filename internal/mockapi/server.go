package mockapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/bookadmin/internal/handlers/middleware"
	"github.com/nkiryanov/bookadmin/internal/logger"
)

const (
	csrfCookie = "csrftoken"
	csrfHeader = "X-CSRFToken"
)

type Config struct {
	// Secret key to sign access tokens. Required
	SecretKey string

	// Access token lifetime. Default 15m
	AccessTTL time.Duration

	// Seeded accounts. DefaultUsers if nil
	Users []SeedUser

	// bcrypt cost. bcrypt.DefaultCost if zero
	HashCost int
}

// Server is an in-memory bookstore API good enough to drive the console
type Server struct {
	tokens *tokenIssuer
	hasher bcryptHasher
	logger logger.Logger

	mu sync.Mutex
	db *db
}

func New(cfg Config, l logger.Logger) (*Server, error) {
	tokens, err := newTokenIssuer(cfg.SecretKey, cfg.AccessTTL)
	if err != nil {
		return nil, err
	}

	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if cfg.Users == nil {
		cfg.Users = DefaultUsers
	}

	s := &Server{
		tokens: tokens,
		hasher: bcryptHasher{cost: cfg.HashCost},
		logger: l,
		db:     newDB(time.Now),
	}
	if err := s.seed(cfg.Users); err != nil {
		return nil, err
	}

	return s, nil
}

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// Handler serves the API under /api/
func (s *Server) Handler() http.Handler {
	authed := func(h http.HandlerFunc) http.Handler { return chain(h, s.requireAuth) }
	admin := func(h http.HandlerFunc) http.Handler { return chain(h, s.requireAuth, s.requireAdmin) }

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login/{$}", s.handleLogin)
	mux.HandleFunc("POST /api/auth/register/{$}", s.handleRegister)
	mux.Handle("POST /api/auth/logout/{$}", authed(s.handleLogout))

	mux.Handle("GET /api/users/me/{$}", authed(s.handleMe))
	mux.Handle("PUT /api/users/me/{$}", authed(s.handleUpdateMe))
	mux.Handle("POST /api/users/change_password/{$}", authed(s.handleChangePassword))
	mux.Handle("GET /api/users/roles/{$}", authed(s.handleRoles))
	mux.Handle("GET /api/users/permissions/{$}", authed(s.handlePermissions))
	mux.Handle("GET /api/users/{$}", admin(s.handleListUsers))
	mux.Handle("POST /api/users/{$}", admin(s.handleCreateUser))
	mux.Handle("GET /api/users/{id}/{$}", admin(s.handleGetUser))
	mux.Handle("PATCH /api/users/{id}/{$}", admin(s.handleUpdateUser))
	mux.Handle("DELETE /api/users/{id}/{$}", admin(s.handleDeleteUser))
	mux.Handle("POST /api/users/{id}/activate/{$}", admin(s.handleSetActive(true)))
	mux.Handle("POST /api/users/{id}/deactivate/{$}", admin(s.handleSetActive(false)))
	mux.Handle("POST /api/users/{id}/reset_password/{$}", admin(s.handleResetPassword))

	mux.Handle("GET /api/books/{$}", authed(s.handleListBooks))
	mux.Handle("POST /api/books/{$}", authed(s.handleCreateBook))
	mux.Handle("GET /api/books/{id}/{$}", authed(s.handleGetBook))
	mux.Handle("PUT /api/books/{id}/{$}", authed(s.handleUpdateBook))
	mux.Handle("DELETE /api/books/{id}/{$}", authed(s.handleDeleteBook))
	mux.Handle("POST /api/books/{id}/update_stock/{$}", authed(s.handleUpdateStock))
	mux.Handle("POST /api/books/{id}/change_status/{$}", authed(s.handleChangeStatus))

	mux.Handle("GET /api/categories/{$}", authed(s.handleListCategories))
	mux.Handle("POST /api/categories/{$}", authed(s.handleCreateCategory))
	mux.Handle("DELETE /api/categories/{id}/{$}", authed(s.handleDeleteCategory))

	mux.Handle("GET /api/purchases/{$}", authed(s.handleListPurchases))
	mux.Handle("POST /api/purchases/{$}", authed(s.handleCreatePurchase))
	mux.Handle("POST /api/purchases/create_with_new_book/{$}", authed(s.handleCreatePurchaseWithBook))
	mux.Handle("GET /api/purchases/{id}/{$}", authed(s.handleGetPurchase))
	mux.Handle("POST /api/purchases/{id}/pay/{$}", authed(s.handlePurchaseTransition("pay")))
	mux.Handle("POST /api/purchases/{id}/return_order/{$}", authed(s.handlePurchaseTransition("return_order")))
	mux.Handle("POST /api/purchases/{id}/shelve/{$}", authed(s.handlePurchaseTransition("shelve")))

	mux.Handle("GET /api/sales/{$}", authed(s.handleListSales))
	mux.Handle("GET /api/sales/{id}/{$}", authed(s.handleGetSale))
	mux.Handle("POST /api/sales/create_batch/{$}", authed(s.handleCreateSales))
	mux.Handle("POST /api/sales/{id}/process_return/{$}", authed(s.handleReturnSale))

	mux.Handle("GET /api/financial/{$}", authed(s.handleListFinancial))
	mux.Handle("GET /api/financial/summary/{$}", authed(s.handleFinancialSummary))
	mux.Handle("GET /api/financial/{id}/{$}", authed(s.handleGetFinancial))

	return chain(mux,
		middleware.LoggerMiddleware(s.logger),
		s.checkCSRF,
	)
}

// checkCSRF rejects unsafe requests that carry the csrf cookie without the matching header
func (s *Server) checkCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(csrfCookie)
		if err == nil && cookie.Value != r.Header.Get(csrfHeader) {
			writeDetail(w, http.StatusForbidden, "CSRF Failed: CSRF token missing or incorrect.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey string

const (
	accountKey ctxKey = "account"
	claimsKey  ctxKey = "claims"
)

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		access, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || access == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		claims, err := s.tokens.Parse(access)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		s.mu.Lock()
		acc, ok := s.db.accounts[claims.UserID]
		var id int64
		if ok && acc.IsActive {
			id = acc.ID
		}
		s.mu.Unlock()
		if id == 0 {
			writeDetail(w, http.StatusUnauthorized, "User not found or inactive")
			return
		}

		ctx := context.WithValue(r.Context(), accountKey, id)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		acc := s.current(r)
		isAdmin := acc != nil && (acc.IsSuperuser || acc.Role == "admin")
		s.mu.Unlock()

		if !isAdmin {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// current account of an authenticated request. Callers hold s.mu
func (s *Server) current(r *http.Request) *account {
	id, _ := r.Context().Value(accountKey).(int64)
	return s.db.accounts[id]
}

func requestClaims(r *http.Request) accessClaims {
	c, _ := r.Context().Value(claimsKey).(accessClaims)
	return c
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func newCSRFToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
