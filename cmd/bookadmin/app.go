package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/bookadmin/internal/apiclient"
	"github.com/nkiryanov/bookadmin/internal/db"
	"github.com/nkiryanov/bookadmin/internal/handlers"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/service/auth"
	"github.com/nkiryanov/bookadmin/internal/service/catalog"
	"github.com/nkiryanov/bookadmin/internal/service/financial"
	"github.com/nkiryanov/bookadmin/internal/service/purchase"
	"github.com/nkiryanov/bookadmin/internal/service/sale"
	"github.com/nkiryanov/bookadmin/internal/service/user"
	"github.com/nkiryanov/bookadmin/internal/session"
	"github.com/nkiryanov/bookadmin/internal/tokenstore"
)

type ConsoleApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	manager *session.Manager
	closers []func()
}

func NewConsoleApp(ctx context.Context, c *Config) (*ConsoleApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	app := &ConsoleApp{ListenAddr: c.ListenAddr, logger: logger}

	backend, err := app.openBackend(ctx, c)
	if err != nil {
		app.Close()
		return nil, err
	}
	store := tokenstore.Open(ctx, backend, logger)

	client, err := apiclient.New(c.APIBaseURL, store, logger, apiclient.WithTimeout(c.RequestTimeout))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating api client: %w", err)
	}

	// Initialize services
	authService := auth.New(client)
	app.manager = session.NewManager(store, authService, logger)

	// The single place a 401 ends the session
	client.OnUnauthorized(app.manager.ExpireToken)
	app.manager.LogTransitions(logger)

	// Views are served only once the stored credential is verified
	app.manager.Init(ctx)

	app.Handler = handlers.NewRouter(handlers.Services{
		Sessions:  app.manager,
		Profile:   authService,
		Catalog:   catalog.New(client),
		Purchases: purchase.New(client),
		Sales:     sale.New(client),
		Financial: financial.New(client),
		Users:     user.New(client),
	}, logger)

	return app, nil
}

func (a *ConsoleApp) openBackend(ctx context.Context, c *Config) (tokenstore.Backend, error) {
	switch c.TokenStore {
	case StoreMemory:
		return tokenstore.NewMemory(), nil
	case StoreFile:
		return tokenstore.NewFile(c.TokenFile), nil
	case StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		return tokenstore.NewRedis(rdb, c.Profile), nil
	case StorePostgres:
		// Connect to the database and run migrations
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		return tokenstore.NewPostgres(pool, c.Profile), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", c.TokenStore)
	}
}

// Run starts http server and closes gracefully on context cancellation
func (a *ConsoleApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              a.ListenAddr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.ErrorLog(a.logger),
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			a.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		a.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	a.logger.Info("Starting console", "address", a.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

// Close releases the session and the token store connections
func (a *ConsoleApp) Close() {
	if a.manager != nil {
		a.manager.Dispose()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
