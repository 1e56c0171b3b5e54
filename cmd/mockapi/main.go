package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/mockapi"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("Mock API stopped with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, getenv func(string) string, getwd func() (string, error), args []string) error {
	c := NewConfig()
	if err := c.LoadDotEnv(getwd); err != nil {
		return fmt.Errorf("error while reading .env: %w", err)
	}
	if err := c.LoadEnv(getenv); err != nil {
		return err
	}
	if err := c.ParseFlags(args); err != nil {
		return err
	}

	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return fmt.Errorf("error while initializing logger: %w", err)
	}

	api, err := mockapi.New(mockapi.Config{SecretKey: c.SecretKey, AccessTTL: c.AccessTTL}, l)
	if err != nil {
		return fmt.Errorf("error while creating mock api: %w", err)
	}

	srv := &http.Server{Addr: c.ListenAddr, Handler: api.Handler(), ErrorLog: logger.ErrorLog(l)}
	go func() {
		<-ctx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(timeoutCtx); err != nil {
			l.Error("HTTP server shutdown failed", "error", err)
		}
	}()

	l.Info("Serving mock bookstore API", "address", c.ListenAddr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	l.Info("HTTP server stopped")
	return nil
}
