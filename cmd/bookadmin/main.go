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

	"github.com/common-nighthawk/go-figure"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	figure.NewFigure("bookadmin", "cybermedium", true).Print()
	fmt.Println()

	if err := run(ctx, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("Console stopped with error", "error", err.Error())
		os.Exit(1)
	}
}

// run reads the config (defaults, .env, env, flags), serves the console until ctx is done
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

	app, err := NewConsoleApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Run(ctx); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
