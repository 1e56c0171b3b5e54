package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/testutil"
)

func Test_run(t *testing.T) {
	apiURL := testutil.StartMockAPI(t)

	// No .env is read from the temp dir
	getwd := func() (string, error) { return t.TempDir(), nil }
	getenv := func(string) string { return "" }

	listenAddr := func(t *testing.T) string {
		port, err := testutil.RandomPort()
		require.NoError(t, err, "failed to get random port to start server")
		return fmt.Sprintf("localhost:%d", port)
	}

	t.Run("stop with signal", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		err := run(ctx, getenv, getwd, []string{
			"--address", listenAddr(t),
			"--log-level", "debug",
			"--api", apiURL,
			"--token-store", "memory",
		})

		require.NoError(t, err, "on correct stop should not return error")
	})

	t.Run("file store", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err := run(ctx, getenv, getwd, []string{
			"--address", listenAddr(t),
			"--api", apiURL,
			"--token-store", "file",
			"--token-file", filepath.Join(t.TempDir(), "credential.json"),
		})

		require.NoError(t, err)
	})

	t.Run("redis store", func(t *testing.T) {
		mr := miniredis.RunT(t)
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err := run(ctx, getenv, getwd, []string{
			"--address", listenAddr(t),
			"--api", apiURL,
			"--token-store", "redis",
			"--redis", mr.Addr(),
		})

		require.NoError(t, err)
	})

	t.Run("postgres store", func(t *testing.T) {
		pool := testutil.StartPostgres(t)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		t.Cleanup(cancel)

		err := run(ctx, getenv, getwd, []string{
			"--address", listenAddr(t),
			"--api", apiURL,
			"--token-store", "postgres",
			"--database", pool.Config().ConnString(),
		})

		require.NoError(t, err)
	})

	t.Run("unknown token store", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err := run(ctx, getenv, getwd, []string{
			"--address", listenAddr(t),
			"--api", apiURL,
			"--token-store", "etcd",
		})

		require.ErrorIs(t, err, apperrors.ErrInvalidStoreBackend)
	})

	t.Run("bad api url", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err := run(ctx, getenv, getwd, []string{
			"--address", listenAddr(t),
			"--api", "localhost:8000",
			"--token-store", "memory",
		})

		require.Error(t, err, "api url without scheme must fail")
	})

	t.Run("env is read", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		env := map[string]string{"TOKEN_STORE": "memory", "API_BASE_URL": apiURL, "RUN_ADDRESS": listenAddr(t)}
		err := run(ctx, func(k string) string { return env[k] }, os.Getwd, nil)

		require.NoError(t, err)
	})
}
