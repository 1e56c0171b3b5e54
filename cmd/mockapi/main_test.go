package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/bookadmin/internal/testutil"
)

func Test_run(t *testing.T) {
	getwd := func() (string, error) { return t.TempDir(), nil }
	getenv := func(string) string { return "" }

	t.Run("serves until stopped", func(t *testing.T) {
		port, err := testutil.RandomPort()
		require.NoError(t, err)
		addr := fmt.Sprintf("localhost:%d", port)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- run(ctx, getenv, getwd, []string{"--address", addr, "--secret-key", "secret", "--log-level", "error"})
		}()

		// Wait for the listener
		require.Eventually(t, func() bool {
			resp, err := http.Post("http://"+addr+"/api/auth/login/", "application/json",
				strings.NewReader(`{"username":"admin","password":"admin123"}`))
			if err != nil {
				return false
			}
			_ = resp.Body.Close()
			return resp.StatusCode == http.StatusOK
		}, 5*time.Second, 50*time.Millisecond)

		cancel()
		require.NoError(t, <-done)
	})

	t.Run("secret key is required", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err := run(ctx, getenv, getwd, []string{"--address", "localhost:0"})

		require.ErrorContains(t, err, "secret key")
	})

	t.Run("config from env", func(t *testing.T) {
		c := NewConfig()
		env := map[string]string{"SECRET_KEY": "s", "ACCESS_TTL": "1h", "RUN_ADDRESS": "localhost:9999"}

		require.NoError(t, c.LoadEnv(func(k string) string { return env[k] }))
		require.Equal(t, "s", c.SecretKey)
		require.Equal(t, time.Hour, c.AccessTTL)
		require.Equal(t, "localhost:9999", c.ListenAddr)

		require.Error(t, c.LoadEnv(func(k string) string {
			if k == "ACCESS_TTL" {
				return "forever"
			}
			return ""
		}))
	})

	t.Run("flags", func(t *testing.T) {
		c := NewConfig()

		require.NoError(t, c.ParseFlags([]string{"-a", "localhost:1", "-s", "k", "--access-ttl", "2m"}))
		require.Equal(t, "localhost:1", c.ListenAddr)
		require.Equal(t, "k", c.SecretKey)
		require.Equal(t, 2*time.Minute, c.AccessTTL)
	})
}
