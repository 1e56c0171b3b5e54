package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/mockapi"
)

// StartMockAPI serves a freshly seeded in-memory API and returns its base url (with /api)
func StartMockAPI(t *testing.T) string {
	t.Helper()

	s, err := mockapi.New(mockapi.Config{SecretKey: "test-secret", HashCost: bcrypt.MinCost}, logger.NewNoOpLogger())
	require.NoError(t, err, "mock api should start")

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return srv.URL + "/api"
}
