package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
)

func TestPath(t *testing.T) {
	require.Equal(t, "/books/3/", Path("/books/", 3))
	require.Equal(t, "/books/3/update_stock/", Path("/books/", 3, "update_stock"))
}

func TestWrap(t *testing.T) {
	require.NoError(t, Wrap("list books", nil))

	err := Wrap("list books", apperrors.ErrTimeout)
	require.ErrorIs(t, err, apperrors.ErrTimeout)
	require.Equal(t, "list books: api request timed out", err.Error())
}
