package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nkiryanov/bookadmin/internal/apiclient"
)

// API is what resource services need from the shared HTTP client
type API interface {
	Get(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, path string, body any, out any, opts ...apiclient.RequestOption) error
	Put(ctx context.Context, path string, body any, out any, opts ...apiclient.RequestOption) error
	Patch(ctx context.Context, path string, body any, out any, opts ...apiclient.RequestOption) error
	Delete(ctx context.Context, path string, opts ...apiclient.RequestOption) error
}

// Path of a detail resource or its action: Path("/books/", 3) == "/books/3/",
// Path("/books/", 3, "update_stock") == "/books/3/update_stock/"
func Path(collection string, id int64, action ...string) string {
	p := collection + strconv.FormatInt(id, 10) + "/"
	for _, a := range action {
		p += a + "/"
	}
	return p
}

// Wrap prefixes err with the operation name and keeps it matchable
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
