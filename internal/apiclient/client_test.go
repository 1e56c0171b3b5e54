package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/models"
)

type staticTokens struct {
	cred models.Credential
}

func (s *staticTokens) Get() (models.Credential, bool) {
	return s.cred, !s.cred.IsZero()
}

// Server that echoes request headers and answers with the given status
func newEchoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Echo-Authorization", r.Header.Get("Authorization"))
		w.Header().Set("X-Echo-CSRF", r.Header.Get(CSRFHeader))
		w.Header().Set("X-Echo-Request-ID", r.Header.Get(RequestIDHeader))
		w.Header().Set("X-Echo-Path", r.URL.Path)
		w.Header().Set("X-Echo-Query", r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	return ts
}

// Capture response headers of the echo server through a transport wrapper
type recordingTransport struct {
	last http.Header
}

func (rt *recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := http.DefaultTransport.RoundTrip(r)
	if err == nil {
		rt.last = resp.Header
	}
	return resp, err
}

func newTestClient(t *testing.T, baseURL string, tokens *staticTokens, opts ...Option) (*Client, *recordingTransport) {
	t.Helper()

	rt := &recordingTransport{}
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	c, err := New(baseURL, tokens, logger.NewNoOpLogger(), opts...)
	require.NoError(t, err)

	return c, rt
}

func TestNew(t *testing.T) {
	t.Run("invalid scheme", func(t *testing.T) {
		_, err := New("localhost:8000/api", &staticTokens{}, logger.NewNoOpLogger())

		require.Error(t, err)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		c, err := New("http://localhost:8000/api/", &staticTokens{}, logger.NewNoOpLogger())

		require.NoError(t, err)
		require.Equal(t, "http://localhost:8000/api", c.BaseURL())
	})
}

func TestClient_Headers(t *testing.T) {
	ts := newEchoServer(t, http.StatusOK, `{}`)

	t.Run("bearer from store", func(t *testing.T) {
		c, rt := newTestClient(t, ts.URL+"/api", &staticTokens{cred: models.Credential{Access: "abc"}})

		err := c.Get(t.Context(), "/books/", nil)

		require.NoError(t, err)
		require.Equal(t, "Bearer abc", rt.last.Get("X-Echo-Authorization"))
		require.Equal(t, "/api/books/", rt.last.Get("X-Echo-Path"))
		require.NotEmpty(t, rt.last.Get("X-Echo-Request-ID"))
	})

	t.Run("no bearer when store empty", func(t *testing.T) {
		c, rt := newTestClient(t, ts.URL+"/api", &staticTokens{})

		err := c.Get(t.Context(), "/books/", nil)

		require.NoError(t, err)
		require.Empty(t, rt.last.Get("X-Echo-Authorization"))
	})

	t.Run("store change seen by next request", func(t *testing.T) {
		tokens := &staticTokens{cred: models.Credential{Access: "first"}}
		c, rt := newTestClient(t, ts.URL+"/api", tokens)
		require.NoError(t, c.Get(t.Context(), "/books/", nil))

		tokens.cred = models.Credential{Access: "second"}
		require.NoError(t, c.Get(t.Context(), "/books/", nil))

		require.Equal(t, "Bearer second", rt.last.Get("X-Echo-Authorization"))
	})

	t.Run("explicit token wins", func(t *testing.T) {
		c, rt := newTestClient(t, ts.URL+"/api", &staticTokens{cred: models.Credential{Access: "stored"}})

		err := c.Get(t.Context(), "/users/me/", nil, WithToken("fresh"))

		require.NoError(t, err)
		require.Equal(t, "Bearer fresh", rt.last.Get("X-Echo-Authorization"))
	})

	t.Run("anonymous drops bearer", func(t *testing.T) {
		c, rt := newTestClient(t, ts.URL+"/api", &staticTokens{cred: models.Credential{Access: "stored"}})

		err := c.Post(t.Context(), "/auth/login/", map[string]string{"username": "u"}, nil, Anonymous())

		require.NoError(t, err)
		require.Empty(t, rt.last.Get("X-Echo-Authorization"))
	})

	t.Run("query without empty values", func(t *testing.T) {
		c, rt := newTestClient(t, ts.URL+"/api", &staticTokens{})

		err := c.Get(t.Context(), "/books/", nil, WithQuery(url.Values{"search": {"go"}, "status": {""}}))

		require.NoError(t, err)
		require.Equal(t, "search=go", rt.last.Get("X-Echo-Query"))
	})

	t.Run("request ids differ", func(t *testing.T) {
		c, rt := newTestClient(t, ts.URL+"/api", &staticTokens{})
		require.NoError(t, c.Get(t.Context(), "/books/", nil))
		first := rt.last.Get("X-Echo-Request-ID")

		require.NoError(t, c.Get(t.Context(), "/books/", nil))

		require.NotEqual(t, first, rt.last.Get("X-Echo-Request-ID"))
	})
}

func TestClient_CSRF(t *testing.T) {
	var gotCSRF atomic.Value
	gotCSRF.Store("")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/csrf/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "csrf-123", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/books/", func(w http.ResponseWriter, r *http.Request) {
		gotCSRF.Store(r.Header.Get(CSRFHeader))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, err := New(ts.URL+"/api", &staticTokens{}, logger.NewNoOpLogger())
	require.NoError(t, err)

	// No cookie yet: no header
	require.NoError(t, c.Post(t.Context(), "/books/", map[string]string{}, nil))
	require.Empty(t, gotCSRF.Load())
	_, ok := c.CSRFToken()
	require.False(t, ok)

	require.NoError(t, c.Get(t.Context(), "/csrf/", nil))

	var book models.Book
	require.NoError(t, c.Post(t.Context(), "/books/", map[string]string{}, &book))
	require.Equal(t, "csrf-123", gotCSRF.Load())
	require.Equal(t, int64(1), book.ID)
}

func TestClient_Unauthorized(t *testing.T) {
	ts := newEchoServer(t, http.StatusUnauthorized, `{"detail": "Given token not valid for any token type"}`)

	t.Run("observer runs once per 401", func(t *testing.T) {
		c, _ := newTestClient(t, ts.URL+"/api", &staticTokens{cred: models.Credential{Access: "abc"}})
		var calls atomic.Int32
		var gotAccess atomic.Value
		c.OnUnauthorized(func(access string) {
			calls.Add(1)
			gotAccess.Store(access)
		})

		err := c.Get(t.Context(), "/books/", nil)

		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		var apiErr *apperrors.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "Given token not valid for any token type", apiErr.Message)
		require.Equal(t, int32(1), calls.Load())
		require.Equal(t, "abc", gotAccess.Load(), "observer gets the token the request carried")

		_ = c.Get(t.Context(), "/sales/", nil)
		require.Equal(t, int32(2), calls.Load(), "every 401 reaches the observer, no dedup")
	})

	t.Run("anonymous and explicit token skip observer", func(t *testing.T) {
		c, _ := newTestClient(t, ts.URL+"/api", &staticTokens{cred: models.Credential{Access: "abc"}})
		var calls atomic.Int32
		c.OnUnauthorized(func(string) { calls.Add(1) })

		err := c.Post(t.Context(), "/auth/login/", map[string]string{}, nil, Anonymous())
		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

		err = c.Get(t.Context(), "/users/me/", nil, WithToken("fresh"))
		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

		require.Zero(t, calls.Load())
	})

	t.Run("no observer registered", func(t *testing.T) {
		c, _ := newTestClient(t, ts.URL+"/api", &staticTokens{})

		err := c.Get(t.Context(), "/books/", nil)

		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}

func TestClient_APIErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantIs      error
		wantMessage string
		wantFields  map[string][]string
	}{
		{
			name:        "field errors",
			status:      http.StatusBadRequest,
			body:        `{"isbn": ["book with this isbn already exists."], "price": "must be positive"}`,
			wantIs:      apperrors.ErrValidation,
			wantMessage: "Bad Request",
			wantFields: map[string][]string{
				"isbn":  {"book with this isbn already exists."},
				"price": {"must be positive"},
			},
		},
		{
			name:        "error key",
			status:      http.StatusBadRequest,
			body:        `{"error": "only pending orders can be paid"}`,
			wantIs:      apperrors.ErrValidation,
			wantMessage: "only pending orders can be paid",
		},
		{
			name:        "forbidden detail",
			status:      http.StatusForbidden,
			body:        `{"detail": "You do not have permission to perform this action."}`,
			wantIs:      apperrors.ErrForbidden,
			wantMessage: "You do not have permission to perform this action.",
		},
		{
			name:        "not found",
			status:      http.StatusNotFound,
			body:        `{"detail": "Not found."}`,
			wantIs:      apperrors.ErrNotFound,
			wantMessage: "Not found.",
		},
		{
			name:        "html body",
			status:      http.StatusInternalServerError,
			body:        "<h1>Server Error</h1>\n",
			wantIs:      apperrors.ErrAPI,
			wantMessage: "<h1>Server Error</h1>",
		},
		{
			name:        "empty body",
			status:      http.StatusBadGateway,
			body:        "",
			wantIs:      apperrors.ErrAPI,
			wantMessage: "Bad Gateway",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newEchoServer(t, tc.status, tc.body)
			c, _ := newTestClient(t, ts.URL, &staticTokens{})

			err := c.Get(t.Context(), "/anything/", nil)

			require.ErrorIs(t, err, tc.wantIs)
			var apiErr *apperrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.wantMessage, apiErr.Message)
			assert.Equal(t, tc.wantFields, apiErr.Fields)
		})
	}
}

func TestClient_Decode(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		ts := newEchoServer(t, http.StatusOK, `{"id": 7, "username": "admin", "role": "admin", "is_superuser": true}`)
		c, _ := newTestClient(t, ts.URL, &staticTokens{})

		var p models.Profile
		err := c.Get(t.Context(), "/users/me/", &p)

		require.NoError(t, err)
		require.Equal(t, "admin", p.Username)
		require.True(t, p.IsSuperuser)
	})

	t.Run("empty 200 body ok", func(t *testing.T) {
		ts := newEchoServer(t, http.StatusOK, "")
		c, _ := newTestClient(t, ts.URL, &staticTokens{})

		var out map[string]any
		err := c.Post(t.Context(), "/auth/logout/", nil, &out)

		require.NoError(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		ts := newEchoServer(t, http.StatusOK, "not-json")
		c, _ := newTestClient(t, ts.URL, &staticTokens{})

		var out map[string]any
		err := c.Get(t.Context(), "/books/", &out)

		require.Error(t, err)
		var syntaxErr *json.SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
	})
}

func TestClient_TimeoutAndTransport(t *testing.T) {
	t.Run("slow api times out", func(t *testing.T) {
		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer ts.Close()
		defer close(release)

		c, _ := newTestClient(t, ts.URL, &staticTokens{}, WithTimeout(50*time.Millisecond))

		start := time.Now()
		err := c.Get(t.Context(), "/books/", nil)

		require.ErrorIs(t, err, apperrors.ErrTimeout)
		require.NotErrorIs(t, err, apperrors.ErrTransport)
		require.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("unreachable api", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		addr := ts.URL
		ts.Close()

		c, _ := newTestClient(t, addr, &staticTokens{})

		err := c.Get(t.Context(), "/books/", nil)

		require.ErrorIs(t, err, apperrors.ErrTransport)
	})

	t.Run("caller cancel is neither", func(t *testing.T) {
		ts := newEchoServer(t, http.StatusOK, `{}`)
		c, _ := newTestClient(t, ts.URL, &staticTokens{})
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err := c.Get(ctx, "/books/", nil)

		require.ErrorIs(t, err, context.Canceled)
		require.NotErrorIs(t, err, apperrors.ErrTimeout)
		require.NotErrorIs(t, err, apperrors.ErrTransport)
	})
}
