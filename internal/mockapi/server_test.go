package mockapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/bookadmin/internal/logger"
	"github.com/nkiryanov/bookadmin/internal/models"
)

type testAPI struct {
	t   *testing.T
	url string
}

type session struct {
	api    *testAPI
	access string
	csrf   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	s, err := New(Config{SecretKey: "test-secret", HashCost: bcrypt.MinCost}, logger.NewNoOpLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testAPI{t: t, url: srv.URL}
}

// do sends the request and returns status and raw body
func (a *testAPI) do(method, path, body string, hdr map[string]string, cookies ...*http.Cookie) (*http.Response, string) {
	a.t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.url+path, rd)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, string(raw)
}

func (a *testAPI) login(username, password string) *session {
	a.t.Helper()

	resp, body := a.do(http.MethodPost, "/api/auth/login/", `{"username":"`+username+`","password":"`+password+`"}`, nil)
	require.Equalf(a.t, http.StatusOK, resp.StatusCode, "body: %s", body)

	var answer loginAnswer
	require.NoError(a.t, json.Unmarshal([]byte(body), &answer))

	s := &session{api: a, access: answer.Tokens.Access}
	for _, c := range resp.Cookies() {
		if c.Name == csrfCookie {
			s.csrf = c.Value
		}
	}
	return s
}

func (s *session) call(method, path, body string) (int, string) {
	s.api.t.Helper()

	hdr := map[string]string{"Authorization": "Bearer " + s.access, csrfHeader: s.csrf}
	resp, raw := s.api.do(method, path, body, hdr, &http.Cookie{Name: csrfCookie, Value: s.csrf})
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, body string) T {
	t.Helper()

	var v T
	require.NoErrorf(t, json.Unmarshal([]byte(body), &v), "body: %s", body)
	return v
}

func TestServer_Auth(t *testing.T) {
	t.Parallel()

	t.Run("login answers tokens user and csrf cookie", func(t *testing.T) {
		api := newTestAPI(t)

		resp, body := api.do(http.MethodPost, "/api/auth/login/", `{"username":"admin","password":"admin123"}`, nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		answer := decode[loginAnswer](t, body)
		require.NotEmpty(t, answer.Tokens.Access)
		require.NotEmpty(t, answer.Tokens.Refresh)
		require.Equal(t, "admin", answer.User.Username)
		require.True(t, answer.User.IsSuperuser)

		require.Len(t, resp.Cookies(), 1)
		require.Equal(t, csrfCookie, resp.Cookies()[0].Name)
		require.Equal(t, "/", resp.Cookies()[0].Path)
	})

	t.Run("wrong password", func(t *testing.T) {
		api := newTestAPI(t)

		resp, body := api.do(http.MethodPost, "/api/auth/login/", `{"username":"admin","password":"nope"}`, nil)

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.JSONEq(t, `{"error":"Invalid username or password"}`, body)
		require.Empty(t, resp.Cookies())
	})

	t.Run("missing fields", func(t *testing.T) {
		api := newTestAPI(t)

		resp, body := api.do(http.MethodPost, "/api/auth/login/", `{"username":"admin"}`, nil)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"error":"Please provide both username and password"}`, body)
	})

	t.Run("no token is 401", func(t *testing.T) {
		api := newTestAPI(t)

		resp, body := api.do(http.MethodGet, "/api/users/me/", "", nil)

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, body)
	})

	t.Run("garbage token is 401", func(t *testing.T) {
		api := newTestAPI(t)

		resp, _ := api.do(http.MethodGet, "/api/users/me/", "", map[string]string{"Authorization": "Bearer abc"})

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("logout revokes the access token", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("manager", "manager123")

		code, _ := s.call(http.MethodGet, "/api/users/me/", "")
		require.Equal(t, http.StatusOK, code)

		code, body := s.call(http.MethodPost, "/api/auth/logout/", `{"refresh":"whatever"}`)
		require.Equalf(t, http.StatusOK, code, "body: %s", body)

		code, _ = s.call(http.MethodGet, "/api/users/me/", "")
		require.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("unsafe request with csrf cookie needs the header", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("manager", "manager123")

		resp, body := api.do(http.MethodPost, "/api/categories/", `{"name":"Poetry"}`,
			map[string]string{"Authorization": "Bearer " + s.access},
			&http.Cookie{Name: csrfCookie, Value: s.csrf},
		)

		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Contains(t, body, "CSRF Failed")
	})

	t.Run("register then login", func(t *testing.T) {
		api := newTestAPI(t)

		resp, body := api.do(http.MethodPost, "/api/auth/register/",
			`{"username":"nk","password":"StrongEnough","confirm_password":"StrongEnough","email":"nk@example.com"}`, nil)
		require.Equalf(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

		s := api.login("nk", "StrongEnough")
		code, body := s.call(http.MethodGet, "/api/users/me/", "")
		require.Equal(t, http.StatusOK, code)
		me := decode[models.Profile](t, body)
		require.Equal(t, models.RoleStaff, me.Role)
	})

	t.Run("register reports fields", func(t *testing.T) {
		api := newTestAPI(t)

		resp, body := api.do(http.MethodPost, "/api/auth/register/",
			`{"username":"nk","password":"StrongEnough","confirm_password":"Other"}`, nil)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		fields := decode[map[string][]string](t, body)
		require.Contains(t, fields, "confirm_password")
	})
}

func TestServer_Users(t *testing.T) {
	t.Parallel()

	t.Run("admin only endpoints reject managers", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("manager", "manager123")

		code, body := s.call(http.MethodGet, "/api/users/", "")

		require.Equal(t, http.StatusForbidden, code)
		require.JSONEq(t, `{"detail":"You do not have permission to perform this action."}`, body)
	})

	t.Run("admin lists and deactivates", func(t *testing.T) {
		api := newTestAPI(t)
		admin := api.login("admin", "admin123")

		code, body := admin.call(http.MethodGet, "/api/users/", "")
		require.Equal(t, http.StatusOK, code)
		users := decode[[]models.Profile](t, body)
		require.Len(t, users, len(DefaultUsers))

		var staffID string
		for _, u := range users {
			if u.Username == "staff" {
				staffID = strconv.FormatInt(u.ID, 10)
			}
		}
		require.NotEmpty(t, staffID)

		code, _ = admin.call(http.MethodPost, "/api/users/"+staffID+"/deactivate/", "")
		require.Equal(t, http.StatusOK, code)

		resp, _ := api.do(http.MethodPost, "/api/auth/login/", `{"username":"staff","password":"staff123"}`, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("roles and permissions", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("staff", "staff123")

		code, body := s.call(http.MethodGet, "/api/users/roles/", "")
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, `"roles"`)

		code, body = s.call(http.MethodGet, "/api/users/permissions/", "")
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, `"permissions"`)
	})

	t.Run("change password checks the old one", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("staff", "staff123")

		code, body := s.call(http.MethodPost, "/api/users/change_password/",
			`{"old_password":"wrong","new_password":"NewPassword1","confirm_password":"NewPassword1"}`)
		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, body, "old_password")

		code, body = s.call(http.MethodPost, "/api/users/change_password/",
			`{"old_password":"staff123","new_password":"NewPassword1","confirm_password":"NewPassword1"}`)
		require.Equalf(t, http.StatusOK, code, "body: %s", body)

		api.login("staff", "NewPassword1")
	})
}

func TestServer_Books(t *testing.T) {
	t.Parallel()

	t.Run("list filters", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("staff", "staff123")

		code, body := s.call(http.MethodGet, "/api/books/", "")
		require.Equal(t, http.StatusOK, code)
		require.Len(t, decode[[]models.Book](t, body), len(defaultBooks))

		_, body = s.call(http.MethodGet, "/api/books/?search=CONCURRENCY", "")
		books := decode[[]models.Book](t, body)
		require.Len(t, books, 1)
		require.Equal(t, "Concurrency in Go", books[0].Title)

		_, body = s.call(http.MethodGet, "/api/books/?category=Fiction&status=out_of_stock", "")
		books = decode[[]models.Book](t, body)
		require.Len(t, books, 1)
		require.Equal(t, "Dune", books[0].Title)
	})

	t.Run("create validates", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("manager", "manager123")

		code, body := s.call(http.MethodPost, "/api/books/", `{"isbn":"1","title":"","author":"a","publisher":"p","category":"c","price":"0"}`)

		require.Equal(t, http.StatusBadRequest, code)
		fields := decode[map[string][]string](t, body)
		require.Contains(t, fields, "title")
		require.Contains(t, fields, "price")
	})

	t.Run("stock updates move status", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("manager", "manager123")

		code, body := s.call(http.MethodPost, "/api/books/",
			`{"isbn":"123","title":"T","author":"A","publisher":"P","category":"Fiction","price":"5.00","stock":0}`)
		require.Equalf(t, http.StatusCreated, code, "body: %s", body)
		book := decode[models.Book](t, body)
		require.Equal(t, models.BookStatusOutOfStock, book.Status)

		path := "/api/books/" + strconv.FormatInt(book.ID, 10) + "/"

		code, body = s.call(http.MethodPost, path+"update_stock/", `{"quantity":4}`)
		require.Equal(t, http.StatusOK, code)
		book = decode[models.Book](t, body)
		require.Equal(t, 4, book.Stock)
		require.Equal(t, models.BookStatusInStock, book.Status)

		code, _ = s.call(http.MethodPost, path+"update_stock/", `{"quantity":-5}`)
		require.Equal(t, http.StatusBadRequest, code)

		code, _ = s.call(http.MethodPost, path+"update_stock/", `{"quantity":0}`)
		require.Equal(t, http.StatusBadRequest, code)

		code, body = s.call(http.MethodPost, path+"change_status/", `{"status":"discontinued"}`)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, models.BookStatusDiscontinued, decode[models.Book](t, body).Status)

		code, _ = s.call(http.MethodPost, path+"change_status/", `{"status":"lost"}`)
		require.Equal(t, http.StatusBadRequest, code)

		code, _ = s.call(http.MethodDelete, path, "")
		require.Equal(t, http.StatusNoContent, code)

		code, _ = s.call(http.MethodGet, path, "")
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("categories", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("manager", "manager123")

		code, body := s.call(http.MethodPost, "/api/categories/", `{"name":"Poetry"}`)
		require.Equalf(t, http.StatusCreated, code, "body: %s", body)
		c := decode[models.Category](t, body)

		code, _ = s.call(http.MethodPost, "/api/categories/", `{"name":"Poetry"}`)
		require.Equal(t, http.StatusBadRequest, code)

		code, _ = s.call(http.MethodDelete, "/api/categories/"+strconv.FormatInt(c.ID, 10)+"/", "")
		require.Equal(t, http.StatusNoContent, code)

		_, body = s.call(http.MethodGet, "/api/categories/", "")
		require.Len(t, decode[[]models.Category](t, body), len(defaultCategories))
	})
}

func TestServer_Purchases(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	s := api.login("manager", "manager123")

	_, body := s.call(http.MethodGet, "/api/books/?search=Dune", "")
	dune := decode[[]models.Book](t, body)[0]
	require.Equal(t, 0, dune.Stock)

	create := func(t *testing.T) models.PurchaseOrder {
		code, body := s.call(http.MethodPost, "/api/purchases/",
			`{"book":`+strconv.FormatInt(dune.ID, 10)+`,"quantity":5,"purchase_price":"4.50","supplier":"Ace"}`)
		require.Equalf(t, http.StatusCreated, code, "body: %s", body)
		return decode[models.PurchaseOrder](t, body)
	}
	path := func(o models.PurchaseOrder, action string) string {
		return "/api/purchases/" + strconv.FormatInt(o.ID, 10) + "/" + action + "/"
	}

	t.Run("pay then shelve", func(t *testing.T) {
		o := create(t)
		require.Equal(t, models.PurchaseStatusPending, o.Status)
		require.True(t, decimal.RequireFromString("22.5").Equal(o.Total))
		require.Equal(t, "manager", o.CreatedBy)

		code, _ := s.call(http.MethodPost, path(o, "shelve"), "")
		require.Equal(t, http.StatusBadRequest, code, "pending order can not be shelved")

		code, body := s.call(http.MethodPost, path(o, "pay"), "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, models.PurchaseStatusPaid, decode[models.StatusChange](t, body).Status)

		code, body = s.call(http.MethodPost, path(o, "pay"), "")
		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, body, `"error"`)

		code, body = s.call(http.MethodPost, path(o, "shelve"), "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, models.PurchaseStatusShelved, decode[models.StatusChange](t, body).Status)

		_, body = s.call(http.MethodGet, "/api/books/"+strconv.FormatInt(dune.ID, 10)+"/", "")
		book := decode[models.Book](t, body)
		require.Equal(t, 5, book.Stock)
		require.Equal(t, models.BookStatusInStock, book.Status)

		_, body = s.call(http.MethodGet, "/api/financial/?type=expense&category=purchase", "")
		records := decode[[]models.FinancialRecord](t, body)
		require.Len(t, records, 1)
		assert.True(t, o.Total.Equal(records[0].Amount))
	})

	t.Run("return pending only", func(t *testing.T) {
		o := create(t)

		code, body := s.call(http.MethodPost, path(o, "return_order"), "")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, models.PurchaseStatusReturned, decode[models.StatusChange](t, body).Status)

		code, _ = s.call(http.MethodPost, path(o, "pay"), "")
		require.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unknown book", func(t *testing.T) {
		code, body := s.call(http.MethodPost, "/api/purchases/", `{"book":9999,"quantity":1,"purchase_price":"1"}`)

		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, decode[map[string][]string](t, body), "book")
	})

	t.Run("with new book marks up the price", func(t *testing.T) {
		code, body := s.call(http.MethodPost, "/api/purchases/create_with_new_book/",
			`{"isbn":"999","title":"New","author":"A","publisher":"P","category":"Fiction","quantity":2,"purchase_price":"10.00"}`)
		require.Equalf(t, http.StatusCreated, code, "body: %s", body)
		o := decode[models.PurchaseOrder](t, body)

		_, body = s.call(http.MethodGet, "/api/books/"+strconv.FormatInt(o.BookID, 10)+"/", "")
		book := decode[models.Book](t, body)
		require.True(t, decimal.RequireFromString("13").Equal(book.Price), "got %s", book.Price)
		require.Equal(t, 0, book.Stock)
		require.Equal(t, models.BookStatusOutOfStock, book.Status)
	})
}

func TestServer_Sales(t *testing.T) {
	t.Parallel()

	books := func(t *testing.T, s *session) map[string]models.Book {
		_, body := s.call(http.MethodGet, "/api/books/", "")
		out := make(map[string]models.Book)
		for _, b := range decode[[]models.Book](t, body) {
			out[b.Title] = b
		}
		return out
	}
	id := func(b models.Book) string { return strconv.FormatInt(b.ID, 10) }

	t.Run("batch sells everything and books income", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("staff", "staff123")
		bs := books(t, s)
		gopl, conc := bs["The Go Programming Language"], bs["Concurrency in Go"]

		code, body := s.call(http.MethodPost, "/api/sales/create_batch/",
			`{"items":[{"book_id":`+id(gopl)+`,"quantity":2},{"book_id":`+id(conc)+`,"quantity":3}]}`)
		require.Equalf(t, http.StatusCreated, code, "body: %s", body)
		sales := decode[[]models.Sale](t, body)
		require.Len(t, sales, 2)

		bs = books(t, s)
		require.Equal(t, gopl.Stock-2, bs[gopl.Title].Stock)
		require.Equal(t, 0, bs[conc.Title].Stock)
		require.Equal(t, models.BookStatusOutOfStock, bs[conc.Title].Status)

		_, body = s.call(http.MethodGet, "/api/financial/summary/", "")
		sum := decode[models.FinancialSummary](t, body)
		want := sales[0].Total.Add(sales[1].Total)
		require.True(t, want.Equal(sum.TotalIncome), "got %s", sum.TotalIncome)
		require.Equal(t, 1, sum.TransactionCount)
	})

	t.Run("batch is all or nothing", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("staff", "staff123")
		bs := books(t, s)
		gopl, conc := bs["The Go Programming Language"], bs["Concurrency in Go"]

		code, body := s.call(http.MethodPost, "/api/sales/create_batch/",
			`{"items":[{"book_id":`+id(gopl)+`,"quantity":1},{"book_id":`+id(conc)+`,"quantity":100}]}`)
		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, body, "Not enough stock")

		require.Equal(t, gopl.Stock, books(t, s)[gopl.Title].Stock)
	})

	t.Run("out of stock book is not for sale", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("staff", "staff123")
		dune := books(t, s)["Dune"]

		code, _ := s.call(http.MethodPost, "/api/sales/create_batch/", `{"items":[{"book_id":`+id(dune)+`,"quantity":1}]}`)
		require.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("empty batch", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("staff", "staff123")

		code, _ := s.call(http.MethodPost, "/api/sales/create_batch/", `{"items":[]}`)
		require.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("return restores stock and books refund", func(t *testing.T) {
		api := newTestAPI(t)
		s := api.login("staff", "staff123")
		gopl := books(t, s)["The Go Programming Language"]

		_, body := s.call(http.MethodPost, "/api/sales/create_batch/", `{"items":[{"book_id":`+id(gopl)+`,"quantity":1}]}`)
		sale := decode[[]models.Sale](t, body)[0]
		path := "/api/sales/" + strconv.FormatInt(sale.ID, 10) + "/process_return/"

		code, body := s.call(http.MethodPost, path, "")
		require.Equalf(t, http.StatusOK, code, "body: %s", body)
		require.Equal(t, models.SaleStatusReturned, decode[models.StatusChange](t, body).Status)

		code, _ = s.call(http.MethodPost, path, "")
		require.Equal(t, http.StatusBadRequest, code)

		require.Equal(t, gopl.Stock, books(t, s)[gopl.Title].Stock)

		_, body = s.call(http.MethodGet, "/api/financial/summary/", "")
		sum := decode[models.FinancialSummary](t, body)
		require.True(t, sum.NetBalance.IsZero(), "got %s", sum.NetBalance)
		require.Equal(t, 2, sum.TransactionCount)
	})
}
