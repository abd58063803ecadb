package echoServer_test

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgarciaospina/library-management/app/echoServer"
	bookctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/book"
	libraryctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/library"
	loanctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/loan"
	memberctrl "github.com/hgarciaospina/library-management/app/echoServer/controller/member"
	"github.com/hgarciaospina/library-management/repository/memory"
	booksvc "github.com/hgarciaospina/library-management/service/book"
	librarysvc "github.com/hgarciaospina/library-management/service/library"
	"github.com/hgarciaospina/library-management/service/listing"
	loansvc "github.com/hgarciaospina/library-management/service/loan"
	membersvc "github.com/hgarciaospina/library-management/service/member"
	appjwt "github.com/hgarciaospina/library-management/util/jwt"
	"github.com/hgarciaospina/library-management/util/validation"
)

const secret = "test-secret"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type server struct {
	e     *echo.Echo
	store *memory.Store
	token string
}

func newServer(t *testing.T, jwtSecret string) *server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	v := validation.New()
	lists := listing.New(store)

	e := echoServer.New(echoServer.C{
		Loan:      &loanctrl.Controller{Svc: loansvc.New(store, loansvc.WithLogger(log), loansvc.WithValidator(v)), Listing: lists, Log: log},
		Library:   &libraryctrl.Controller{Svc: librarysvc.New(store, v), Log: log},
		Book:      &bookctrl.Controller{Svc: booksvc.New(store, v), Log: log},
		Member:    &memberctrl.Controller{Svc: membersvc.New(store, v, nil), Log: log},
		Store:     store,
		Log:       log,
		JWTSecret: jwtSecret,
	})
	echoServer.RegisterMiddlewares(e, log, time.Second)

	s := &server{e: e, store: store}
	if jwtSecret != "" {
		tok, err := appjwt.Issue(jwtSecret, "desk-1", time.Hour, time.Now())
		require.NoError(t, err)
		s.token = tok
	}
	return s
}

func (s *server) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.doAs(t, s.token, method, path, body)
}

func (s *server) doAs(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type created struct {
	ID          int64 `json:"id"`
	IsAvailable bool  `json:"is_available"`
}

func (s *server) create(t *testing.T, path string, body any) int64 {
	t.Helper()
	rec := s.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[created](t, rec).ID
}

type fixture struct {
	lib, book, member int64
}

func (s *server) seed(t *testing.T) fixture {
	t.Helper()
	var f fixture
	f.lib = s.create(t, "/v1/libraries", map[string]any{"name": "Central", "address": "1 Main St"})
	f.book = s.create(t, "/v1/books", map[string]any{
		"title": "Dune", "author": "Frank Herbert", "isbn": "9780441013593",
		"publication_year": 1965, "library_id": f.lib,
	})
	f.member = s.create(t, "/v1/members", map[string]any{
		"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com",
		"phone_number": "555-0100", "library_id": f.lib,
	})
	return f
}

func TestHealth(t *testing.T) {
	s := newServer(t, "")
	rec := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	s.store.Close()
	rec = s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStaffAuth(t *testing.T) {
	s := newServer(t, secret)
	body := map[string]any{"name": "Central", "address": "1 Main St"}

	rec := s.doAs(t, "", http.MethodPost, "/v1/libraries", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := appjwt.Issue("other-secret", "desk-1", time.Hour, time.Now())
	require.NoError(t, err)
	rec = s.doAs(t, forged, http.MethodPost, "/v1/libraries", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := appjwt.Issue(secret, "desk-1", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	rec = s.doAs(t, expired, http.MethodPost, "/v1/libraries", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	patron, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "reader", "role": "member", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	rec = s.doAs(t, patron, http.MethodPost, "/v1/libraries", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/libraries", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	// reads stay open
	rec = s.doAs(t, "", http.MethodGet, "/v1/libraries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoanLifecycle(t *testing.T) {
	s := newServer(t, secret)
	f := s.seed(t)
	due := time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Second)

	rec := s.do(t, http.MethodPost, "/v1/loans", map[string]any{
		"library_id": f.lib, "book_id": f.book, "member_id": f.member, "due_date": due,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loan := decode[map[string]any](t, rec)
	assert.Equal(t, "Ada Lovelace", loan["member_full_name"])
	assert.Equal(t, "Central", loan["library_name"])
	assert.Equal(t, "Dune", loan["book_title"])
	loanID := int64(loan["id"].(float64))

	rec = s.do(t, http.MethodPost, "/v1/loans", map[string]any{
		"library_id": f.lib, "book_id": f.book, "member_id": f.member, "due_date": due,
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/books/%d", f.book), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[created](t, rec).IsAvailable)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/libraries/%d/loans", f.lib), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byLib := decode[struct {
		LibraryName string           `json:"library_name"`
		Data        []map[string]any `json:"data"`
	}](t, rec)
	assert.Equal(t, "Central", byLib.LibraryName)
	require.Len(t, byLib.Data, 1)

	rec = s.do(t, http.MethodGet, "/v1/loans?active=true&book_id="+fmt.Sprint(f.book), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Data []map[string]any `json:"data"`
	}](t, rec).Data, 1)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/libraries/%d", f.lib), nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/v1/loans/%d", loanID), map[string]any{
		"library_id": f.lib, "book_id": f.book, "member_id": f.member,
		"due_date": due, "return_date": time.Now().UTC(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/books/%d", f.book), nil)
	assert.True(t, decode[created](t, rec).IsAvailable)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/members/%d/loans", f.member), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/v1/libraries/%d", f.lib), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/loans/%d", loanID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t, "")
	f := s.seed(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{name: "bad path id", method: http.MethodGet, path: "/v1/loans/abc", status: http.StatusBadRequest},
		{name: "missing loan", method: http.MethodGet, path: "/v1/loans/999", status: http.StatusNotFound},
		{name: "bad query", method: http.MethodGet, path: "/v1/loans?active=maybe", status: http.StatusBadRequest},
		{name: "malformed json", method: http.MethodPost, path: "/v1/loans", body: "{", status: http.StatusBadRequest},
		{name: "missing library for book list", method: http.MethodGet, path: "/v1/books?library_id=404", status: http.StatusNotFound},
		{
			name: "due date in the past", method: http.MethodPost, path: "/v1/loans",
			body: map[string]any{
				"library_id": f.lib, "book_id": f.book, "member_id": f.member,
				"due_date": time.Now().Add(-time.Hour).UTC(),
			},
			status: http.StatusBadRequest,
		},
		{
			name: "unknown member", method: http.MethodPost, path: "/v1/loans",
			body: map[string]any{
				"library_id": f.lib, "book_id": f.book, "member_id": 404,
				"due_date": time.Now().Add(time.Hour).UTC(),
			},
			status: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(t, http.MethodPost, "/v1/books", map[string]any{"library_id": f.lib})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}](t, rec)
	var fields []string
	for _, e := range body.Errors {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "isbn")
}
