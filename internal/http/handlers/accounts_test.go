package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/dogwalker/internal/accounts"
	"github.com/geocoder89/dogwalker/internal/domain/pet"
	"github.com/geocoder89/dogwalker/internal/http/handlers"
	"github.com/geocoder89/dogwalker/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type fakeAccounts struct {
	registerFn func(ctx context.Context, req accounts.Request) (accounts.Session, error)
	loginFn    func(ctx context.Context, req accounts.Request) (accounts.Session, error)
	existsFn   func(ctx context.Context, email string) (bool, error)
	profileFn  func(ctx context.Context, email string) (accounts.Profile, error)
}

func (f *fakeAccounts) Register(ctx context.Context, req accounts.Request) (accounts.Session, error) {
	return f.registerFn(ctx, req)
}

func (f *fakeAccounts) Login(ctx context.Context, req accounts.Request) (accounts.Session, error) {
	return f.loginFn(ctx, req)
}

func (f *fakeAccounts) Exists(ctx context.Context, email string) (bool, error) {
	return f.existsFn(ctx, email)
}

func (f *fakeAccounts) Profile(ctx context.Context, email string) (accounts.Profile, error) {
	return f.profileFn(ctx, email)
}

func newAccountsRouter(svc handlers.AccountService, identity string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := handlers.NewAccountsHandler(svc, false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/check_user_exists", h.CheckUserExists)
	r.GET("/user", func(c *gin.Context) {
		if identity != "" {
			c.Set(middlewares.CtxEmail, identity)
		}
		c.Next()
	}, h.Profile)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const aliceBody = `{"user":{"email":"alice@example.com","password":"secret1","dog_walker":false},"dogs":[{"name":"Rex","breed":"Labrador","age":"3"}]}`

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middlewares.SessionCookie {
			return c
		}
	}
	return nil
}

func TestRegister_SuccessSetsCookieAndBody(t *testing.T) {
	var got accounts.Request
	svc := &fakeAccounts{registerFn: func(_ context.Context, req accounts.Request) (accounts.Session, error) {
		got = req
		return accounts.Session{Email: req.User.Email, Token: "tok-123", PetsSaved: 1}, nil
	}}

	w := doJSON(newAccountsRouter(svc, ""), http.MethodPost, "/register", aliceBody)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["access_token_cookie"] != "tok-123" {
		t.Fatalf("unexpected body: %v", body)
	}

	c := sessionCookie(w)
	if c == nil || c.Value != "tok-123" || !c.HttpOnly || c.MaxAge != 900 {
		t.Fatalf("unexpected cookie: %+v", c)
	}

	if got.User.Email != "alice@example.com" || len(got.Pets) != 1 || got.Pets[0].Name != "Rex" {
		t.Fatalf("request not decoded: %+v", got)
	}
}

func TestRegister_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"exists", accounts.ErrAccountExists, http.StatusConflict, "account_exists"},
		{"validation", &accounts.ValidationError{Issues: []accounts.FieldIssue{{Field: "dogs[0].owner", Rule: "eq_user_email"}}}, http.StatusBadRequest, "invalid_request"},
		{"unavailable", fmt.Errorf("users.create: %w: boom", accounts.ErrStoreUnavailable), http.StatusServiceUnavailable, "store_unavailable"},
		{"unexpected", errors.New("weird"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAccounts{registerFn: func(context.Context, accounts.Request) (accounts.Session, error) {
				return accounts.Session{}, tt.err
			}}

			w := doJSON(newAccountsRouter(svc, ""), http.MethodPost, "/register", aliceBody)

			if w.Code != tt.status {
				t.Fatalf("status=%d want %d body=%s", w.Code, tt.status, w.Body.String())
			}

			var resp bindErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error.Code != tt.code {
				t.Fatalf("code=%q want %q", resp.Error.Code, tt.code)
			}
			if sessionCookie(w) != nil {
				t.Fatalf("cookie set on failure")
			}
			if tt.status == http.StatusServiceUnavailable && w.Header().Get("Retry-After") == "" {
				t.Fatalf("missing Retry-After")
			}
		})
	}
}

func TestRegister_PartialWriteIs207(t *testing.T) {
	svc := &fakeAccounts{registerFn: func(context.Context, accounts.Request) (accounts.Session, error) {
		return accounts.Session{Token: "tok-207", PetsSaved: 1}, &accounts.PartialWriteError{
			Saved:  1,
			Failed: []accounts.PetFailure{{Index: 1, Name: "Broken", Err: errors.New("disk full")}},
		}
	}}

	w := doJSON(newAccountsRouter(svc, ""), http.MethodPost, "/register", aliceBody)

	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Token  string                `json:"access_token_cookie"`
		Saved  int                   `json:"savedDogs"`
		Failed []accounts.PetFailure `json:"failedDogs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Token != "tok-207" || body.Saved != 1 || len(body.Failed) != 1 || body.Failed[0].Name != "Broken" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if c := sessionCookie(w); c == nil || c.Value != "tok-207" {
		t.Fatalf("session cookie missing on partial write")
	}
}

func TestLogin_InvalidCredentialsIs401(t *testing.T) {
	svc := &fakeAccounts{loginFn: func(context.Context, accounts.Request) (accounts.Session, error) {
		return accounts.Session{}, accounts.ErrInvalidCredentials
	}}

	w := doJSON(newAccountsRouter(svc, ""), http.MethodPost, "/login", aliceBody)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCheckUserExists_BareBoolean(t *testing.T) {
	svc := &fakeAccounts{existsFn: func(_ context.Context, email string) (bool, error) {
		return email == "alice@example.com", nil
	}}
	r := newAccountsRouter(svc, "")

	if w := doJSON(r, http.MethodGet, "/check_user_exists?email=alice@example.com", ""); w.Body.String() != "true" {
		t.Fatalf("alice: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(r, http.MethodGet, "/check_user_exists?email=bob@example.com", ""); w.Body.String() != "false" {
		t.Fatalf("bob: %d %s", w.Code, w.Body.String())
	}
}

func TestProfile(t *testing.T) {
	svc := &fakeAccounts{profileFn: func(_ context.Context, email string) (accounts.Profile, error) {
		if email != "alice@example.com" {
			return accounts.Profile{}, accounts.ErrNotFound
		}
		return accounts.Profile{
			Email: email,
			Pets:  []pet.Summary{{Name: "Rex", Age: "3", Breed: "Labrador"}},
		}, nil
	}}

	w := doJSON(newAccountsRouter(svc, "alice@example.com"), http.MethodGet, "/user", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var p accounts.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Email != "alice@example.com" || len(p.Pets) != 1 || p.Pets[0].Name != "Rex" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if w := doJSON(newAccountsRouter(svc, "ghost@example.com"), http.MethodGet, "/user", ""); w.Code != http.StatusNotFound {
		t.Fatalf("ghost: status=%d", w.Code)
	}

	if w := doJSON(newAccountsRouter(svc, ""), http.MethodGet, "/user", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status=%d", w.Code)
	}
}

func TestValidationMessagesCoverSchemaRules(t *testing.T) {
	svc := &fakeAccounts{registerFn: func(context.Context, accounts.Request) (accounts.Session, error) {
		return accounts.Session{}, &accounts.ValidationError{Issues: []accounts.FieldIssue{
			{Field: "user.password", Rule: "max_bytes", Param: "72"},
			{Field: "dogs[0].owner", Rule: "eq_user_email"},
			{Field: "dogs", Rule: "max", Param: "50"},
		}}
	}}

	w := doJSON(newAccountsRouter(svc, ""), http.MethodPost, "/register", aliceBody)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := map[string]string{
		"user.password": "must be at most 72 bytes",
		"dogs[0].owner": "must match user.email",
		"dogs":          "must be at most 50",
	}
	for _, fe := range resp.Error.Details.Fields {
		if msg, ok := want[fe.Field]; ok && fe.Message != msg {
			t.Fatalf("%s: message=%q want %q", fe.Field, fe.Message, msg)
		}
		delete(want, fe.Field)
	}
	if len(want) != 0 {
		t.Fatalf("missing fields: %v", want)
	}
}
