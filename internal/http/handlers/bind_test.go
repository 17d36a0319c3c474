package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/dogwalker/internal/accounts"
	"github.com/geocoder89/dogwalker/internal/http/handlers"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func newBindRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()
	r.POST("/register", func(ctx *gin.Context) {
		var req accounts.Request
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})
	return r
}

func postBind(t *testing.T, r *gin.Engine, body string) bindErrorResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := newBindRouter()

	body := `{"user":{"email":"not-an-email"},"dogs":[{"breed":"Pug","age":"2"}]}`
	resp := postBind(t, r, body)

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"user.email":    "email",
		"user.password": "required",
		"dogs[0].name":  "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := newBindRouter()

	body := `{"user":{"email":"alice@example.com","password":"secret1","dog_walker":"yes"}}`
	resp := postBind(t, r, body)

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "user.dog_walker" {
		t.Fatalf("expected detail field to be user.dog_walker, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type field error, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_RejectsUnknownFields(t *testing.T) {
	r := newBindRouter()

	body := `{"user":{"email":"alice@example.com","password":"secret1","role":"admin"}}`
	resp := postBind(t, r, body)

	if resp.Error.Details.JSON != "unknown_field" {
		t.Fatalf("expected unknown_field, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "role" {
		t.Fatalf("expected field role, got %q", resp.Error.Details.Field)
	}
}

func TestBindJSON_SyntaxAndEmptyBody(t *testing.T) {
	r := newBindRouter()

	if got := postBind(t, r, `{"user":`).Error.Details.JSON; got == "" {
		t.Fatalf("expected a json detail for truncated body")
	}
	if got := postBind(t, r, ``).Error.Details.JSON; got != "empty_body" {
		t.Fatalf("expected empty_body, got %q", got)
	}
}
