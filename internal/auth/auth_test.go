package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestStaticTokenValidate(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer s3cret", token: "s3cret", ok: true},
		{header: "bearer   s3cret ", token: "s3cret", ok: true},
		{header: "Basic s3cret", ok: false},
		{header: "Bearer ", ok: false},
		{header: "", ok: false},
	}
	for _, tc := range tests {
		token, ok := BearerToken(tc.header)
		if ok != tc.ok || token != tc.token {
			t.Fatalf("header %q: got (%q, %v) want (%q, %v)", tc.header, token, ok, tc.token, tc.ok)
		}
	}
}

func TestRequireBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := StaticToken{Token: "ok"}
	r := gin.New()
	r.POST("/guarded", RequireBearer(validator), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/open", RequireBearer(nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(path, header string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("/guarded", ""); code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d", code)
	}
	if code := send("/guarded", "Bearer bad"); code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d", code)
	}
	if code := send("/guarded", "Bearer ok"); code != http.StatusNoContent {
		t.Fatalf("good token: got %d", code)
	}
	if code := send("/open", ""); code != http.StatusNoContent {
		t.Fatalf("open route: got %d", code)
	}
}
