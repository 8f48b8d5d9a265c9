package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func protected(tokens *TokenService) http.Handler {
	return Auth(tokens)(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFromContext(r.Context())
		w.Write([]byte(p.Subject))
	})))
}

// TestTokenService_RoundTrip issues and verifies a token.
func TestTokenService_RoundTrip(t *testing.T) {
	ts := NewTokenService("s3cret", time.Hour)
	token, exp, err := ts.Issue("admin@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v is not in the future", exp)
	}
	p, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Subject != "admin@example.com" {
		t.Errorf("Subject = %q", p.Subject)
	}
}

// TestTokenService_Rejects covers wrong secret, expiry and garbage.
func TestTokenService_Rejects(t *testing.T) {
	ts := NewTokenService("s3cret", time.Hour)
	token, _, _ := ts.Issue("admin")

	other := NewTokenService("different", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: %v", err)
	}

	expired := NewTokenService("s3cret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, _ := expired.Issue("admin")
	if _, err := ts.Verify(stale); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: %v", err)
	}

	if _, err := ts.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: %v", err)
	}
}

// TestRequireAuth guards handlers behind a bearer token.
func TestRequireAuth(t *testing.T) {
	ts := NewTokenService("s3cret", time.Hour)
	h := protected(ts)
	token, _, _ := ts.Issue("admin")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/schedule", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusOK && rr.Body.String() != "admin" {
				t.Errorf("body = %q", rr.Body.String())
			}
		})
	}
}
