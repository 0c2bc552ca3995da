package httpclient

import (
	"net/http"
	"testing"
)

func TestBearerAuth(t *testing.T) {
	auth := BearerAuth("my-token")
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer my-token" {
		t.Errorf("got %q, want %q", got, "Bearer my-token")
	}
}

func TestTokenAuth(t *testing.T) {
	auth := TokenAuth("secret-token")
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("X-Auth-Token"); got != "secret-token" {
		t.Errorf("got %q, want %q", got, "secret-token")
	}
}

func TestTokenAuthHeader_CustomName(t *testing.T) {
	auth := TokenAuthHeader("secret-token", "X-Subject-Token")
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("X-Subject-Token"); got != "secret-token" {
		t.Errorf("got %q, want %q", got, "secret-token")
	}
}

func TestTokenAuth_DefaultHeaderName(t *testing.T) {
	auth := &AuthConfig{Type: AuthToken, Token: "tok"}
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("X-Auth-Token"); got != "tok" {
		t.Errorf("got %q, want %q", got, "tok")
	}
}

func TestCustomAuth(t *testing.T) {
	auth := CustomAuth(func(req *http.Request) {
		req.Header.Set("X-Custom", "value")
	})
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("X-Custom"); got != "value" {
		t.Errorf("got %q, want %q", got, "value")
	}
}

func TestNilAuth(t *testing.T) {
	var auth *AuthConfig
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req) // should not panic
}

func TestAuthNone(t *testing.T) {
	auth := &AuthConfig{Type: AuthNone}
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req) // should not modify request
	if req.Header.Get("Authorization") != "" {
		t.Error("AuthNone should not set Authorization header")
	}
	if req.Header.Get("X-Auth-Token") != "" {
		t.Error("AuthNone should not set X-Auth-Token header")
	}
}
