package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestLoginPasteToken(t *testing.T) {
	cred, err := LoginPasteToken("anthropic", strings.NewReader("  sk-ant-test  \n"))
	if err != nil {
		t.Fatalf("LoginPasteToken: %v", err)
	}
	if cred.AccessToken != "sk-ant-test" || cred.Provider != "anthropic" || cred.AuthMethod != "token" {
		t.Errorf("cred = %+v", cred)
	}
}

func TestLoginPasteToken_EmptyInput(t *testing.T) {
	if _, err := LoginPasteToken("anthropic", strings.NewReader("\n")); err == nil {
		t.Error("blank token should fail")
	}
}

func TestCredentialStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	s := NewCredentialStore(path)
	if err := s.Put(&AuthCredential{Provider: "anthropic", AuthMethod: "token", AccessToken: "sk-1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reloaded := NewCredentialStore(path)
	cred, ok := reloaded.Get("anthropic")
	if !ok || cred.AccessToken != "sk-1" {
		t.Errorf("cred = %+v, ok = %v", cred, ok)
	}

	if err := reloaded.Delete("anthropic"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := NewCredentialStore(path).Get("anthropic"); ok {
		t.Error("deleted credential should not reload")
	}
}

func TestAuthCredential_Expired(t *testing.T) {
	if (&AuthCredential{}).Expired() {
		t.Error("no expiry should never expire")
	}
	if (&AuthCredential{ExpiresAt: time.Now().Add(time.Hour)}).Expired() {
		t.Error("future expiry should not be expired")
	}
	if !(&AuthCredential{ExpiresAt: time.Now().Add(-time.Hour)}).Expired() {
		t.Error("past expiry should be expired")
	}
}

func TestTokenSource_PlainToken(t *testing.T) {
	s := NewCredentialStore("")
	s.Put(&AuthCredential{Provider: "anthropic", AuthMethod: "token", AccessToken: "sk-1"})

	tok, err := s.TokenSource("anthropic", nil)()
	if err != nil {
		t.Fatalf("TokenSource: %v", err)
	}
	if tok != "sk-1" {
		t.Errorf("token = %q", tok)
	}
}

func TestTokenSource_MissingProvider(t *testing.T) {
	s := NewCredentialStore("")
	if _, err := s.TokenSource("openai", nil)(); err == nil {
		t.Error("missing credential should fail")
	}
}

func TestTokenSource_OAuthRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "fresh-token",
			"refresh_token": "fresh-refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "credentials.json")
	s := NewCredentialStore(path)
	s.Put(&AuthCredential{
		Provider:     "anthropic",
		AuthMethod:   "oauth",
		AccessToken:  "stale-token",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour),
	})

	cfg := &oauth2.Config{
		ClientID: "client",
		Endpoint: oauth2.Endpoint{TokenURL: server.URL},
	}

	tok, err := s.TokenSource("anthropic", cfg)()
	if err != nil {
		t.Fatalf("TokenSource: %v", err)
	}
	if tok != "fresh-token" {
		t.Errorf("token = %q, want fresh-token", tok)
	}

	cred, _ := NewCredentialStore(path).Get("anthropic")
	if cred.AccessToken != "fresh-token" || cred.RefreshToken != "fresh-refresh" {
		t.Errorf("refreshed credential not persisted: %+v", cred)
	}
}
