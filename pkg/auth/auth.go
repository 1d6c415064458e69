// Package auth manages provider credentials: pasted API keys and
// OAuth-refreshed tokens.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// AuthCredential is one stored provider credential.
type AuthCredential struct {
	Provider     string    `json:"provider"`
	AuthMethod   string    `json:"auth_method"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// Expired reports whether the credential needs a refresh. Credentials
// without an expiry never expire.
func (c *AuthCredential) Expired() bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt.Add(-time.Minute))
}

// CredentialStore persists credentials per provider in one JSON file.
type CredentialStore struct {
	mu    sync.Mutex
	path  string
	creds map[string]*AuthCredential
}

// NewCredentialStore loads credentials from path, starting empty when the
// file does not exist.
func NewCredentialStore(path string) *CredentialStore {
	s := &CredentialStore{path: path, creds: make(map[string]*AuthCredential)}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var creds map[string]*AuthCredential
	if err := json.Unmarshal(data, &creds); err == nil && creds != nil {
		s.creds = creds
	}
	return s
}

// Get returns the credential for a provider.
func (s *CredentialStore) Get(provider string) (*AuthCredential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[provider]
	return c, ok
}

// Put stores a credential and persists the store.
func (s *CredentialStore) Put(cred *AuthCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.Provider] = cred
	return s.saveLocked()
}

// Delete removes a provider's credential.
func (s *CredentialStore) Delete(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, provider)
	return s.saveLocked()
}

func (s *CredentialStore) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// TokenSource returns a per-call token callback for the provider. OAuth
// credentials refresh through the given endpoint when expired; token
// credentials are returned as-is.
func (s *CredentialStore) TokenSource(provider string, oauthCfg *oauth2.Config) func() (string, error) {
	return func() (string, error) {
		s.mu.Lock()
		cred, ok := s.creds[provider]
		s.mu.Unlock()
		if !ok {
			return "", fmt.Errorf("no credential for provider %q", provider)
		}

		if cred.AuthMethod != "oauth" || !cred.Expired() {
			return cred.AccessToken, nil
		}
		if oauthCfg == nil || cred.RefreshToken == "" {
			return "", fmt.Errorf("credential for %q expired and cannot refresh", provider)
		}

		src := oauthCfg.TokenSource(context.Background(), &oauth2.Token{
			AccessToken:  cred.AccessToken,
			RefreshToken: cred.RefreshToken,
			Expiry:       cred.ExpiresAt,
		})
		tok, err := src.Token()
		if err != nil {
			return "", fmt.Errorf("refreshing %s token: %w", provider, err)
		}

		refreshed := &AuthCredential{
			Provider:     provider,
			AuthMethod:   "oauth",
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			ExpiresAt:    tok.Expiry,
		}
		if refreshed.RefreshToken == "" {
			refreshed.RefreshToken = cred.RefreshToken
		}
		if err := s.Put(refreshed); err != nil {
			return "", err
		}
		return tok.AccessToken, nil
	}
}
