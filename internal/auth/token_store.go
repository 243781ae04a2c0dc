package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no cached token exists yet
var ErrNoToken = errors.New("no cached token, run `hitcapsule login`")

// cachedToken is the on-disk form of a token. oauth2.Token keeps the granted
// scope only in its raw response, which does not survive JSON encoding.
type cachedToken struct {
	oauth2.Token
	Scope string `json:"scope,omitempty"`
}

// TokenStore persists the OAuth token as JSON on disk
type TokenStore struct {
	path string
	mu   sync.Mutex
}

// NewTokenStore returns a store backed by path
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the file the token is stored in
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the cached token
func (s *TokenStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var cached cachedToken
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode token cache %s: %w", s.path, err)
	}
	if cached.AccessToken == "" && cached.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return withScope(&cached.Token, cached.Scope), nil
}

// Save writes tok, creating the cache directory if needed
func (s *TokenStore) Save(tok *oauth2.Token) error {
	data, err := json.MarshalIndent(cachedToken{Token: *tok, Scope: grantedScope(tok)}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token cache dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// persistingTokenSource saves every token the wrapped source hands out
// whose access token differs from the last one saved
type persistingTokenSource struct {
	base  oauth2.TokenSource
	store *TokenStore

	mu    sync.Mutex
	last  string
	scope string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Refresh responses may omit the scope, which then stays as granted
	if grantedScope(tok) == "" {
		tok = withScope(tok, p.scope)
	}
	if tok.AccessToken != p.last {
		if err := p.store.Save(tok); err != nil {
			// The refreshed token is still usable for this run
			logger().Warn("Failed to persist refreshed token", "error", err)
		} else {
			p.last = tok.AccessToken
		}
	}
	return tok, nil
}

// grantedScope returns the space-separated scopes recorded on tok
func grantedScope(tok *oauth2.Token) string {
	scope, _ := tok.Extra("scope").(string)
	return scope
}

func withScope(tok *oauth2.Token, scope string) *oauth2.Token {
	if scope == "" {
		return tok
	}
	return tok.WithExtra(map[string]interface{}{"scope": scope})
}
