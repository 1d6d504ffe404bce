// Package credential holds the identity token used for every outbound call.
//
// The token is opaque to the rest of sift. It is set at login, cleared at
// logout, and read right before each request. Nothing here touches disk;
// the app decides whether to persist it (see config.Manager).
package credential

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned by Claims when no token is set.
var ErrNoToken = errors.New("no credential set")

// Source provides the current token. remote.Client reads it before each call.
type Source interface {
	Token() (string, bool)
}

// Claims are the fields sift reads from a token for display and expiry checks.
// They are decoded without signature verification; the server stays the authority.
type Claims struct {
	UserID    int
	Username  string
	ExpiresAt time.Time
}

// Store is a thread-safe credential holder.
type Store struct {
	mu       sync.RWMutex
	token    string
	onChange []func(token string)
}

// NewStore creates a store, optionally seeded with a token.
func NewStore(token string) *Store {
	return &Store{token: token}
}

// Token returns the current token and whether one is set.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Set replaces the token (login).
func (s *Store) Set(token string) {
	s.mu.Lock()
	s.token = token
	hooks := append([]func(string){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(token)
	}
}

// Clear drops the token (logout, or after the server rejected it).
func (s *Store) Clear() {
	s.Set("")
}

// OnChange registers a hook called after every Set/Clear, outside the lock.
func (s *Store) OnChange(fn func(token string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Claims decodes the token payload.
func (s *Store) Claims() (Claims, error) {
	token, ok := s.Token()
	if !ok {
		return Claims{}, ErrNoToken
	}
	return ParseClaims(token)
}

// Expired reports whether the token carries an exp claim in the past.
// Tokens without exp, or that are not JWTs, are never considered expired.
func (s *Store) Expired(now time.Time) bool {
	claims, err := s.Claims()
	if err != nil || claims.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(claims.ExpiresAt)
}

// ParseClaims reads user_id, username and exp from a JWT without verifying it.
func ParseClaims(token string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("failed to decode token: %w", err)
	}

	var claims Claims
	if id, ok := mapClaims["user_id"].(float64); ok {
		claims.UserID = int(id)
	}
	if name, ok := mapClaims["username"].(string); ok {
		claims.Username = name
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
