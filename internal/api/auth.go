// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package api

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// TokenAuthenticator guards the admin surface with a single
// operator-configured bearer token, bcrypt-hashed at rest (SPEC_FULL
// §4.11). There is no per-user identity or authorization model here; the
// library itself has none, and this is glue, not core.
type TokenAuthenticator struct {
	hash []byte
}

// NewTokenAuthenticator wraps an already-bcrypt-hashed admin token.
func NewTokenAuthenticator(tokenHash string) (*TokenAuthenticator, error) {
	if tokenHash == "" {
		return nil, fmt.Errorf("admin token hash is required")
	}
	return &TokenAuthenticator{hash: []byte(tokenHash)}, nil
}

// HashToken bcrypt-hashes a plaintext admin token for storage in config.
func HashToken(token string) (string, error) {
	if len(token) < 16 {
		return "", fmt.Errorf("admin token must be at least 16 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin token: %w", err)
	}
	return string(hash), nil
}

// Authenticate validates the Authorization: Bearer <token> header against
// the configured hash using bcrypt's constant-time comparison.
func (a *TokenAuthenticator) Authenticate(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if header == "" {
		return false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(token)) == nil
}

// Middleware rejects unauthenticated requests with 401 before the handler
// runs. Health and metrics endpoints are mounted outside this middleware's
// route group.
func (a *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Authenticate(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
