/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package auth implements bcrypt password hashing, JWT bearer-token
// issuance/verification, and an in-memory user store. Authentication and
// session management are an external collaborator this system only
// realizes minimally: the user store is intentionally ephemeral and not
// persisted alongside the graph/alert/plan/audit state.
package auth

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"sync"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Role is a user's authorization level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered account.
type User struct {
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// ValidateUsername enforces the §6 username pattern.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username must match [A-Za-z0-9_.-]{3,32}")
	}
	return nil
}

// ValidatePasswordComplexity enforces the §6 password complexity rule:
// at least 8 characters, containing an uppercase letter, a lowercase
// letter, a digit, and a special character.
func ValidatePasswordComplexity(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return fmt.Errorf("password must contain an uppercase letter, a lowercase letter, a digit, and a special character")
	}
	return nil
}

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches hash.
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateEphemeralSecret returns a random 32-byte secret, used for JWT
// signing when USE_MOCK_DATA=true and no durable JWT_SECRET is configured.
// Tokens signed with it do not survive a process restart.
func GenerateEphemeralSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("auth: generating ephemeral secret: %w", err)
	}
	return secret, nil
}

// claims is the JWT payload: username and role, nothing else.
type claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenTTL is how long an issued bearer token remains valid.
const TokenTTL = 24 * time.Hour

// IssueToken signs a bearer token for user using secret.
func IssueToken(secret []byte, username string, role Role) (string, error) {
	now := time.Now()
	c := claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	Username string
	Role     Role
}

// VerifyToken parses and validates tokenString, returning the embedded
// identity.
func VerifyToken(secret []byte, tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return Identity{}, fmt.Errorf("auth: token not valid")
	}
	return Identity{Username: c.Username, Role: c.Role}, nil
}

// Store is an in-memory, ephemeral user store.
type Store struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewStore returns an empty user store.
func NewStore() *Store {
	return &Store{users: make(map[string]User)}
}

// Register adds a new user with role RoleUser. It fails if the username
// is already registered.
func (s *Store) Register(username, password string) (User, error) {
	if err := ValidateUsername(username); err != nil {
		return User{}, err
	}
	if err := ValidatePasswordComplexity(password); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return User{}, fmt.Errorf("auth: username %q already registered", username)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	u := User{Username: username, PasswordHash: hash, Role: RoleUser, CreatedAt: time.Now()}
	s.users[username] = u
	return u, nil
}

// SeedAdmin registers username as an admin if the store is empty and
// username/password are both non-empty. It is a no-op otherwise, so a
// restart with existing users never re-seeds or overwrites one.
func (s *Store) SeedAdmin(username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	s.mu.Lock()
	empty := len(s.users) == 0
	s.mu.Unlock()
	if !empty {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = User{Username: username, PasswordHash: hash, Role: RoleAdmin, CreatedAt: time.Now()}
	return nil
}

// Authenticate checks username/password and returns the matching user.
func (s *Store) Authenticate(username, password string) (User, error) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return User{}, fmt.Errorf("auth: invalid credentials")
	}
	if !ComparePassword(u.PasswordHash, password) {
		return User{}, fmt.Errorf("auth: invalid credentials")
	}
	return u, nil
}
