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

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sentinelguard/sentinelguard/internal/apperrors"
	"github.com/sentinelguard/sentinelguard/internal/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// authMiddleware verifies the bearer token on every request and stores
// the resulting Identity in the request context for handlers and
// requireAdmin to consume.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.audit.Append("http.auth", "anonymous", r.URL.Path, "failed", "missing bearer token")
			writeError(w, apperrors.NewAuthError("missing bearer token"))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		identity, err := auth.VerifyToken(s.jwtSecret, token)
		if err != nil {
			s.audit.Append("http.auth", "anonymous", r.URL.Path, "failed", "invalid bearer token")
			writeError(w, apperrors.NewAuthError("invalid bearer token"))
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects any request whose verified identity is not an
// admin. It must run after authMiddleware.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(r.Context())
		if !ok || identity.Role != auth.RoleAdmin {
			s.audit.Append("http.auth", identity.Username, r.URL.Path, "failed", "admin role required")
			writeError(w, apperrors.NewAuthError("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFrom(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(auth.Identity)
	return identity, ok
}

// recoverMiddleware turns a panic in any downstream handler into a logged,
// audited internal AppError response instead of crashing the process.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered in http handler",
					zap.Any("panic", rec), zap.String("path", r.URL.Path))
				s.audit.Append("http.panic", "system", r.URL.Path, "failed", "internal error")
				writeError(w, apperrors.Newf(apperrors.ErrorTypeInternal, "internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs one structured line per request after it completes.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}
