package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pratik-mahalle/dialekt/internal/auth"
	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
	"github.com/pratik-mahalle/dialekt/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for the account ID
	UserIDKey ContextKey = "userID"
	// UserEmailKey is the context key for user email
	UserEmailKey ContextKey = "email"
	// UserRoleKey is the context key for the role claim
	UserRoleKey ContextKey = "role"
)

// AuthMiddleware returns a middleware that validates JWT tokens
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := WithIdentity(r.Context(), profile.Identity{
				AccountID: claims.UserID,
				Email:     claims.Email,
				Role:      profile.ParseRole(claims.Role),
			})

			AddLogField(w, "account_id", claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the token from the Authorization header or the accessToken cookie
func bearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

// WithIdentity stores a verified identity in ctx
func WithIdentity(ctx context.Context, id profile.Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id.AccountID)
	ctx = context.WithValue(ctx, UserEmailKey, id.Email)
	return context.WithValue(ctx, UserRoleKey, id.Role)
}

// GetIdentity extracts the verified identity from the request context
func GetIdentity(r *http.Request) (profile.Identity, bool) {
	userID, ok := GetUserID(r)
	if !ok {
		return profile.Identity{}, false
	}
	email, _ := GetUserEmail(r)
	role, _ := r.Context().Value(UserRoleKey).(profile.Role)
	if role == "" {
		role = profile.RoleUser
	}
	return profile.Identity{AccountID: userID, Email: email, Role: role}, true
}

// GetUserID extracts the account ID from the request context
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// GetUserEmail extracts the user email from the request context
func GetUserEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(UserEmailKey).(string)
	return email, ok
}
