package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/socialchef/leftovers/internal/config"
)

type contextKey string

const (
	UserIDKey        contextKey = "userID"
	authenticatedKey contextKey = "authenticated"
	issuedKey        contextKey = "issued"
)

const (
	AnonymousHeader = "X-Anonymous-ID"
	AnonymousCookie = "leftovers_uid"

	cookieMaxAge = 365 * 24 * 60 * 60
)

// Identity resolves the caller's user id, in order: the sub of a Supabase
// JWT, the X-Anonymous-ID header, the leftovers_uid cookie. A caller with none
// of these gets a fresh UUID stored in the cookie. A bearer token that is
// present but invalid is rejected.
func Identity(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if authHeader := r.Header.Get("Authorization"); authHeader != "" && cfg.SupabaseJWTSecret != "" {
				userID, err := userFromToken(cfg, authHeader)
				if err != nil {
					http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
					return
				}
				ctx = context.WithValue(ctx, UserIDKey, userID)
				ctx = context.WithValue(ctx, authenticatedKey, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			userID := anonymousID(r)
			if userID == "" {
				userID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     AnonymousCookie,
					Value:    userID,
					Path:     "/",
					MaxAge:   cookieMaxAge,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   r.TLS != nil,
				})
				ctx = context.WithValue(ctx, issuedKey, true)
			}

			ctx = context.WithValue(ctx, UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFromToken(cfg *config.Config, authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.SupabaseJWTSecret), nil
	}, jwt.WithIssuer(cfg.SupabaseURL+"/auth/v1"))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("missing sub claim")
	}
	return userID, nil
}

// anonymousID returns the client-held id, or "" when there is none. Values
// that are not UUIDs are ignored so they never reach a storage key.
func anonymousID(r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get(AnonymousHeader)); err == nil {
		return id.String()
	}
	if c, err := r.Cookie(AnonymousCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	return ""
}

// GetUserID extracts the user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// IsAuthenticated reports whether the user id came from a verified token.
func IsAuthenticated(ctx context.Context) bool {
	ok, _ := ctx.Value(authenticatedKey).(bool)
	return ok
}

// IsIssued reports whether the user id was minted for this request, meaning
// the caller presented no identity at all.
func IsIssued(ctx context.Context) bool {
	ok, _ := ctx.Value(issuedKey).(bool)
	return ok
}
