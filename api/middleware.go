package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Auth validates bearer tokens issued at login.
type Auth struct {
	Secret string
}

// UserClaims are the JWT claims carried by a login token.
type UserClaims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type userClaimsContextKey struct{}

// UserFromContext returns the authenticated user's claims, nil outside
// protected routes.
func UserFromContext(ctx context.Context) *UserClaims {
	claims, _ := ctx.Value(userClaimsContextKey{}).(*UserClaims)
	return claims
}

// Middleware adds bearer token authentication around accessing the routes
func (a Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			zap.S().Errorw("unauthorized", "url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := &UserClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(a.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			zap.S().Errorw("unauthorized", "url", r.URL, "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		zap.S().Debugf("User %s Authenticated\n", claims.Username)
		ctx := context.WithValue(r.Context(), userClaimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
