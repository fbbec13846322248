package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"pulselog/pkg/httpx"
	"pulselog/pkg/logger"
)

type contextKey string

const SubjectKey contextKey = "subject"

// Auth validates bearer tokens signed with the given HMAC secret and stores
// the token subject in the request context. An empty secret disables the
// check entirely; authentication is opt-in.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			// WebSocket clients pass the token in the query string because
			// the browser WebSocket API cannot set custom headers.
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				authHeader := r.Header.Get("Authorization")
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}
			if tokenString == "" {
				httpx.Error(w, r, http.StatusUnauthorized, "Unauthorized", "No token provided")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Sugar.Warnf("Invalid token: %v", err)
				httpx.Error(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				httpx.Error(w, r, http.StatusUnauthorized, "Unauthorized", "Could not parse token claims")
				return
			}
			subject, _ := claims["sub"].(string)

			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
