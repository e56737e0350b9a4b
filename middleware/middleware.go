package middleware

import (
	"context"
	"fmt"
	"kilnhouse/globals"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	Username string   `json:"username"`
	UserID   string   `json:"userId"`
	Role     []string `json:"role"`
	jwt.RegisteredClaims
}

func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if websocket.IsWebSocketUpgrade(r) {
			// Allow WebSocket through without setting body/headers yet
			next(w, r, ps)
			return
		}

		claims, err := ValidateJWT(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(withClaims(r.Context(), claims)), ps)
	}
}

func OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if claims, err := ValidateJWT(r.Header.Get("Authorization")); err == nil {
			r = r.WithContext(withClaims(r.Context(), claims))
		}
		// Proceed regardless of token state
		next(w, r, ps)
	}
}

// RequireRole guards back-office endpoints. Wrap inside Authenticate.
func RequireRole(role string, next httprouter.Handle) httprouter.Handle {
	return Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roles, _ := r.Context().Value(globals.RoleKey).([]string)
		for _, have := range roles {
			if have == role {
				next(w, r, ps)
				return
			}
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	})
}

func ValidateJWT(tokenString string) (*Claims, error) {
	if len(tokenString) < 8 || tokenString[:7] != "Bearer " {
		return nil, fmt.Errorf("invalid token")
	}
	return ParseToken(tokenString[7:])
}

// ParseToken validates a bare token, as sent by websocket clients that
// cannot set an Authorization header.
func ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return globals.JwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func HasRole(claims *Claims, role string) bool {
	if claims == nil {
		return false
	}
	for _, have := range claims.Role {
		if have == role {
			return true
		}
	}
	return false
}

func withClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, globals.UserIDKey, claims.UserID)
	return context.WithValue(ctx, globals.RoleKey, claims.Role)
}
