package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"scamshield/internal/config"
	"scamshield/internal/domain/models"
)

// ContextKey is a type for context keys
type ContextKey string

const (
	// ContextKeyActor is the context key for the authenticated caller
	ContextKeyActor ContextKey = "actor"
)

// Claims are the bearer token claims. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Name string      `json:"name,omitempty"`
	Role models.Role `json:"role,omitempty"`
}

// JWTAuth returns middleware that resolves the bearer token into an Actor
func JWTAuth(cfg config.JWTConfig) func(next http.Handler) http.Handler {
	secret := []byte(cfg.Secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for OPTIONS requests (CORS preflight)
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			actor, err := ParseToken(token, secret, cfg.Issuer)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header. Browsers
// cannot set headers on WebSocket upgrades, so the access_token query
// parameter is accepted for those.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			return r.URL.Query().Get("access_token")
		}
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ParseToken validates an HS256 token and returns the caller it names
func ParseToken(raw string, secret []byte, issuer string) (models.Actor, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return models.Actor{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return models.Actor{}, errors.New("token has no subject")
	}

	role := claims.Role
	if role == "" {
		role = models.RoleUser
	}
	return models.Actor{UserID: claims.Subject, Name: claims.Name, Role: role}, nil
}

// IssueToken signs a token for actor. Used by scamctl and tests.
func IssueToken(actor models.Actor, secret []byte, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: actor.Name,
		Role: actor.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ActorFrom returns the authenticated caller from context
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(ContextKeyActor).(models.Actor)
	return actor, ok
}

// WithActor stores actor in ctx
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}
