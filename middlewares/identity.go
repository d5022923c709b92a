package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/bxsite/pkg/logger"
)

// DevAccountID is the account assumed for anonymous callers when the
// development bypass is enabled.
const DevAccountID = "dev"

// Identity is the authenticated caller of a request.
type Identity struct {
	AccountID string
	// Bypass is set only for the development account and lifts ownership checks.
	Bypass bool
}

// identityKey is the context key for storing the caller identity.
type identityKey struct{}

// Token validation errors.
var (
	ErrMissingToken = errors.New("middlewares: missing bearer token")
	ErrInvalidToken = errors.New("middlewares: invalid token")
	ErrExpiredToken = errors.New("middlewares: token expired")
	ErrMissingSub   = errors.New("middlewares: token has no subject")
)

// IdentityConfig configures the identity middleware.
type IdentityConfig struct {
	Logger    *slog.Logger
	Issuer    string
	Secret    []byte
	DevBypass bool
}

// IdentityOption configures IdentityConfig.
type IdentityOption func(*IdentityConfig)

// WithDevBypass makes anonymous callers the development account with
// ownership checks lifted. Never enable it outside local development.
func WithDevBypass(enabled bool) IdentityOption {
	return func(cfg *IdentityConfig) {
		cfg.DevBypass = enabled
	}
}

// WithIdentityIssuer requires tokens to carry the given iss claim.
func WithIdentityIssuer(iss string) IdentityOption {
	return func(cfg *IdentityConfig) {
		cfg.Issuer = iss
	}
}

// WithIdentityLogger sets the logger used for rejected tokens.
func WithIdentityLogger(l *slog.Logger) IdentityOption {
	return func(cfg *IdentityConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// AuthIdentity returns middleware that resolves the caller from an HS256
// bearer token whose sub claim is the account identifier.
//
// It never rejects a request: a missing or invalid token leaves the request
// anonymous and the operation decides whether that is acceptable.
func AuthIdentity(secret []byte, opts ...IdentityOption) func(http.Handler) http.Handler {
	cfg := &IdentityConfig{
		Secret: secret,
		Logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := cfg.authenticate(r)
			switch {
			case err == nil:
			case errors.Is(err, ErrMissingToken):
				if cfg.DevBypass {
					id = Identity{AccountID: DevAccountID, Bypass: true}
				}
			default:
				cfg.Logger.DebugContext(r.Context(), "bearer token rejected", slog.Any("error", err))
			}

			if id.AccountID == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func (cfg *IdentityConfig) authenticate(r *http.Request) (Identity, error) {
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		return Identity{}, ErrMissingToken
	}
	if len(cfg.Secret) == 0 {
		return Identity{}, ErrInvalidToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return cfg.Secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, errors.Join(ErrExpiredToken, err)
		}
		return Identity{}, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, ErrMissingSub
	}
	return Identity{AccountID: claims.Subject}, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// SignToken issues an HS256 token for accountID that expires after ttl.
// The identity provider normally issues tokens; this exists for tooling
// and tests.
func SignToken(secret []byte, accountID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// GetIdentity returns the caller identity, or the zero Identity for
// anonymous requests.
func GetIdentity(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}

// AccountExtractor returns a ContextExtractor that adds "account_id" to
// log entries of authenticated requests.
func AccountExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := GetIdentity(ctx); id.AccountID != "" {
			return slog.String("account_id", id.AccountID), true
		}
		return slog.Attr{}, false
	}
}
