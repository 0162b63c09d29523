package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"passage/core/types"
)

// SenderHeader names the caller when authentication is disabled. It is
// ignored once bearer tokens are required.
const SenderHeader = "X-Passage-Sender"

type AuthConfig struct {
	Enabled    bool
	HMACSecret string
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
}

type contextKey string

const contextKeySender contextKey = "gateway.sender"

// Authenticator resolves the sender of mutating requests. With auth enabled
// the sender is the bech32 subject of an HMAC-signed JWT.
type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
	secret []byte
	now    func() time.Time
}

func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{
		cfg:    cfg,
		logger: logger,
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
		now:    time.Now,
	}
}

// SetNowFunc overrides the clock used for token expiry.
func (a *Authenticator) SetNowFunc(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

// Middleware rejects requests without a resolvable sender.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sender, err := a.resolve(r)
		if err != nil {
			a.logger.Warn("gateway auth rejected",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()))
			WriteError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), contextKeySender, sender)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SenderFromContext returns the sender resolved by Middleware.
func SenderFromContext(ctx context.Context) (types.Address, bool) {
	sender, ok := ctx.Value(contextKeySender).(types.Address)
	return sender, ok
}

func (a *Authenticator) resolve(r *http.Request) (types.Address, error) {
	if !a.cfg.Enabled {
		raw := strings.TrimSpace(r.Header.Get(SenderHeader))
		if raw == "" {
			return types.Address{}, fmt.Errorf("missing %s header", SenderHeader)
		}
		return types.ParseAddress(raw)
	}
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return types.Address{}, errors.New("missing bearer token")
	}
	subject, err := a.parseSubject(tokenString)
	if err != nil {
		return types.Address{}, err
	}
	sender, err := types.ParseAddress(subject)
	if err != nil {
		return types.Address{}, fmt.Errorf("token subject: %w", err)
	}
	return sender, nil
}

func (a *Authenticator) parseSubject(tokenString string) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("auth secret not configured")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token subject required")
	}
	return claims.Subject, nil
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
