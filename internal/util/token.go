package util

import (
	"ecole_backend/pkg/logger"
	"encoding/base64"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// TokenResolver turns a bearer token into a user id without touching the database.
type TokenResolver struct {
	secret string
	legacy atomic.Bool
}

func NewTokenResolver(secret string, legacyEnabled bool) *TokenResolver {
	r := &TokenResolver{secret: secret}
	r.legacy.Store(legacyEnabled)
	return r
}

// SetLegacyEnabled is called on config reload.
func (r *TokenResolver) SetLegacyEnabled(enabled bool) {
	r.legacy.Store(enabled)
}

func (r *TokenResolver) LegacyEnabled() bool {
	return r.legacy.Load()
}

// ExtractBearer returns the token part of an "Authorization: Bearer <token>" header.
func ExtractBearer(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (r *TokenResolver) Resolve(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}

	if strings.Contains(token, ".") {
		claims, err := ParseJWT(token, r.secret)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}

	if !r.legacy.Load() {
		return "", ErrInvalidToken
	}
	return r.resolveLegacy(token)
}

// resolveLegacy decodes base64("userId:timestamp"). The token is unsigned;
// whoever knows a user id can forge it.
func (r *TokenResolver) resolveLegacy(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(token)
		if err != nil {
			return "", ErrInvalidToken
		}
	}

	userID, _, _ := strings.Cut(string(raw), ":")
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidToken
	}

	logger.Log.Warn("deprecated unsigned legacy token used", zap.String("user_id", userID))
	return userID, nil
}
