package session

import (
	cryptorand "crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/huddleai/huddle/pkg/config"
	hudderr "github.com/huddleai/huddle/pkg/errors"
)

// RealtimeToken is the credential handed to the companion UI to bootstrap its
// realtime voice session.
type RealtimeToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	Model     string `json:"model"`
}

// IssueRealtimeToken mints a short-lived token for the realtime session. With
// a configured secret the token is a signed HS256 JWT carrying the session ID
// and model; without one it degrades to an opaque random token.
func IssueRealtimeToken(cfg config.SessionConfig, sessionID string) (RealtimeToken, error) {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}
	expiresAt := time.Now().Add(ttl)

	if cfg.TokenSecret == "" {
		raw := make([]byte, 32)
		if _, err := cryptorand.Read(raw); err != nil {
			return RealtimeToken{}, hudderr.Wrap(err, hudderr.ErrCodeInternal, "generating opaque token")
		}
		return RealtimeToken{
			Token:     hex.EncodeToString(raw),
			ExpiresAt: expiresAt.Unix(),
			Model:     cfg.RealtimeModel,
		}, nil
	}

	claims := jwt.MapClaims{
		"sid":   sessionID,
		"model": cfg.RealtimeModel,
		"iat":   time.Now().Unix(),
		"exp":   expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.TokenSecret))
	if err != nil {
		return RealtimeToken{}, hudderr.Wrap(err, hudderr.ErrCodeInternal, "signing realtime token")
	}

	return RealtimeToken{
		Token:     signed,
		ExpiresAt: expiresAt.Unix(),
		Model:     cfg.RealtimeModel,
	}, nil
}
