// Package token verifies access tokens issued by the account service.
//
// Tokens are Ed25519-signed JWTs. The encounter service only verifies them;
// issuance belongs to the external auth collaborator.
package token

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/hearthvale/initiative/internal/platform/errors"
)

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Issuer    string `env:"INITIATIVE_AUTH_ISSUER"`
	Audience  string `env:"INITIATIVE_AUTH_AUDIENCE"`
	PublicKey string `env:"INITIATIVE_AUTH_PUBLIC_KEY"`
}

// Config defines how access tokens are verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// accessClaims is the internal claims type used for JWT parsing.
type accessClaims struct {
	jwt.RegisteredClaims
}

// LoadConfigFromEnv reads token verification configuration.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse token env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return Config{}, fmt.Errorf("INITIATIVE_AUTH_ISSUER is required")
	}
	if audience == "" {
		return Config{}, fmt.Errorf("INITIATIVE_AUTH_AUDIENCE is required")
	}
	if publicKey == "" {
		return Config{}, fmt.Errorf("INITIATIVE_AUTH_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode auth public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Config{}, fmt.Errorf("auth public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// Verify parses an access token and returns the authenticated user id.
func Verify(raw string, cfg Config) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperrors.New(apperrors.CodeAuthenticationRequired, "access token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return "", errors.New("token verifier is not configured")
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", apperrors.New(apperrors.CodeAuthenticationRequired, "access token is invalid")
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return "", apperrors.New(apperrors.CodeAuthenticationRequired, "access token issuer mismatch")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return "", apperrors.New(apperrors.CodeAuthenticationRequired, "access token audience mismatch")
	}
	if parsed.ExpiresAt == nil {
		return "", apperrors.New(apperrors.CodeAuthenticationRequired, "access token exp is required")
	}

	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return "", apperrors.New(apperrors.CodeAuthenticationRequired, "access token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return "", apperrors.New(apperrors.CodeAuthenticationRequired, "access token not active yet")
	}

	userID := strings.TrimSpace(parsed.Subject)
	if userID == "" {
		return "", apperrors.New(apperrors.CodeAuthenticationRequired, "access token subject is required")
	}
	return userID, nil
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
