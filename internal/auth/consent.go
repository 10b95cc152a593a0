package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/milestonefund/internal/campaign"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
	"github.com/louisbranch/milestonefund/internal/platform/id"
)

const (
	// EnvConsentIssuer names the expected consent token issuer.
	EnvConsentIssuer = "MILESTONEFUND_CONSENT_ISSUER"
	// EnvConsentAudience names the contract instance tokens must target.
	EnvConsentAudience = "MILESTONEFUND_CONSENT_AUDIENCE"
	// EnvConsentPublicKey holds the base64 Ed25519 verification key.
	EnvConsentPublicKey = "MILESTONEFUND_CONSENT_PUBLIC_KEY"
	// EnvConsentPrivateKey holds the base64 Ed25519 signing key.
	EnvConsentPrivateKey = "MILESTONEFUND_CONSENT_PRIVATE_KEY"
)

// DefaultConsentTTL bounds how long an issued consent token stays valid.
const DefaultConsentTTL = 5 * time.Minute

type consentEnv struct {
	Issuer    string `env:"MILESTONEFUND_CONSENT_ISSUER"`
	Audience  string `env:"MILESTONEFUND_CONSENT_AUDIENCE"`
	PublicKey string `env:"MILESTONEFUND_CONSENT_PUBLIC_KEY"`
}

// ConsentConfig defines how consent tokens are verified.
type ConsentConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

type consentClaims struct {
	jwt.RegisteredClaims
}

// LoadConsentConfigFromEnv reads consent verification configuration.
func LoadConsentConfigFromEnv(now func() time.Time) (ConsentConfig, error) {
	var raw consentEnv
	if err := env.Parse(&raw); err != nil {
		return ConsentConfig{}, fmt.Errorf("parse consent env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return ConsentConfig{}, fmt.Errorf("%s is required", EnvConsentIssuer)
	}
	if audience == "" {
		return ConsentConfig{}, fmt.Errorf("%s is required", EnvConsentAudience)
	}
	if publicKey == "" {
		return ConsentConfig{}, fmt.Errorf("%s is required", EnvConsentPublicKey)
	}
	keyBytes, err := DecodeKey(publicKey)
	if err != nil {
		return ConsentConfig{}, fmt.Errorf("decode consent public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return ConsentConfig{}, fmt.Errorf("consent public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return ConsentConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// ConsentVerifier turns signed consent tokens into invocation signers.
type ConsentVerifier struct {
	cfg ConsentConfig
}

// NewConsentVerifier validates cfg and returns a verifier.
func NewConsentVerifier(cfg ConsentConfig) (*ConsentVerifier, error) {
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return nil, errors.New("consent verifier is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ConsentVerifier{cfg: cfg}, nil
}

// Verify checks one consent token and returns the identity it proves.
func (v *ConsentVerifier) Verify(token string) (campaign.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperrors.New(apperrors.CodeConsentInvalid, "consent token is required")
	}

	var parsed consentClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != v.cfg.Issuer {
		return "", mismatch("issuer")
	}
	if !audienceContains(parsed.Audience, v.cfg.Audience) {
		return "", mismatch("audience")
	}
	if parsed.ExpiresAt == nil {
		return "", apperrors.New(apperrors.CodeConsentInvalid, "consent token exp is required")
	}
	now := v.cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.After(now) {
		return "", apperrors.New(apperrors.CodeConsentInvalid, "consent token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time) {
		return "", apperrors.New(apperrors.CodeConsentInvalid, "consent token not active yet")
	}

	identity, err := campaign.ParseIdentity(parsed.Subject)
	if err != nil {
		return "", mismatch("subject")
	}
	return identity, nil
}

// Authenticate verifies every token and returns ctx extended with the proven signers.
func (v *ConsentVerifier) Authenticate(ctx context.Context, tokens []string) (context.Context, error) {
	identities := make([]campaign.Identity, 0, len(tokens))
	for _, token := range tokens {
		identity, err := v.Verify(token)
		if err != nil {
			return ctx, err
		}
		identities = append(identities, identity)
	}
	return WithSigners(ctx, identities...), nil
}

// ConsentIssuer mints consent tokens for identities whose private key it holds.
type ConsentIssuer struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// Issue signs a consent token proving identity for the configured audience.
func (i ConsentIssuer) Issue(identity campaign.Identity) (string, error) {
	if identity.IsZero() {
		return "", campaign.ErrInvalidIdentity
	}
	if i.Issuer == "" || i.Audience == "" || len(i.Key) != ed25519.PrivateKeySize {
		return "", errors.New("consent issuer is not configured")
	}
	now := time.Now
	if i.Now != nil {
		now = i.Now
	}
	ttl := i.TTL
	if ttl <= 0 {
		ttl = DefaultConsentTTL
	}
	jti, err := id.NewID()
	if err != nil {
		return "", err
	}

	issuedAt := now().UTC()
	claims := consentClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    i.Issuer,
		Subject:   identity.String(),
		Audience:  jwt.ClaimStrings{i.Audience},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		ID:        jti,
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(i.Key)
	if err != nil {
		return "", fmt.Errorf("sign consent token: %w", err)
	}
	return signed, nil
}

type issuerEnv struct {
	Issuer     string `env:"MILESTONEFUND_CONSENT_ISSUER"`
	Audience   string `env:"MILESTONEFUND_CONSENT_AUDIENCE"`
	PrivateKey string `env:"MILESTONEFUND_CONSENT_PRIVATE_KEY"`
}

// LoadConsentIssuerFromEnv reads the signing side of the consent configuration.
func LoadConsentIssuerFromEnv(now func() time.Time) (ConsentIssuer, error) {
	var raw issuerEnv
	if err := env.Parse(&raw); err != nil {
		return ConsentIssuer{}, fmt.Errorf("parse consent env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if issuer == "" {
		return ConsentIssuer{}, fmt.Errorf("%s is required", EnvConsentIssuer)
	}
	if audience == "" {
		return ConsentIssuer{}, fmt.Errorf("%s is required", EnvConsentAudience)
	}
	if privateKey == "" {
		return ConsentIssuer{}, fmt.Errorf("%s is required", EnvConsentPrivateKey)
	}
	keyBytes, err := DecodeKey(privateKey)
	if err != nil {
		return ConsentIssuer{}, fmt.Errorf("decode consent private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return ConsentIssuer{}, fmt.Errorf("consent private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return ConsentIssuer{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PrivateKey(keyBytes),
		Now:      now,
	}, nil
}

// DecodeKey decodes a base64 key, accepting raw or padded encodings.
func DecodeKey(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.Wrap(apperrors.CodeConsentInvalid, "consent token signature is invalid", err)
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.Wrap(apperrors.CodeConsentInvalid, "consent token alg is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeConsentInvalid, "consent token is invalid", err)
}

func mismatch(field string) error {
	return apperrors.WithMetadata(
		apperrors.CodeConsentInvalid,
		"consent token "+field+" mismatch",
		map[string]string{"Field": field},
	)
}

func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}
