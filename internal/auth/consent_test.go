package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/milestonefund/internal/campaign"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
)

var consentNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLoadConsentConfigFromEnv(t *testing.T) {
	t.Setenv(EnvConsentIssuer, "")
	t.Setenv(EnvConsentAudience, "")
	t.Setenv(EnvConsentPublicKey, "")

	if _, err := LoadConsentConfigFromEnv(nil); err == nil {
		t.Fatal("expected error when env vars are missing")
	}

	pub, _ := generateKey(t)
	t.Setenv(EnvConsentIssuer, "consent-key")
	t.Setenv(EnvConsentAudience, "campaign-1")
	t.Setenv(EnvConsentPublicKey, base64.RawStdEncoding.EncodeToString(pub))

	cfg, err := LoadConsentConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load consent config: %v", err)
	}
	if cfg.Issuer != "consent-key" || cfg.Audience != "campaign-1" {
		t.Fatalf("config = %+v", cfg)
	}
	if len(cfg.Key) != ed25519.PublicKeySize {
		t.Fatalf("key size = %d, want %d", len(cfg.Key), ed25519.PublicKeySize)
	}
}

func TestLoadConsentConfigRejectsShortKey(t *testing.T) {
	t.Setenv(EnvConsentIssuer, "consent-key")
	t.Setenv(EnvConsentAudience, "campaign-1")
	t.Setenv(EnvConsentPublicKey, base64.StdEncoding.EncodeToString([]byte("short")))

	if _, err := LoadConsentConfigFromEnv(nil); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestLoadConsentIssuerFromEnv(t *testing.T) {
	t.Setenv(EnvConsentIssuer, "consent-key")
	t.Setenv(EnvConsentAudience, "campaign-1")
	t.Setenv(EnvConsentPrivateKey, "")

	if _, err := LoadConsentIssuerFromEnv(nil); err == nil {
		t.Fatal("expected error when private key is missing")
	}

	pub, priv := generateKey(t)
	t.Setenv(EnvConsentPrivateKey, base64.RawStdEncoding.EncodeToString(priv))
	issuer, err := LoadConsentIssuerFromEnv(func() time.Time { return consentNow })
	if err != nil {
		t.Fatalf("load consent issuer: %v", err)
	}
	token, err := issuer.Issue("creator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	identity, err := newVerifier(t, pub).Verify(token)
	if err != nil || identity != "creator" {
		t.Fatalf("verify = %q, %v", identity, err)
	}

	t.Setenv(EnvConsentPrivateKey, base64.RawStdEncoding.EncodeToString(pub))
	if _, err := LoadConsentIssuerFromEnv(nil); err == nil {
		t.Fatal("expected error for a public key in the private slot")
	}
}

func TestIssueThenVerify(t *testing.T) {
	pub, priv := generateKey(t)
	issuer := newIssuer(priv)
	verifier := newVerifier(t, pub)

	token, err := issuer.Issue("donor-x")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	identity, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity != "donor-x" {
		t.Fatalf("identity = %q, want donor-x", identity)
	}
}

func TestVerifyRejects(t *testing.T) {
	pub, priv := generateKey(t)
	_, otherPriv := generateKey(t)
	verifier := newVerifier(t, pub)

	expired := newIssuer(priv)
	expired.Now = func() time.Time { return consentNow.Add(-time.Hour) }

	wrongAudience := newIssuer(priv)
	wrongAudience.Audience = "campaign-2"

	wrongIssuer := newIssuer(priv)
	wrongIssuer.Issuer = "someone-else"

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{name: "empty", token: func(*testing.T) string { return " " }},
		{name: "garbage", token: func(*testing.T) string { return "not-a-jwt" }},
		{name: "wrong key", token: func(t *testing.T) string { return mustIssue(t, newIssuer(otherPriv), "donor") }},
		{name: "expired", token: func(t *testing.T) string { return mustIssue(t, expired, "donor") }},
		{name: "audience", token: func(t *testing.T) string { return mustIssue(t, wrongAudience, "donor") }},
		{name: "issuer", token: func(t *testing.T) string { return mustIssue(t, wrongIssuer, "donor") }},
		{name: "hmac", token: func(t *testing.T) string {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Issuer:    "consent-key",
				Subject:   "donor",
				Audience:  jwt.ClaimStrings{"campaign-1"},
				ExpiresAt: jwt.NewNumericDate(consentNow.Add(time.Minute)),
			}).SignedString([]byte("secret"))
			if err != nil {
				t.Fatalf("sign hmac: %v", err)
			}
			return signed
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token(t))
			if apperrors.GetCode(err) != apperrors.CodeConsentInvalid {
				t.Fatalf("code = %s, want %s (err %v)", apperrors.GetCode(err), apperrors.CodeConsentInvalid, err)
			}
		})
	}
}

func TestAuthenticateAttachesSigners(t *testing.T) {
	pub, priv := generateKey(t)
	issuer := newIssuer(priv)
	verifier := newVerifier(t, pub)

	tokens := []string{mustIssue(t, issuer, "creator"), mustIssue(t, issuer, "admin")}
	ctx, err := verifier.Authenticate(context.Background(), tokens)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	var authorizer SignerAuthorizer
	for _, identity := range []campaign.Identity{"creator", "admin"} {
		if err := authorizer.RequireAuth(ctx, identity); err != nil {
			t.Fatalf("require %s: %v", identity, err)
		}
	}
}

func TestAuthenticateFailsOnAnyBadToken(t *testing.T) {
	pub, priv := generateKey(t)
	verifier := newVerifier(t, pub)

	tokens := []string{mustIssue(t, newIssuer(priv), "creator"), "broken"}
	if _, err := verifier.Authenticate(context.Background(), tokens); err == nil {
		t.Fatal("expected error for bad token")
	}
}

func TestIssueRequiresConfiguration(t *testing.T) {
	if _, err := (ConsentIssuer{}).Issue("donor"); err == nil {
		t.Fatal("expected error for unconfigured issuer")
	}
	_, priv := generateKey(t)
	if _, err := newIssuer(priv).Issue(""); err == nil {
		t.Fatal("expected error for empty identity")
	}
}

func TestNewConsentVerifierRequiresConfig(t *testing.T) {
	if _, err := NewConsentVerifier(ConsentConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func generateKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub, priv
}

func newIssuer(priv ed25519.PrivateKey) ConsentIssuer {
	return ConsentIssuer{
		Issuer:   "consent-key",
		Audience: "campaign-1",
		Key:      priv,
		Now:      func() time.Time { return consentNow },
	}
}

func newVerifier(t *testing.T, pub ed25519.PublicKey) *ConsentVerifier {
	t.Helper()
	verifier, err := NewConsentVerifier(ConsentConfig{
		Issuer:   "consent-key",
		Audience: "campaign-1",
		Key:      pub,
		Now:      func() time.Time { return consentNow },
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return verifier
}

func mustIssue(t *testing.T, issuer ConsentIssuer, identity campaign.Identity) string {
	t.Helper()
	token, err := issuer.Issue(identity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}
