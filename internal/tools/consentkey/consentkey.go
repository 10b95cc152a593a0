// Package consentkey generates consent signing keys and mints consent tokens.
package consentkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/campaign"
)

// Generate creates a consent key pair and writes shell exports.
func Generate(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate consent key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export %s=%s\n", auth.EnvConsentPrivateKey, base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export %s=%s\n", auth.EnvConsentPublicKey, base64.RawStdEncoding.EncodeToString(publicKey)); err != nil {
		return err
	}
	return nil
}

// Issuer mints consent tokens.
type Issuer interface {
	Issue(identity campaign.Identity) (string, error)
}

// Mint writes one consent token per identity, one per line.
func Mint(out io.Writer, issuer Issuer, identities []string) error {
	if out == nil {
		return errors.New("output is required")
	}
	if issuer == nil {
		return errors.New("issuer is required")
	}
	if len(identities) == 0 {
		return errors.New("at least one identity is required")
	}
	for _, value := range identities {
		identity, err := campaign.ParseIdentity(value)
		if err != nil {
			return fmt.Errorf("identity %q: %w", value, err)
		}
		token, err := issuer.Issue(identity)
		if err != nil {
			return fmt.Errorf("mint consent for %s: %w", identity, err)
		}
		if _, err := fmt.Fprintln(out, token); err != nil {
			return err
		}
	}
	return nil
}
