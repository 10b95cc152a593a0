package mcp

import (
	"context"
	"errors"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/campaign"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
)

// Consent is embedded in every mutating tool input.
type Consent struct {
	ConsentTokens []string `json:"consent_tokens,omitempty" jsonschema:"signed consent tokens, one per identity authorizing the call"`
	Signers       []string `json:"signers,omitempty" jsonschema:"identities authorizing the call; only honored by trusted local servers"`
}

type consentResolver struct {
	verifier     *auth.ConsentVerifier
	trustSigners bool
}

// attach puts the proven signers of consent on ctx.
func (r consentResolver) attach(ctx context.Context, consent Consent) (context.Context, error) {
	if len(consent.ConsentTokens) > 0 {
		if r.verifier == nil {
			return ctx, apperrors.New(apperrors.CodeConsentInvalid, "consent verification is not configured")
		}
		var err error
		ctx, err = r.verifier.Authenticate(ctx, consent.ConsentTokens)
		if err != nil {
			return ctx, err
		}
	}
	if len(consent.Signers) == 0 {
		return ctx, nil
	}
	if !r.trustSigners {
		return ctx, errors.New("signers require consent tokens on this server")
	}
	identities := make([]campaign.Identity, 0, len(consent.Signers))
	for _, signer := range consent.Signers {
		identity, err := campaign.ParseIdentity(signer)
		if err != nil {
			return ctx, err
		}
		identities = append(identities, identity)
	}
	return auth.WithSigners(ctx, identities...), nil
}
