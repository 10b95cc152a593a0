package auth

import (
	"context"

	"github.com/louisbranch/milestonefund/internal/campaign"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
)

// Authorizer asserts that the current invocation carries consent from an identity.
type Authorizer interface {
	RequireAuth(ctx context.Context, identity campaign.Identity) error
}

type signersKey struct{}

// WithSigners returns a context whose invocation is signed by the given
// identities, in addition to any signers already present.
func WithSigners(ctx context.Context, identities ...campaign.Identity) context.Context {
	existing := Signers(ctx)
	merged := make([]campaign.Identity, 0, len(existing)+len(identities))
	merged = append(merged, existing...)
	for _, identity := range identities {
		if identity.IsZero() || contains(merged, identity) {
			continue
		}
		merged = append(merged, identity)
	}
	return context.WithValue(ctx, signersKey{}, merged)
}

// Signers returns the identities that signed the invocation carried by ctx.
func Signers(ctx context.Context) []campaign.Identity {
	if ctx == nil {
		return nil
	}
	signers, _ := ctx.Value(signersKey{}).([]campaign.Identity)
	return signers
}

// SignerAuthorizer authorizes identities present in the context signer set.
type SignerAuthorizer struct{}

// RequireAuth fails with an Unauthorized abort when identity did not sign.
func (SignerAuthorizer) RequireAuth(ctx context.Context, identity campaign.Identity) error {
	if !identity.IsZero() && contains(Signers(ctx), identity) {
		return nil
	}
	return Unauthorized(identity)
}

// Unauthorized builds the abort raised for a missing consent.
func Unauthorized(identity campaign.Identity) error {
	return apperrors.WithMetadata(
		apperrors.CodeUnauthorized,
		"invocation is not authorized by "+identity.String(),
		map[string]string{"Identity": identity.String()},
	)
}

func contains(identities []campaign.Identity, target campaign.Identity) bool {
	for _, identity := range identities {
		if identity == target {
			return true
		}
	}
	return false
}
