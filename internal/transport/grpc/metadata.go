package grpc

import (
	"context"
	"strings"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/louisbranch/milestonefund/internal/auth"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
)

// ConsentTokenHeader carries one consent token per signing identity.
const ConsentTokenHeader = "x-milestonefund-consent-token"

// LocaleHeader selects the language of localized error messages.
const LocaleHeader = "x-milestonefund-locale"

// ConsentUnaryInterceptor verifies consent tokens on campaign calls and
// attaches the proven identities as invocation signers. Other services, such
// as health, pass through untouched.
func ConsentUnaryInterceptor(verifier *auth.ConsentVerifier) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		if info == nil || !strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		tokens := md.Get(ConsentTokenHeader)
		if len(tokens) == 0 {
			return handler(ctx, req)
		}
		if verifier == nil {
			return nil, apperrors.HandleError(
				apperrors.New(apperrors.CodeConsentInvalid, "consent verification is not configured"),
				localeFromContext(ctx),
			)
		}
		signedCtx, err := verifier.Authenticate(ctx, tokens)
		if err != nil {
			return nil, apperrors.HandleError(err, localeFromContext(ctx))
		}
		return handler(signedCtx, req)
	}
}

func localeFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get(LocaleHeader) {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
