// Package auth decides whether the current invocation carries consent from a
// given identity.
//
// Contract handlers only call Authorizer.RequireAuth. Transports establish
// the signer set: in-process callers attach identities with WithSigners, while
// the gRPC and MCP surfaces verify EdDSA consent tokens with ConsentVerifier
// and attach the identities they prove.
package auth
