package campaign

import (
	"fmt"
	"strings"
)

// Identity is an opaque caller identity. Two identities are the same caller
// exactly when they compare equal.
type Identity string

// ParseIdentity trims and validates a caller identity.
func ParseIdentity(value string) (Identity, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrInvalidIdentity
	}
	return Identity(trimmed), nil
}

// MustIdentity parses an identity and panics when it is empty. Intended for
// tests and constants.
func MustIdentity(value string) Identity {
	identity, err := ParseIdentity(value)
	if err != nil {
		panic(fmt.Sprintf("campaign: invalid identity %q", value))
	}
	return identity
}

// String returns the identity text.
func (i Identity) String() string {
	return string(i)
}

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool {
	return i == ""
}
