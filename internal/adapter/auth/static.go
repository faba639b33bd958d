package auth

import (
	"context"
	"crypto/subtle"

	"github.com/AmimerNabil/achieveai/internal/config"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
)

// StaticVerifier accepts a fixed set of bearer tokens. Meant for local
// development and tests, never for a public deployment.
type StaticVerifier struct {
	tokens map[string]domain.Identity
}

var _ ports.IdentityVerifier = (*StaticVerifier)(nil)

func NewStaticVerifier(tokens map[string]domain.Identity) *StaticVerifier {
	copied := make(map[string]domain.Identity, len(tokens))
	for token, identity := range tokens {
		copied[token] = identity
	}
	return &StaticVerifier{tokens: copied}
}

func NewStaticVerifierFromConfig(entries map[string]config.StaticIdentity) *StaticVerifier {
	tokens := make(map[string]domain.Identity, len(entries))
	for token, entry := range entries {
		tokens[token] = domain.Identity{Subject: entry.Subject, Email: entry.Email}
	}
	return &StaticVerifier{tokens: tokens}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	for known, identity := range v.tokens {
		if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
			return identity, nil
		}
	}
	return domain.Identity{}, domain.ErrUnauthorized
}
