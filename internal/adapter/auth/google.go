package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"github.com/AmimerNabil/achieveai/internal/core/domain"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
)

// tokenValidator is the subset of *idtoken.Validator the verifier needs.
type tokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier checks Google-issued ID tokens (Google sign-in) against the
// OAuth client id they were minted for.
type GoogleVerifier struct {
	validator tokenValidator
	audience  string
}

var _ ports.IdentityVerifier = (*GoogleVerifier)(nil)

func NewGoogleVerifier(ctx context.Context, audience string, opts ...option.ClientOption) (*GoogleVerifier, error) {
	if audience == "" {
		return nil, errors.New("google client id is required to verify identity tokens")
	}
	validator, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create id token validator: %w", err)
	}
	return &GoogleVerifier{validator: validator, audience: audience}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	payload, err := v.validator.Validate(ctx, token, v.audience)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if payload.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}

	identity := domain.Identity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}
