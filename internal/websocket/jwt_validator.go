package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

var (
	// ErrInvalidToken is returned when the subscription token fails validation
	ErrInvalidToken = errors.New("invalid token")

	// ErrWorkspaceNotFound is returned when the token subject has no workspace
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// WorkspaceLookup resolves the workspace a subscriber belongs to
type WorkspaceLookup interface {
	WorkspaceIDByAuth0ID(ctx context.Context, auth0ID string) (int32, error)
}

// CustomClaims are the extra Auth0 claims the dashboard stream reads
type CustomClaims struct{}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// TokenValidator authenticates websocket subscriptions
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (int32, error)
}

// Auth0JWTValidator checks Auth0 access tokens passed on the websocket query string
type Auth0JWTValidator struct {
	validator       *validator.Validator
	workspaceLookup WorkspaceLookup
}

var _ TokenValidator = (*Auth0JWTValidator)(nil)

// NewAuth0JWTValidator creates a validator for the given Auth0 tenant and API audience
func NewAuth0JWTValidator(domain, audience string, workspaceLookup WorkspaceLookup) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{
		validator:       jwtValidator,
		workspaceLookup: workspaceLookup,
	}, nil
}

// ValidateToken verifies the token and returns the subscriber's workspace ID
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok || validated.RegisteredClaims.Subject == "" {
		return 0, ErrInvalidToken
	}

	workspaceID, err := v.workspaceLookup.WorkspaceIDByAuth0ID(ctx, validated.RegisteredClaims.Subject)
	if err != nil {
		return 0, ErrWorkspaceNotFound
	}
	return workspaceID, nil
}
