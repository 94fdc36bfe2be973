package schema

import (
	"context"

	// Packages
	oauth2 "golang.org/x/oauth2"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// SigningContext carries the credentials for signing one request: either
// static access keys (SigV4) or a bearer token source. It is never
// persisted; credential sourcing is the resolver's concern.
type SigningContext struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Bearer, when set, short-circuits request signing to a plain
	// Authorization: Bearer header
	Bearer oauth2.TokenSource
}

// CredentialResolver resolves the signing context and region for a
// provider endpoint
type CredentialResolver interface {
	// Resolve returns the signing context and region to use
	Resolve(ctx context.Context) (*SigningContext, string, error)
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsBearer returns true when the context signs with a bearer token
func (c *SigningContext) IsBearer() bool {
	return c != nil && c.Bearer != nil
}

// BearerToken returns the current bearer token value
func (c *SigningContext) BearerToken() (string, error) {
	token, err := c.Bearer.Token()
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
