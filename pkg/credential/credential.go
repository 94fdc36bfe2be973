/*
credential resolves signing credentials for provider endpoints. Static
keys, environment variables, a YAML credentials file and bearer tokens
are supported; resolvers are chained so the first source with usable
credentials wins.
*/
package credential

import (
	"context"
	"os"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	oauth2 "golang.org/x/oauth2"
	yaml "gopkg.in/yaml.v3"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Static resolves to a fixed signing context and region
type Static struct {
	Credentials schema.SigningContext
	Region      string
}

// Env resolves access keys and region from the conventional AWS
// environment variables
type Env struct {
	// Region overrides AWS_REGION when set
	Region string
}

// File resolves credentials from a YAML file
type File struct {
	Path string
	// Profile selects a named profile, "default" when empty
	Profile string
}

// Chain tries each resolver in order, returning the first that
// resolves without error
type Chain []schema.CredentialResolver

// fileDoc is the YAML credentials file layout
type fileDoc struct {
	Profiles map[string]fileProfile `yaml:"profiles"`
}

type fileProfile struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	BearerToken     string `yaml:"bearer_token"`
	Region          string `yaml:"region"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultRegion  = "us-east-1"
	defaultProfile = "default"
)

// Check interface implementations
var (
	_ schema.CredentialResolver = (*Static)(nil)
	_ schema.CredentialResolver = (*Env)(nil)
	_ schema.CredentialResolver = (*File)(nil)
	_ schema.CredentialResolver = (Chain)(nil)
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewStatic returns a resolver for fixed access keys
func NewStatic(accessKey, secretKey, sessionToken, region string) *Static {
	return &Static{
		Credentials: schema.SigningContext{
			AccessKeyID:     accessKey,
			SecretAccessKey: secretKey,
			SessionToken:    sessionToken,
		},
		Region: region,
	}
}

// NewBearer returns a resolver for a fixed bearer token
func NewBearer(token, region string) *Static {
	return &Static{
		Credentials: schema.SigningContext{
			Bearer: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		},
		Region: region,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (r *Static) Resolve(ctx context.Context) (*schema.SigningContext, string, error) {
	region := r.Region
	if region == "" {
		region = DefaultRegion
	}
	if !r.Credentials.IsBearer() && r.Credentials.AccessKeyID == "" {
		return nil, "", llmstream.ErrAuth.With("no credentials")
	}
	credentials := r.Credentials
	return &credentials, region, nil
}

func (r *Env) Resolve(ctx context.Context) (*schema.SigningContext, string, error) {
	region := r.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = DefaultRegion
	}

	// Bearer token takes precedence when set
	if token := os.Getenv("AWS_BEARER_TOKEN_BEDROCK"); token != "" {
		return &schema.SigningContext{
			Bearer: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}, region, nil
	}

	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if accessKey == "" || secretKey == "" {
		return nil, "", llmstream.ErrAuth.With("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY not set")
	}
	return &schema.SigningContext{
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}, region, nil
}

func (r *File) Resolve(ctx context.Context) (*schema.SigningContext, string, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, "", llmstream.ErrAuth.Withf("credentials file: %v", err)
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "", llmstream.ErrAuth.Withf("credentials file: %v", err)
	}

	name := r.Profile
	if name == "" {
		name = defaultProfile
	}
	profile, exists := doc.Profiles[name]
	if !exists {
		return nil, "", llmstream.ErrNotFound.Withf("profile %q", name)
	}

	region := profile.Region
	if region == "" {
		region = DefaultRegion
	}
	if profile.BearerToken != "" {
		return &schema.SigningContext{
			Bearer: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: profile.BearerToken}),
		}, region, nil
	}
	if profile.AccessKeyID == "" || profile.SecretAccessKey == "" {
		return nil, "", llmstream.ErrAuth.Withf("profile %q has no usable credentials", name)
	}
	return &schema.SigningContext{
		AccessKeyID:     profile.AccessKeyID,
		SecretAccessKey: profile.SecretAccessKey,
		SessionToken:    profile.SessionToken,
	}, region, nil
}

func (r Chain) Resolve(ctx context.Context) (*schema.SigningContext, string, error) {
	var err error
	for _, resolver := range r {
		credentials, region, e := resolver.Resolve(ctx)
		if e == nil {
			return credentials, region, nil
		}
		err = e
	}
	if err == nil {
		err = llmstream.ErrAuth.With("no credential resolvers configured")
	}
	return nil, "", err
}
