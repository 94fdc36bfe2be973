package credential_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	credential "github.com/mutablelogic/go-llmstream/pkg/credential"
	assert "github.com/stretchr/testify/assert"
)

func Test_credential_static(t *testing.T) {
	assert := assert.New(t)
	resolver := credential.NewStatic("AKID", "SECRET", "TOKEN", "eu-west-1")

	credentials, region, err := resolver.Resolve(context.Background())
	assert.NoError(err)
	assert.Equal("eu-west-1", region)
	assert.Equal("AKID", credentials.AccessKeyID)
	assert.Equal("SECRET", credentials.SecretAccessKey)
	assert.Equal("TOKEN", credentials.SessionToken)
	assert.False(credentials.IsBearer())
}

func Test_credential_static_empty(t *testing.T) {
	assert := assert.New(t)
	resolver := credential.NewStatic("", "", "", "")

	_, _, err := resolver.Resolve(context.Background())
	assert.ErrorIs(err, llmstream.ErrAuth)
}

func Test_credential_bearer(t *testing.T) {
	assert := assert.New(t)
	resolver := credential.NewBearer("sk-test-token", "")

	credentials, region, err := resolver.Resolve(context.Background())
	assert.NoError(err)
	assert.Equal(credential.DefaultRegion, region)
	assert.True(credentials.IsBearer())

	token, err := credentials.BearerToken()
	assert.NoError(err)
	assert.Equal("sk-test-token", token)
}

func Test_credential_env(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDENV")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRETENV")
	t.Setenv("AWS_SESSION_TOKEN", "SESSIONENV")
	t.Setenv("AWS_REGION", "ap-southeast-2")
	t.Setenv("AWS_BEARER_TOKEN_BEDROCK", "")

	resolver := new(credential.Env)
	credentials, region, err := resolver.Resolve(context.Background())
	assert.NoError(err)
	assert.Equal("ap-southeast-2", region)
	assert.Equal("AKIDENV", credentials.AccessKeyID)
	assert.Equal("SECRETENV", credentials.SecretAccessKey)
	assert.Equal("SESSIONENV", credentials.SessionToken)
}

func Test_credential_env_bearer_precedence(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDENV")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRETENV")
	t.Setenv("AWS_BEARER_TOKEN_BEDROCK", "bedrock-token")
	t.Setenv("AWS_REGION", "us-west-2")

	resolver := new(credential.Env)
	credentials, region, err := resolver.Resolve(context.Background())
	assert.NoError(err)
	assert.Equal("us-west-2", region)
	assert.True(credentials.IsBearer())
}

func Test_credential_env_missing(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_BEARER_TOKEN_BEDROCK", "")

	resolver := new(credential.Env)
	_, _, err := resolver.Resolve(context.Background())
	assert.ErrorIs(err, llmstream.ErrAuth)
}

func Test_credential_file(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	assert.NoError(os.WriteFile(path, []byte(`
profiles:
  default:
    access_key_id: AKIDFILE
    secret_access_key: SECRETFILE
    region: eu-central-1
  bearer:
    bearer_token: file-token
`), 0600))

	resolver := &credential.File{Path: path}
	credentials, region, err := resolver.Resolve(context.Background())
	assert.NoError(err)
	assert.Equal("eu-central-1", region)
	assert.Equal("AKIDFILE", credentials.AccessKeyID)

	resolver = &credential.File{Path: path, Profile: "bearer"}
	credentials, _, err = resolver.Resolve(context.Background())
	assert.NoError(err)
	assert.True(credentials.IsBearer())

	resolver = &credential.File{Path: path, Profile: "missing"}
	_, _, err = resolver.Resolve(context.Background())
	assert.ErrorIs(err, llmstream.ErrNotFound)
}

func Test_credential_chain(t *testing.T) {
	assert := assert.New(t)

	chain := credential.Chain{
		credential.NewStatic("", "", "", ""),
		credential.NewStatic("AKID2", "SECRET2", "", "us-east-2"),
	}
	credentials, region, err := chain.Resolve(context.Background())
	assert.NoError(err)
	assert.Equal("us-east-2", region)
	assert.Equal("AKID2", credentials.AccessKeyID)

	empty := credential.Chain{}
	_, _, err = empty.Resolve(context.Background())
	assert.ErrorIs(err, llmstream.ErrAuth)
}
