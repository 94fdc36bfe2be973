/*
bedrock implements a streaming client for the Amazon Bedrock Converse
API. Responses arrive over the binary event-stream framing protocol and
requests are signed with SigV4, or sent with a bearer token when the
credential resolver provides one.
https://docs.aws.amazon.com/bedrock/latest/APIReference/API_runtime_ConverseStream.html
*/
package bedrock

import (
	"fmt"
	"net/http"
	"time"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	modelcache "github.com/mutablelogic/go-llmstream/pkg/modelcache"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	*modelcache.ModelCache

	resolver schema.CredentialResolver

	// runtime serves converse-stream, control serves model listing
	runtime string
	control string
	http    *http.Client
}

var _ llmstream.Client = (*Client)(nil)
var _ llmstream.Streamer = (*Client)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	runtimeEndpoint = "https://bedrock-runtime.%s.amazonaws.com"
	controlEndpoint = "https://bedrock.%s.amazonaws.com"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a Bedrock client for the resolver's region
func New(region string, resolver schema.CredentialResolver) (*Client, error) {
	if resolver == nil {
		return nil, llmstream.ErrBadParameter.With("credential resolver is required")
	}
	return &Client{
		ModelCache: modelcache.NewModelCache(time.Hour, 100),
		resolver:   resolver,
		runtime:    fmt.Sprintf(runtimeEndpoint, region),
		control:    fmt.Sprintf(controlEndpoint, region),
		http:       new(http.Client),
	}, nil
}

// NewWithEndpoint creates a client with one endpoint serving both the
// runtime and control planes
func NewWithEndpoint(endpoint string, resolver schema.CredentialResolver) (*Client, error) {
	if resolver == nil {
		return nil, llmstream.ErrBadParameter.With("credential resolver is required")
	}
	return &Client{
		ModelCache: modelcache.NewModelCache(time.Hour, 100),
		resolver:   resolver,
		runtime:    endpoint,
		control:    endpoint,
		http:       new(http.Client),
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Name returns the provider name
func (*Client) Name() string {
	return schema.Bedrock
}
