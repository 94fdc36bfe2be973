/*
openai implements a streaming client for the OpenAI Chat Completions API.
https://platform.openai.com/docs/api-reference/chat
*/
package openai

import (
	"net/http"
	"time"

	// Packages
	client "github.com/mutablelogic/go-client"
	llmstream "github.com/mutablelogic/go-llmstream"
	modelcache "github.com/mutablelogic/go-llmstream/pkg/modelcache"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	*client.Client
	*modelcache.ModelCache

	// endpoint and apiKey are retained for the streaming path, which
	// reads the response body directly rather than through go-client
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ llmstream.Client = (*Client)(nil)
var _ llmstream.Streamer = (*Client)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	endPoint = "https://api.openai.com/v1"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new OpenAI API client with the given API key
func New(apiKey string, opts ...client.ClientOpt) (*Client, error) {
	return NewWithEndpoint(endPoint, apiKey, opts...)
}

// NewWithEndpoint creates a client against an alternate API endpoint
func NewWithEndpoint(endpoint, apiKey string, opts ...client.ClientOpt) (*Client, error) {
	opts = append(opts,
		client.OptEndpoint(endpoint),
		client.OptReqToken(client.Token{
			Scheme: client.Bearer,
			Value:  apiKey,
		}),
	)
	if c, err := client.New(opts...); err != nil {
		return nil, err
	} else {
		return &Client{
			Client:     c,
			ModelCache: modelcache.NewModelCache(time.Hour, 100),
			endpoint:   endpoint,
			apiKey:     apiKey,
			http:       new(http.Client),
		}, nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Name returns the provider name
func (*Client) Name() string {
	return schema.OpenAI
}
