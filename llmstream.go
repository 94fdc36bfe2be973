/*
llmstream provides a unifying streaming layer over large-language-model
vendor APIs. Provider adapters translate vendor wire formats (SSE or the
binary event-stream protocol) into one canonical, ordered stream of
assistant-response lifecycle events.
*/
package llmstream

import (
	"context"

	// Packages
	opt "github.com/mutablelogic/go-llmstream/pkg/opt"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	stream "github.com/mutablelogic/go-llmstream/pkg/stream"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Client is the interface that wraps basic provider client methods
type Client interface {
	// Return the provider name
	Name() string

	// ListModels returns the list of available models
	ListModels(ctx context.Context, opts ...opt.Opt) ([]schema.Model, error)

	// GetModel returns the model with the given name
	GetModel(ctx context.Context, name string, opts ...opt.Opt) (*schema.Model, error)
}

// Streamer is the interface for clients that can stream a response.
// The returned stream yields canonical lifecycle events in order; the
// terminal event carries the complete assistant response.
type Streamer interface {
	// Stream starts a response stream for the given model and context.
	// The producer goroutine owns the connection and all stream state;
	// cancelling ctx finalizes open blocks and ends the stream with
	// stop reason "aborted".
	Stream(ctx context.Context, model schema.Model, prompt *schema.Context, opts ...opt.Opt) (*stream.Stream, error)
}

// CostCalculator derives a monetary cost breakdown from token usage.
// Pricing tables are supplied by the caller; this package ships none.
type CostCalculator interface {
	// Cost computes the cost breakdown for the given model and usage
	Cost(model string, usage schema.Usage) schema.Cost
}
