package manager

import (
	"context"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	llmstream "github.com/mutablelogic/go-llmstream"
	opt "github.com/mutablelogic/go-llmstream/pkg/opt"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	stream "github.com/mutablelogic/go-llmstream/pkg/stream"
	attribute "go.opentelemetry.io/otel/attribute"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Stream resolves the named model and dispatches a streaming request to
// the client owning it. The provider may be empty, in which case all
// clients are searched for the model.
func (m *Manager) Stream(ctx context.Context, req schema.GetModelRequest, prompt *schema.Context, opts ...opt.Opt) (result *stream.Stream, err error) {
	// Otel span covers model resolution and dispatch, not stream lifetime
	ctx, endSpan := otel.StartSpan(m.tracer, ctx, "Stream",
		attribute.String("request", req.String()),
	)
	defer func() { endSpan(err) }()

	// Resolve the model across clients
	model, err := m.GetModel(ctx, req)
	if err != nil {
		return nil, err
	}

	// Dispatch to the owning client
	client, exists := m.clients[model.OwnedBy]
	if !exists {
		return nil, llmstream.ErrNotFound.Withf("no client for provider %q", model.OwnedBy)
	}
	streamer, ok := client.(llmstream.Streamer)
	if !ok {
		return nil, llmstream.ErrNotImplemented.Withf("%s: streaming not supported", client.Name())
	}
	return streamer.Stream(ctx, *model, prompt, opts...)
}
