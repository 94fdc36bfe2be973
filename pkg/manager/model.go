package manager

import (
	"context"
	"sort"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	llmstream "github.com/mutablelogic/go-llmstream"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
	attribute "go.opentelemetry.io/otel/attribute"
	errgroup "golang.org/x/sync/errgroup"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListModels aggregates model listings across all registered clients,
// or the single client named by the provider filter, sorted by model
// name and paginated by offset and limit.
func (m *Manager) ListModels(ctx context.Context, req schema.ListModelsRequest) (result *schema.ListModelsResponse, err error) {
	// Otel span
	ctx, endSpan := otel.StartSpan(m.tracer, ctx, "ListModels",
		attribute.String("request", req.String()),
	)
	defer func() { endSpan(err) }()

	clients, err := m.filter(req.Provider)
	if err != nil {
		return nil, err
	}

	// Each client writes its own slot, so no aggregation lock is needed
	listings := make([][]schema.Model, len(clients))
	wg, ctx := errgroup.WithContext(ctx)
	for i, client := range clients {
		wg.Go(func() error {
			models, err := client.ListModels(ctx)
			if err != nil {
				return err
			}
			listings[i] = models
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}

	// Flatten and sort by model name
	var all []schema.Model
	for _, models := range listings {
		all = append(all, models...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	// Return the requested slice
	return &schema.ListModelsResponse{
		Count:    uint(len(all)),
		Offset:   req.Offset,
		Limit:    req.Limit,
		Provider: m.Providers(),
		Body:     paginate(all, req.Offset, req.Limit),
	}, nil
}

// GetModel resolves a model name against all registered clients, or the
// single client named by the provider filter, returning the first match.
// Lookups run in parallel and the remainder are cancelled once a match
// is found.
func (m *Manager) GetModel(ctx context.Context, req schema.GetModelRequest) (result *schema.Model, err error) {
	// Otel span
	ctx, endSpan := otel.StartSpan(m.tracer, ctx, "GetModel",
		attribute.String("request", req.String()),
	)
	defer func() { endSpan(err) }()

	clients, err := m.filter(req.Provider)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Clients which do not know the model return an error, which is not
	// a failure of the lookup; the first client that does know it wins
	found := make(chan *schema.Model, len(clients))
	wg, ctx := errgroup.WithContext(ctx)
	for _, client := range clients {
		wg.Go(func() error {
			if model, err := client.GetModel(ctx, req.Name); err == nil {
				found <- model
				cancel()
			}
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}
	close(found)

	if model, ok := <-found; ok {
		return model, nil
	}
	return nil, llmstream.ErrNotFound.Withf("model %q not found", req.Name)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// filter returns the clients to consult for a request: all of them when
// provider is empty, or exactly the named one.
func (m *Manager) filter(provider string) ([]llmstream.Client, error) {
	if provider == "" {
		clients := make([]llmstream.Client, 0, len(m.clients))
		for _, client := range m.clients {
			clients = append(clients, client)
		}
		return clients, nil
	}
	client, err := m.Client(provider)
	if err != nil {
		return nil, err
	}
	return []llmstream.Client{client}, nil
}

// paginate slices models by offset and limit; a nil limit means all
// models from the offset onwards.
func paginate(models []schema.Model, offset uint, limit *uint) []schema.Model {
	total := uint(len(models))
	start := min(offset, total)
	end := total
	if limit != nil {
		end = min(start+types.Value(limit), total)
	}
	return models[start:end]
}
