/*
manager aggregates provider clients behind one surface. Model listing
and lookup fan out across clients; streaming requests are dispatched to
the client owning the model.
*/
package manager

import (
	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	types "github.com/mutablelogic/go-server/pkg/types"
	trace "go.opentelemetry.io/otel/trace"
	noop "go.opentelemetry.io/otel/trace/noop"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Manager struct {
	clients map[string]llmstream.Client
	tracer  trace.Tracer
}

// Opt is a functional option for configuring a manager
type Opt func(*Manager) error

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewManager(opts ...Opt) (*Manager, error) {
	// Create the manager
	m := new(Manager)
	m.clients = make(map[string]llmstream.Client)

	// Apply options
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	// Default to a no-op tracer if none was provided
	if m.tracer == nil {
		m.tracer = noop.NewTracerProvider().Tracer("llmstream")
	}

	// Return success
	return m, nil
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithClient adds a provider client to the manager
func WithClient(client llmstream.Client) Opt {
	return func(m *Manager) error {
		if name := client.Name(); !types.IsIdentifier(name) {
			return llmstream.ErrBadParameter.Withf("invalid client name %q", name)
		} else if _, exists := m.clients[name]; exists {
			return llmstream.ErrBadParameter.Withf("duplicate client %q", name)
		} else {
			m.clients[name] = client
		}

		// Return success
		return nil
	}
}

// WithTracer sets the tracer for manager operations
func WithTracer(tracer trace.Tracer) Opt {
	return func(m *Manager) error {
		if tracer == nil {
			return llmstream.ErrBadParameter.With("tracer is required")
		}
		m.tracer = tracer
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Providers returns the names of registered clients, unordered
func (m *Manager) Providers() []string {
	providers := make([]string, 0, len(m.clients))
	for name := range m.clients {
		providers = append(providers, name)
	}
	return providers
}

// Client returns the client registered under the provider name
func (m *Manager) Client(provider string) (llmstream.Client, error) {
	client, exists := m.clients[provider]
	if !exists {
		return nil, llmstream.ErrNotFound.Withf("provider %q not found", provider)
	}
	return client, nil
}
