package manager_test

import (
	"context"
	"testing"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	manager "github.com/mutablelogic/go-llmstream/pkg/manager"
	opt "github.com/mutablelogic/go-llmstream/pkg/opt"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	stream "github.com/mutablelogic/go-llmstream/pkg/stream"
	types "github.com/mutablelogic/go-server/pkg/types"
	assert "github.com/stretchr/testify/assert"
)

///////////////////////////////////////////////////////////////////////////////
// MOCK CLIENT

type mockClient struct {
	name    string
	models  []schema.Model
	streams int
}

var (
	_ llmstream.Client   = (*mockClient)(nil)
	_ llmstream.Streamer = (*mockClient)(nil)
)

func (c *mockClient) Name() string {
	return c.name
}

func (c *mockClient) ListModels(_ context.Context, _ ...opt.Opt) ([]schema.Model, error) {
	return c.models, nil
}

func (c *mockClient) GetModel(_ context.Context, name string, _ ...opt.Opt) (*schema.Model, error) {
	for _, model := range c.models {
		if model.Name == name {
			return &model, nil
		}
	}
	return nil, llmstream.ErrNotFound.Withf("model %q", name)
}

func (c *mockClient) Stream(_ context.Context, model schema.Model, _ *schema.Context, _ ...opt.Opt) (*stream.Stream, error) {
	c.streams++
	s := stream.New()
	go func() {
		a := stream.NewAccumulator(s, c.name, model.Name)
		a.Open(0, schema.ContentTypeText, nil)
		a.Delta(0, schema.ContentTypeText, "mock response")
		a.Close(0)
		a.Finish(schema.StopReasonStop)
	}()
	return s, nil
}

func newMock(name string, models ...string) *mockClient {
	c := &mockClient{name: name}
	for _, model := range models {
		c.models = append(c.models, schema.Model{Name: model, OwnedBy: name})
	}
	return c
}

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_manager_clients(t *testing.T) {
	assert := assert.New(t)

	m, err := manager.NewManager(
		manager.WithClient(newMock("alpha")),
		manager.WithClient(newMock("beta")),
	)
	assert.NoError(err)
	assert.ElementsMatch([]string{"alpha", "beta"}, m.Providers())

	client, err := m.Client("alpha")
	assert.NoError(err)
	assert.Equal("alpha", client.Name())

	_, err = m.Client("gamma")
	assert.ErrorIs(err, llmstream.ErrNotFound)
}

func Test_manager_duplicate_client(t *testing.T) {
	assert := assert.New(t)

	_, err := manager.NewManager(
		manager.WithClient(newMock("alpha")),
		manager.WithClient(newMock("alpha")),
	)
	assert.ErrorIs(err, llmstream.ErrBadParameter)
}

func Test_manager_list_models(t *testing.T) {
	assert := assert.New(t)

	m, err := manager.NewManager(
		manager.WithClient(newMock("alpha", "zebra", "apple")),
		manager.WithClient(newMock("beta", "mango")),
	)
	assert.NoError(err)

	// Aggregated across providers and sorted by name
	result, err := m.ListModels(context.Background(), schema.ListModelsRequest{})
	assert.NoError(err)
	assert.Equal(uint(3), result.Count)
	assert.Equal("apple", result.Body[0].Name)
	assert.Equal("mango", result.Body[1].Name)
	assert.Equal("zebra", result.Body[2].Name)

	// Provider filter
	result, err = m.ListModels(context.Background(), schema.ListModelsRequest{Provider: "beta"})
	assert.NoError(err)
	assert.Equal(uint(1), result.Count)
	assert.Equal("mango", result.Body[0].Name)

	// Unknown provider
	_, err = m.ListModels(context.Background(), schema.ListModelsRequest{Provider: "gamma"})
	assert.ErrorIs(err, llmstream.ErrNotFound)

	// Pagination
	result, err = m.ListModels(context.Background(), schema.ListModelsRequest{Offset: 1, Limit: types.Ptr(uint(1))})
	assert.NoError(err)
	assert.Equal(uint(3), result.Count)
	assert.Len(result.Body, 1)
	assert.Equal("mango", result.Body[0].Name)
}

func Test_manager_get_model(t *testing.T) {
	assert := assert.New(t)

	m, err := manager.NewManager(
		manager.WithClient(newMock("alpha", "model-a")),
		manager.WithClient(newMock("beta", "model-b")),
	)
	assert.NoError(err)

	// Found in second provider without a filter
	model, err := m.GetModel(context.Background(), schema.GetModelRequest{Name: "model-b"})
	assert.NoError(err)
	assert.Equal("beta", model.OwnedBy)

	// Not found anywhere
	_, err = m.GetModel(context.Background(), schema.GetModelRequest{Name: "model-c"})
	assert.ErrorIs(err, llmstream.ErrNotFound)

	// Provider filter excludes the owning client
	_, err = m.GetModel(context.Background(), schema.GetModelRequest{Name: "model-b", Provider: "alpha"})
	assert.ErrorIs(err, llmstream.ErrNotFound)
}

func Test_manager_stream_dispatch(t *testing.T) {
	assert := assert.New(t)

	alpha := newMock("alpha", "model-a")
	beta := newMock("beta", "model-b")
	m, err := manager.NewManager(
		manager.WithClient(alpha),
		manager.WithClient(beta),
	)
	assert.NoError(err)

	prompt := schema.NewContext("", "hello")
	s, err := m.Stream(context.Background(), schema.GetModelRequest{Name: "model-b"}, prompt)
	assert.NoError(err)

	response, err := s.Result(context.Background())
	assert.NoError(err)
	assert.Equal("mock response", response.Text())
	assert.Equal(0, alpha.streams)
	assert.Equal(1, beta.streams)
}
