package bedrock

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	opt "github.com/mutablelogic/go-llmstream/pkg/opt"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListModels returns the foundation models available in the region
func (c *Client) ListModels(ctx context.Context, opts ...opt.Opt) ([]schema.Model, error) {
	return c.ModelCache.ListModels(ctx, opts, func(ctx context.Context, opts ...opt.Opt) ([]schema.Model, error) {
		var response listModelsResponse
		if err := c.do(ctx, http.MethodGet, c.control+"/foundation-models", nil, &response); err != nil {
			return nil, err
		}

		// Convert to schema.Model
		result := make([]schema.Model, 0, len(response.ModelSummaries))
		for _, m := range response.ModelSummaries {
			result = append(result, m.toSchema())
		}
		return result, nil
	})
}

// GetModel returns a specific model by ID
func (c *Client) GetModel(ctx context.Context, name string, opts ...opt.Opt) (*schema.Model, error) {
	return c.ModelCache.GetModel(ctx, name, func(ctx context.Context, name string) (*schema.Model, error) {
		// The control plane has no single-model endpoint with the same
		// shape, so resolve through the listing
		models, err := c.ListModels(ctx)
		if err != nil {
			return nil, err
		}
		for _, model := range models {
			if model.Name == name {
				return &model, nil
			}
		}
		return nil, llmstream.ErrNotFound.Withf("model %q", name)
	})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// do signs and executes one JSON request against the control plane
func (c *Client) do(ctx context.Context, method, url string, body []byte, response any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	signer, err := c.signer(ctx)
	if err != nil {
		return err
	}
	if err := signer.Sign(req, body); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return llmstream.ErrTransport.With(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &llmstream.APIError{
			Status:  resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
			Header:  resp.Header,
			Body:    string(detail),
		}
	}
	return json.NewDecoder(resp.Body).Decode(response)
}

// toSchema converts a model summary to schema.Model
func (m modelSummary) toSchema() schema.Model {
	return schema.Model{
		Name:        m.ModelId,
		Description: m.ModelName,
		OwnedBy:     schema.Bedrock,
		Meta:        map[string]any{"provider": m.ProviderName},
	}
}
