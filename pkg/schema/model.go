package schema

import "time"

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Represents an LLM model
type Model struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Created     time.Time      `json:"created,omitzero"`
	OwnedBy     string         `json:"owned_by,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// ListModelsRequest filters and paginates an aggregated model listing
type ListModelsRequest struct {
	Provider string `json:"provider,omitempty"`
	Offset   uint   `json:"offset,omitempty"`
	Limit    *uint  `json:"limit,omitempty"`
}

// ListModelsResponse is a page of models aggregated across providers
type ListModelsResponse struct {
	Count    uint     `json:"count"`
	Offset   uint     `json:"offset,omitempty"`
	Limit    *uint    `json:"limit,omitempty"`
	Provider []string `json:"provider,omitempty"`
	Body     []Model  `json:"body"`
}

// GetModelRequest looks up one model, optionally pinned to a provider
type GetModelRequest struct {
	Name     string `json:"name"`
	Provider string `json:"provider,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (m Model) String() string {
	return Stringify(m)
}

func (r ListModelsRequest) String() string {
	return Stringify(r)
}

func (r GetModelRequest) String() string {
	return Stringify(r)
}
