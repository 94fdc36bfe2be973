package schema

import "encoding/json"

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Provider names
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Bedrock   = "bedrock"
)

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func Stringify[T any](v T) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}
