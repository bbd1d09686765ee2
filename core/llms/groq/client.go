// Package groq is a thin client for Groq's OpenAI-compatible chat
// completions API, covering the two prompt shapes this module needs:
// general prompts with tool calling and structured prompts decoded through
// a JSON schema.
package groq

import (
	"fmt"
	"os"
)

const url = "https://api.groq.com/openai/v1/chat/completions"

const DefaultModel = "llama-3.3-70b-versatile"

type Client struct {
	apiKey string
	model  string
}

func NewClient(apiKey string, model string) *Client {
	if model == "" {
		model = DefaultModel
	}

	return &Client{apiKey: apiKey, model: model}
}

// NewClientFromEnv reads the API key from GROQ_API_KEY.
func NewClientFromEnv(model string) (*Client, error) {
	apiKey, ok := os.LookupEnv("GROQ_API_KEY")
	if !ok {
		return nil, fmt.Errorf("groq api key not found")
	}

	return NewClient(apiKey, model), nil
}
