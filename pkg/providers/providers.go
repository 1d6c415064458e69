// Package providers adapts LLM vendor SDKs behind one chat interface.
package providers

import (
	"context"
	"fmt"
	"strings"
)

// Message is one turn of conversation handed to a provider. Role is one of
// "system", "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage carries token accounting from a completed call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Reply is the provider-neutral result of a chat call.
type Reply struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
	Usage        Usage  `json:"usage"`
}

// Options tunes a single chat call. Zero values fall back to provider
// defaults.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	HasTemp     bool
}

// Provider is a chat-capable LLM backend.
type Provider interface {
	Chat(ctx context.Context, messages []Message, opts Options) (*Reply, error)
	DefaultModel() string
}

// New builds a provider by name. apiBase may be empty for the vendor
// default endpoint.
func New(name, apiKey, apiBase string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "anthropic", "claude":
		return NewAnthropic(apiKey, apiBase), nil
	case "openai", "gpt":
		return NewOpenAI(apiKey, apiBase), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
