package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const openaiBaseURL = "https://api.openai.com/v1"

// OpenAI talks to the Chat Completions API. It also covers
// OpenAI-compatible gateways via a custom base URL.
type OpenAI struct {
	client  openai.Client
	baseURL string
}

func NewOpenAI(apiKey, apiBase string) *OpenAI {
	baseURL := apiBase
	if baseURL == "" {
		baseURL = openaiBaseURL
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &OpenAI{
		client:  client,
		baseURL: baseURL,
	}
}

func (p *OpenAI) Chat(ctx context.Context, messages []Message, opts Options) (*Reply, error) {
	params := openai.ChatCompletionNewParams{
		Messages: translateOpenAIMessages(messages),
	}

	model := opts.Model
	if model == "" {
		model = p.DefaultModel()
	}
	params.Model = openai.ChatModel(model)

	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.HasTemp {
		params.Temperature = openai.Float(opts.Temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai API call: empty choices")
	}

	choice := resp.Choices[0]
	finishReason := "stop"
	if choice.FinishReason == "length" {
		finishReason = "length"
	}

	return &Reply{
		Text:         choice.Message.Content,
		FinishReason: finishReason,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func (p *OpenAI) DefaultModel() string {
	return "gpt-4o"
}

func (p *OpenAI) BaseURL() string {
	return p.baseURL
}

func translateOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			result = append(result, openai.SystemMessage(msg.Content))
		case "user":
			result = append(result, openai.UserMessage(msg.Content))
		case "assistant":
			result = append(result, openai.AssistantMessage(msg.Content))
		}
	}
	return result
}
