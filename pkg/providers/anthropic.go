package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicBaseURL = "https://api.anthropic.com"

// Anthropic talks to the Claude Messages API.
type Anthropic struct {
	client      *anthropic.Client
	tokenSource func() (string, error)
	baseURL     string
}

func NewAnthropic(token, apiBase string) *Anthropic {
	baseURL := normalizeBaseURL(apiBase, anthropicBaseURL)
	client := anthropic.NewClient(
		option.WithAuthToken(token),
		option.WithBaseURL(baseURL),
	)
	return &Anthropic{
		client:  &client,
		baseURL: baseURL,
	}
}

func NewAnthropicWithClient(client *anthropic.Client) *Anthropic {
	return &Anthropic{
		client:  client,
		baseURL: anthropicBaseURL,
	}
}

// NewAnthropicWithTokenSource refreshes the bearer token per call, for
// OAuth-backed credentials.
func NewAnthropicWithTokenSource(token string, tokenSource func() (string, error), apiBase string) *Anthropic {
	p := NewAnthropic(token, apiBase)
	p.tokenSource = tokenSource
	return p
}

func (p *Anthropic) Chat(ctx context.Context, messages []Message, opts Options) (*Reply, error) {
	var reqOpts []option.RequestOption
	if p.tokenSource != nil {
		tok, err := p.tokenSource()
		if err != nil {
			return nil, fmt.Errorf("refreshing token: %w", err)
		}
		reqOpts = append(reqOpts, option.WithAuthToken(tok))
	}

	params := buildAnthropicParams(messages, opts, p.DefaultModel())

	resp, err := p.client.Messages.New(ctx, params, reqOpts...)
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	return parseAnthropicResponse(resp), nil
}

func (p *Anthropic) DefaultModel() string {
	return "claude-sonnet-4.6"
}

func (p *Anthropic) BaseURL() string {
	return p.baseURL
}

func buildAnthropicParams(messages []Message, opts Options, defaultModel string) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var anthropicMessages []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case "user":
			anthropicMessages = append(anthropicMessages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)),
			)
		case "assistant":
			anthropicMessages = append(anthropicMessages,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)),
			)
		}
	}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := int64(4096)
	if opts.MaxTokens > 0 {
		maxTokens = int64(opts.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  anthropicMessages,
		MaxTokens: maxTokens,
	}

	if len(system) > 0 {
		params.System = system
	}
	if opts.HasTemp {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	return params
}

func parseAnthropicResponse(resp *anthropic.Message) *Reply {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			tb := block.AsText()
			sb.WriteString(tb.Text)
		}
	}

	finishReason := "stop"
	switch resp.StopReason {
	case anthropic.StopReasonMaxTokens:
		finishReason = "length"
	case anthropic.StopReasonEndTurn,
		anthropic.StopReasonStopSequence,
		anthropic.StopReasonPauseTurn,
		anthropic.StopReasonRefusal:
		finishReason = "stop"
	}

	return &Reply{
		Text:         sb.String(),
		FinishReason: finishReason,
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}
}

func normalizeBaseURL(apiBase, fallback string) string {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		return fallback
	}

	base = strings.TrimRight(base, "/")
	if b, ok := strings.CutSuffix(base, "/v1"); ok {
		base = b
	}
	if base == "" {
		return fallback
	}

	return base
}
