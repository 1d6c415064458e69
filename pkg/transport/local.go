package transport

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/leadline-ai/leadline/pkg/envelope"
	"github.com/leadline-ai/leadline/pkg/logger"
	"github.com/leadline-ai/leadline/pkg/metering"
	"github.com/leadline-ai/leadline/pkg/profile"
	"github.com/leadline-ai/leadline/pkg/providers"
	"github.com/leadline-ai/leadline/pkg/research"
)

// PaywallText is the reply body served when the free tier is exhausted.
const PaywallText = "⚠️ Usage Limit Reached. You've used your free messages. Please upgrade to continue."

// SubjectResolver maps a subject ID to prompt context. Nil lookups are fine;
// the prompt simply omits the context block.
type SubjectResolver func(subjectID string) *profile.SubjectContext

// Engine runs the agent in-process: persona prompt assembly, quota gate,
// provider call and usage metering, with no remote service in the path.
type Engine struct {
	provider   providers.Provider
	profiles   *profile.Store
	quota      *metering.Quota
	meters     *metering.MeterStore
	cache      *research.Cache
	resolve    SubjectResolver
	sessionKey string
	opts       providers.Options
}

// EngineConfig wires an Engine. Provider, Profiles and Quota are required;
// the rest default to inert implementations.
type EngineConfig struct {
	Provider   providers.Provider
	Profiles   *profile.Store
	Quota      *metering.Quota
	Meters     *metering.MeterStore
	Cache      *research.Cache
	Resolve    SubjectResolver
	SessionKey string
	Options    providers.Options
}

func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		provider:   cfg.Provider,
		profiles:   cfg.Profiles,
		quota:      cfg.Quota,
		meters:     cfg.Meters,
		cache:      cfg.Cache,
		resolve:    cfg.Resolve,
		sessionKey: cfg.SessionKey,
		opts:       cfg.Options,
	}
	if e.meters == nil {
		e.meters = metering.NewMeterStore()
	}
	if e.cache == nil {
		e.cache = research.NewCache()
	}
	if e.sessionKey == "" {
		e.sessionKey = "local"
	}
	return e
}

func (e *Engine) Invoke(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	switch endpoint {
	case EndpointChat:
		return e.chat(ctx, payload)
	case EndpointResearch:
		return e.research(ctx, payload)
	default:
		return nil, fmt.Errorf("engine: unknown endpoint %q", endpoint)
	}
}

func (e *Engine) chat(ctx context.Context, payload []byte) ([]byte, error) {
	var req envelope.ChatRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("engine: decoding chat request: %w", err)
	}

	if !e.quota.Allow() {
		logger.InfoC("engine", "Free tier exhausted, serving paywall")
		return json.Marshal(envelope.Response{Text: PaywallText, Paywall: true})
	}

	var subject *profile.SubjectContext
	if req.SubjectID != "" && e.resolve != nil {
		subject = e.resolve(req.SubjectID)
	}
	system := e.profiles.Get().SystemPrompt(subject)

	messages := []providers.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: req.Text},
	}

	opts := e.opts
	if req.ThinkingLevel == envelope.ThinkingHigh && opts.MaxTokens == 0 {
		opts.MaxTokens = 8192
	}

	reply, err := e.call(ctx, EndpointChat, messages, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope.Response{Text: reply.Text})
}

func (e *Engine) research(ctx context.Context, payload []byte) ([]byte, error) {
	var req envelope.ResearchRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("engine: decoding research request: %w", err)
	}

	// The research endpoint returns the report body itself, not a chat
	// envelope; the client parses it with a free-text fallback.
	if rep, ok := e.cache.Get(req.SubjectKey); ok {
		logger.DebugCF("engine", "Research cache hit", map[string]any{"subject": req.SubjectKey})
		return json.Marshal(rep)
	}

	// Research rides the same quota but signals exhaustion on the error
	// path, not as a paywall reply.
	if !e.quota.Allow() {
		return nil, &StatusError{Code: 402, Message: "subscription limit reached"}
	}

	prompt := fmt.Sprintf(
		"Research the company %q. Respond with JSON only: "+
			`{"summary": "...", "news": ["..."], "leadership": "..."}`,
		req.SubjectKey,
	)
	messages := []providers.Message{
		{Role: "user", Content: prompt},
	}

	reply, err := e.call(ctx, EndpointResearch, messages, e.opts)
	if err != nil {
		return nil, err
	}

	e.cache.Put(req.SubjectKey, research.ParseReport(req.SubjectKey, []byte(reply.Text)))
	return []byte(reply.Text), nil
}

func (e *Engine) call(ctx context.Context, endpoint string, messages []providers.Message, opts providers.Options) (*providers.Reply, error) {
	start := time.Now()
	reply, err := e.provider.Chat(ctx, messages, opts)
	elapsed := float64(time.Since(start).Milliseconds())

	event := metering.UsageEvent{
		RequestID: uuid.NewString(),
		Endpoint:  endpoint,
		Model:     opts.Model,
		Duration:  elapsed,
		Timestamp: time.Now(),
	}
	if err != nil {
		event.Failed = true
		e.meters.Record(e.sessionKey, event)
		return nil, err
	}
	event.InputTokens = reply.Usage.InputTokens
	event.OutputTokens = reply.Usage.OutputTokens
	event.Signature = thoughtSignature(reply.Text)
	e.meters.Record(e.sessionKey, event)

	logger.DebugCF("engine", "Provider call complete", map[string]any{
		"endpoint":    endpoint,
		"duration_ms": elapsed,
		"signature":   event.Signature,
	})
	return reply, nil
}

// thoughtSignature fingerprints a reply so duplicated agent output can be
// traced across transcripts and logs.
func thoughtSignature(text string) string {
	sum := blake3.Sum256([]byte(text))
	return "tsig_" + hex.EncodeToString(sum[:8])
}
