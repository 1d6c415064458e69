package session

import (
	"context"
	"fmt"

	"github.com/leadline-ai/leadline/pkg/envelope"
	"github.com/leadline-ai/leadline/pkg/logger"
	"github.com/leadline-ai/leadline/pkg/research"
	"github.com/leadline-ai/leadline/pkg/transport"
)

// Controller runs request/response cycles for sessions. One controller is
// shared across sessions; all per-conversation state lives in the Session.
type Controller struct {
	transport transport.Transport
	thinking  envelope.ThinkingLevel
}

// NewController creates a controller using the given transport and default
// thinking level for chat envelopes.
func NewController(t transport.Transport, thinking envelope.ThinkingLevel) *Controller {
	if !thinking.Valid() {
		thinking = envelope.ThinkingMedium
	}
	return &Controller{transport: t, thinking: thinking}
}

// Send runs one chat cycle: optimistic user append, engine call, and the
// resulting agent message. Failed cycles still surface as transcript
// entries; the returned error is non-nil only for rejected preconditions
// (empty text, busy session), which mutate nothing.
func (c *Controller) Send(ctx context.Context, sess *Session, text string) error {
	if text == "" {
		return ErrEmptyInput
	}

	subjectID, ok := sess.beginSend(text)
	if !ok {
		return ErrBusy
	}
	defer sess.endCycle()

	payload, err := envelope.EncodeChat(text, c.thinking, subjectID)
	if err != nil {
		// Unreachable for non-empty text; routed like a malformed cycle
		// so the busy release and single-reply invariants hold.
		sess.append(SenderAgent, ToneError, "Error: "+err.Error())
		return nil
	}

	raw, err := c.transport.Invoke(ctx, transport.EndpointChat, payload)
	if err != nil {
		kind := Classify(err)
		if kind == KindPaymentRequired {
			sess.markPaywalled()
		}
		logger.WarnCF("session", "Chat cycle failed", map[string]any{
			"session": sess.Key(),
			"kind":    kind.String(),
		})
		sess.append(SenderAgent, ToneError, "Error: "+err.Error())
		return nil
	}

	resp, err := envelope.Decode(raw)
	if err != nil {
		sess.append(SenderAgent, ToneError, "Error: "+err.Error())
		return nil
	}

	if resp.Paywall {
		sess.markPaywalled()
		sess.append(SenderAgent, ToneError, resp.Text)
		return nil
	}

	sess.append(SenderAgent, ToneInbound, resp.Text)
	return nil
}

// Research runs a one-shot company lookup for the session. An empty
// subject key short-circuits locally with a system message and no engine
// call. Unlike Send, a 402-equivalent failure does not set the paywall
// flag; paywall classification is scoped to the primary chat cycle.
func (c *Controller) Research(ctx context.Context, sess *Session, subjectKey string) error {
	if subjectKey == "" {
		sess.append(SenderSystem, ToneError, "Research requires a company name; select a lead with one first.")
		return nil
	}

	if !sess.beginResearch() {
		return ErrBusy
	}
	defer sess.endCycle()

	payload, err := envelope.EncodeResearch(subjectKey)
	if err != nil {
		sess.append(SenderSystem, ToneError, "Error: "+err.Error())
		return nil
	}

	raw, err := c.transport.Invoke(ctx, transport.EndpointResearch, payload)
	if err != nil {
		logger.WarnCF("session", "Research cycle failed", map[string]any{
			"session": sess.Key(),
			"kind":    Classify(err).String(),
		})
		sess.append(SenderSystem, ToneError, "Error: "+err.Error())
		return nil
	}

	rep := research.ParseReport(subjectKey, raw)
	sess.setResearch(&rep)
	sess.append(SenderSystem, ToneInbound, fmt.Sprintf("Research on %s: %s", subjectKey, rep.Summary))
	return nil
}
