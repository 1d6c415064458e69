package channels

import (
	"context"
	"errors"
	"sync"

	"github.com/leadline-ai/leadline/pkg/bus"
	"github.com/leadline-ai/leadline/pkg/logger"
	"github.com/leadline-ai/leadline/pkg/session"
)

// Manager owns the channel set and pumps bus traffic through per-chat
// sessions.
type Manager struct {
	mu         sync.Mutex
	bus        *bus.MessageBus
	controller *session.Controller
	channels   map[string]Channel
	sessions   map[string]*session.Session
}

func NewManager(b *bus.MessageBus, controller *session.Controller) *Manager {
	return &Manager{
		bus:        b,
		controller: controller,
		channels:   make(map[string]Channel),
		sessions:   make(map[string]*session.Session),
	}
}

func (m *Manager) Register(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.Name()] = ch
}

// StartAll starts every registered channel plus the bus pumps. Channel
// start failures are logged, not fatal: one bad credential should not take
// down the rest.
func (m *Manager) StartAll(ctx context.Context) {
	m.mu.Lock()
	chs := make([]Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		chs = append(chs, ch)
	}
	m.mu.Unlock()

	for _, ch := range chs {
		if err := ch.Start(ctx); err != nil {
			logger.ErrorCF("channels", "Channel failed to start", map[string]any{
				"channel": ch.Name(),
				"error":   err.Error(),
			})
		}
	}

	go m.inboundLoop(ctx)
	go m.outboundLoop(ctx)
}

func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.channels {
		if ch.IsRunning() {
			if err := ch.Stop(ctx); err != nil {
				logger.WarnCF("channels", "Channel stop failed", map[string]any{
					"channel": ch.Name(),
					"error":   err.Error(),
				})
			}
		}
	}
}

// Session returns the session for a key, creating it on first use.
func (m *Manager) Session(key string) *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		return s
	}
	s := session.New(key)
	m.sessions[key] = s
	return s
}

func (m *Manager) inboundLoop(ctx context.Context) {
	for {
		msg, ok := m.bus.ConsumeInbound(ctx)
		if !ok {
			return
		}
		m.handleInbound(ctx, msg)
	}
}

func (m *Manager) handleInbound(ctx context.Context, msg bus.InboundMessage) {
	sess := m.Session(msg.SessionKey)
	if msg.LeadID != "" {
		sess.SetSubject(msg.LeadID)
	}

	err := m.controller.Send(ctx, sess, msg.Content)
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return
	case errors.Is(err, session.ErrBusy):
		m.bus.PublishOutbound(ctx, bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: "One moment, still working on your last message.",
		})
		return
	case err != nil:
		logger.ErrorCF("channels", "Session send failed", map[string]any{
			"session": msg.SessionKey,
			"error":   err.Error(),
		})
		return
	}

	snap := sess.Snapshot()
	if len(snap.Transcript) == 0 {
		return
	}
	reply := snap.Transcript[len(snap.Transcript)-1]
	if reply.Sender == session.SenderUser {
		return
	}
	m.bus.PublishOutbound(ctx, bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: reply.Text,
		Paywall: snap.Paywalled,
	})
}

func (m *Manager) outboundLoop(ctx context.Context) {
	for {
		msg, ok := m.bus.SubscribeOutbound(ctx)
		if !ok {
			return
		}
		m.mu.Lock()
		ch, found := m.channels[msg.Channel]
		m.mu.Unlock()
		if !found {
			logger.WarnCF("channels", "No channel for outbound message", map[string]any{
				"channel": msg.Channel,
			})
			continue
		}
		if err := ch.Send(ctx, msg); err != nil {
			logger.ErrorCF("channels", "Outbound send failed", map[string]any{
				"channel": msg.Channel,
				"error":   err.Error(),
			})
		}
	}
}
