package session

import "time"

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAgent  Sender = "agent"
	SenderSystem Sender = "system"
)

// Tone classifies a transcript entry for presentation.
type Tone string

const (
	ToneOutbound Tone = "outbound"
	ToneInbound  Tone = "inbound"
	ToneError    Tone = "error"
)

// Message is one immutable transcript entry. IDs are assigned from a
// per-session monotonic counter, so ordering within a session is total.
type Message struct {
	ID     int64     `json:"id"`
	Text   string    `json:"text"`
	Sender Sender    `json:"sender"`
	Tone   Tone      `json:"tone"`
	At     time.Time `json:"at"`
}
