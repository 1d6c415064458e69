package bus

// InboundMessage is a prospect message arriving from a channel.
type InboundMessage struct {
	Channel    string            `json:"channel"`
	SenderID   string            `json:"sender_id"`
	ChatID     string            `json:"chat_id"`
	Content    string            `json:"content"`
	SessionKey string            `json:"session_key"`
	LeadID     string            `json:"lead_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// OutboundMessage is an agent reply headed back to a channel.
type OutboundMessage struct {
	Channel string `json:"channel"`
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
	Paywall bool   `json:"paywall,omitempty"`
}
