// Package envelope defines the JSON payloads exchanged with the agent engine
// and the codec that validates them.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ThinkingLevel hints the engine's compute budget. It is opaque to this
// client beyond validation of the recognized values.
type ThinkingLevel string

const (
	ThinkingLow    ThinkingLevel = "low"
	ThinkingMedium ThinkingLevel = "medium"
	ThinkingHigh   ThinkingLevel = "high"
)

// Valid reports whether the level is one of the recognized values.
func (l ThinkingLevel) Valid() bool {
	switch l {
	case ThinkingLow, ThinkingMedium, ThinkingHigh:
		return true
	}
	return false
}

// ErrEmptyText is returned when an outgoing envelope has no content.
var ErrEmptyText = errors.New("envelope: text is empty")

// ChatRequest is the outgoing payload for the chat endpoint.
type ChatRequest struct {
	Text          string        `json:"text"`
	ThinkingLevel ThinkingLevel `json:"thinking_level"`
	SubjectID     string        `json:"subject_id,omitempty"`
}

// ResearchRequest is the outgoing payload for the research endpoint.
type ResearchRequest struct {
	SubjectKey string `json:"subject_key"`
}

// Response is the decoded engine reply. A missing paywall field decodes
// as false.
type Response struct {
	Text    string `json:"text"`
	Paywall bool   `json:"paywall,omitempty"`
}

// EncodeChat builds and serializes a ChatRequest. Unrecognized thinking
// levels fall back to medium; empty text is the only failure.
func EncodeChat(text string, level ThinkingLevel, subjectID string) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if !level.Valid() {
		level = ThinkingMedium
	}
	return json.Marshal(ChatRequest{
		Text:          text,
		ThinkingLevel: level,
		SubjectID:     subjectID,
	})
}

// EncodeResearch builds and serializes a ResearchRequest.
func EncodeResearch(subjectKey string) ([]byte, error) {
	if subjectKey == "" {
		return nil, ErrEmptyText
	}
	return json.Marshal(ResearchRequest{SubjectKey: subjectKey})
}

// Decode parses a raw engine reply. Parse failures, a missing text field,
// or a wrong field type all fail; an empty text string is valid.
func Decode(raw []byte) (Response, error) {
	var probe struct {
		Text    *string `json:"text"`
		Paywall *bool   `json:"paywall"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Response{}, fmt.Errorf("envelope: malformed response: %w", err)
	}
	if probe.Text == nil {
		return Response{}, errors.New("envelope: malformed response: missing text field")
	}

	resp := Response{Text: *probe.Text}
	if probe.Paywall != nil {
		resp.Paywall = *probe.Paywall
	}
	return resp, nil
}
