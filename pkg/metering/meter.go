// Package metering tracks engine usage per session and enforces the
// free-tier quota that feeds the paywall condition.
package metering

import (
	"maps"
	"sync"
	"time"
)

// UsageEvent describes one completed engine call.
type UsageEvent struct {
	RequestID    string    `json:"request_id"`
	Endpoint     string    `json:"endpoint"`
	Signature    string    `json:"signature,omitempty"`
	Model        string    `json:"model,omitempty"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Duration     float64   `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
	Failed       bool      `json:"failed,omitempty"`
}

// SessionMeter aggregates usage for one session key.
type SessionMeter struct {
	SessionKey   string
	Calls        int64
	InputTokens  int64
	OutputTokens int64
	Errors       int64
	Duration     float64
	LastActivity time.Time
}

// MeterStore aggregates usage events per session.
type MeterStore struct {
	mu     sync.RWMutex
	meters map[string]*SessionMeter
}

func NewMeterStore() *MeterStore {
	return &MeterStore{meters: make(map[string]*SessionMeter)}
}

// Record adds a usage event to the session's meter.
func (s *MeterStore) Record(sessionKey string, event UsageEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meter, ok := s.meters[sessionKey]
	if !ok {
		meter = &SessionMeter{SessionKey: sessionKey}
		s.meters[sessionKey] = meter
	}

	meter.Calls++
	meter.InputTokens += int64(event.InputTokens)
	meter.OutputTokens += int64(event.OutputTokens)
	meter.Duration += event.Duration
	if event.Failed {
		meter.Errors++
	}
	meter.LastActivity = event.Timestamp
}

// Get returns the meter for a session key.
func (s *MeterStore) Get(sessionKey string) (*SessionMeter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meters[sessionKey]
	return m, ok
}

// All returns a snapshot of every session meter.
func (s *MeterStore) All() map[string]*SessionMeter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*SessionMeter, len(s.meters))
	maps.Copy(result, s.meters)
	return result
}
