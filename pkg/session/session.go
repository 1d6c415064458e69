// Package session implements the conversational session client: an
// append-only transcript, a single-in-flight send cycle with optimistic
// updates, a sticky paywall flag, and a one-shot research sub-call.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadline-ai/leadline/pkg/research"
)

// Session holds the state of one interactive conversation. Sessions are
// independent of each other; all fields are guarded by mu.
type Session struct {
	mu sync.Mutex

	key          string
	nextID       int64
	transcript   []Message
	pendingInput string
	busy         bool
	paywalled    bool
	research     *research.Report
	subjectID    string
}

// New creates an empty session. An empty key gets a generated one.
func New(key string) *Session {
	if key == "" {
		key = "session:" + uuid.NewString()
	}
	return &Session{key: key}
}

// Key returns the session's routing key.
func (s *Session) Key() string { return s.key }

// SetSubject pins the lead/record the conversation concerns. It is carried
// on every outgoing chat envelope.
func (s *Session) SetSubject(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjectID = subjectID
}

// SetPendingInput stages not-yet-sent user text. Send clears it.
func (s *Session) SetPendingInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingInput = text
}

// Snapshot is the read-only view handed to presentation layers.
type Snapshot struct {
	Key            string           `json:"key"`
	Transcript     []Message        `json:"transcript"`
	PendingInput   string           `json:"pending_input,omitempty"`
	Busy           bool             `json:"busy"`
	Paywalled      bool             `json:"paywalled"`
	ResearchResult *research.Report `json:"research_result,omitempty"`
}

// Snapshot returns a copy of the current state. The transcript slice is
// copied; callers can hold it across further mutations.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Key:          s.key,
		Transcript:   make([]Message, len(s.transcript)),
		PendingInput: s.pendingInput,
		Busy:         s.busy,
		Paywalled:    s.paywalled,
	}
	copy(snap.Transcript, s.transcript)
	if s.research != nil {
		r := *s.research
		snap.ResearchResult = &r
	}
	return snap
}

// beginSend atomically checks the busy flag and, when clear, applies the
// optimistic update: append the outbound user message, clear pending input,
// mark busy. Returns false without mutating when a cycle is in flight.
func (s *Session) beginSend(text string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return "", false
	}
	s.appendLocked(SenderUser, ToneOutbound, text)
	s.pendingInput = ""
	s.busy = true
	return s.subjectID, true
}

// beginResearch acquires the in-flight slot without an optimistic append.
func (s *Session) beginResearch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// endCycle releases the in-flight slot. Deferred on every cycle exit path.
func (s *Session) endCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

func (s *Session) append(sender Sender, tone Tone, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(sender, tone, text)
}

func (s *Session) appendLocked(sender Sender, tone Tone, text string) {
	s.nextID++
	s.transcript = append(s.transcript, Message{
		ID:     s.nextID,
		Text:   text,
		Sender: sender,
		Tone:   tone,
		At:     time.Now(),
	})
}

// markPaywalled sets the sticky paywall flag. Nothing in this package
// resets it; clearing the flag is an administrative action.
func (s *Session) markPaywalled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paywalled = true
}

func (s *Session) setResearch(r *research.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.research = r
}
