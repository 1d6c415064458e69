package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/leadline-ai/leadline/pkg/transport"
)

// fakeTransport scripts one reply (or error) per Invoke and records calls.
type fakeTransport struct {
	mu        sync.Mutex
	reply     []byte
	err       error
	calls     int
	endpoints []string
	// midFlight, when set, is called while the engine call is in progress
	// so tests can observe the session's optimistic state.
	midFlight func()
}

func (f *fakeTransport) Invoke(_ context.Context, endpoint string, _ []byte) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.endpoints = append(f.endpoints, endpoint)
	f.mu.Unlock()
	if f.midFlight != nil {
		f.midFlight()
	}
	return f.reply, f.err
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestController(ft *fakeTransport) *Controller {
	return NewController(ft, "medium")
}

func TestSend_HappyPath(t *testing.T) {
	ft := &fakeTransport{reply: []byte(`{"text":"Hello","paywall":false}`)}
	c := newTestController(ft)
	sess := New("t:happy")

	if err := c.Send(context.Background(), sess, "Hi"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	snap := sess.Snapshot()
	if len(snap.Transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(snap.Transcript))
	}
	first, second := snap.Transcript[0], snap.Transcript[1]
	if first.Sender != SenderUser || first.Tone != ToneOutbound || first.Text != "Hi" {
		t.Errorf("first message = %+v, want user/outbound/Hi", first)
	}
	if second.Sender != SenderAgent || second.Tone != ToneInbound || second.Text != "Hello" {
		t.Errorf("second message = %+v, want agent/inbound/Hello", second)
	}
	if snap.Busy {
		t.Error("busy should be false after the cycle completes")
	}
	if snap.Paywalled {
		t.Error("paywalled should be false")
	}
}

func TestSend_OptimisticAppendVisibleMidFlight(t *testing.T) {
	sess := New("t:optimistic")
	ft := &fakeTransport{reply: []byte(`{"text":"ok"}`)}
	ft.midFlight = func() {
		snap := sess.Snapshot()
		if len(snap.Transcript) != 1 {
			t.Errorf("mid-flight transcript length = %d, want 1", len(snap.Transcript))
		} else if snap.Transcript[0].Tone != ToneOutbound {
			t.Errorf("mid-flight message tone = %q, want outbound", snap.Transcript[0].Tone)
		}
		if !snap.Busy {
			t.Error("busy should be true mid-flight")
		}
	}
	c := newTestController(ft)

	if err := c.Send(context.Background(), sess, "Hi"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
}

func TestSend_EmptyTextRejectedWithoutMutation(t *testing.T) {
	ft := &fakeTransport{reply: []byte(`{"text":"ok"}`)}
	c := newTestController(ft)
	sess := New("t:empty")

	if err := c.Send(context.Background(), sess, ""); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Send(\"\") error = %v, want ErrEmptyInput", err)
	}
	if n := len(sess.Snapshot().Transcript); n != 0 {
		t.Errorf("transcript length = %d, want 0", n)
	}
	if ft.callCount() != 0 {
		t.Errorf("transport calls = %d, want 0", ft.callCount())
	}
}

func TestSend_BusyRejectedWithoutMutation(t *testing.T) {
	sess := New("t:busy")
	ft := &fakeTransport{reply: []byte(`{"text":"ok"}`)}
	c := newTestController(ft)

	var nested error
	ft.midFlight = func() {
		nested = c.Send(context.Background(), sess, "second")
	}

	if err := c.Send(context.Background(), sess, "first"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if !errors.Is(nested, ErrBusy) {
		t.Fatalf("nested Send() error = %v, want ErrBusy", nested)
	}

	snap := sess.Snapshot()
	if len(snap.Transcript) != 2 {
		t.Errorf("transcript length = %d, want 2 (rejected send must not append)", len(snap.Transcript))
	}
	if ft.callCount() != 1 {
		t.Errorf("transport calls = %d, want 1", ft.callCount())
	}
}

func TestSend_PaywallResponse(t *testing.T) {
	ft := &fakeTransport{reply: []byte(`{"text":"Upgrade needed","paywall":true}`)}
	c := newTestController(ft)
	sess := New("t:paywall")

	if err := c.Send(context.Background(), sess, "Hi"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	snap := sess.Snapshot()
	if !snap.Paywalled {
		t.Error("paywalled should be true")
	}
	last := snap.Transcript[len(snap.Transcript)-1]
	if last.Tone != ToneError || last.Text != "Upgrade needed" {
		t.Errorf("last message = %+v, want error tone with response text", last)
	}
}

func TestSend_PaywallIsSticky(t *testing.T) {
	ft := &fakeTransport{reply: []byte(`{"text":"Upgrade needed","paywall":true}`)}
	c := newTestController(ft)
	sess := New("t:sticky")

	if err := c.Send(context.Background(), sess, "Hi"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	// Later successful calls must not clear the flag.
	ft.reply = []byte(`{"text":"All good","paywall":false}`)
	if err := c.Send(context.Background(), sess, "Again"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if !sess.Snapshot().Paywalled {
		t.Error("paywalled must stay true across subsequent successful calls")
	}
}

func TestSend_TransportFailureSubscriptionLimit(t *testing.T) {
	ft := &fakeTransport{err: errors.New("HTTP 402 subscription limit exceeded")}
	c := newTestController(ft)
	sess := New("t:limit")

	if err := c.Send(context.Background(), sess, "Hi"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	snap := sess.Snapshot()
	if !snap.Paywalled {
		t.Error("paywalled should be true after a subscription-limit failure")
	}
	last := snap.Transcript[len(snap.Transcript)-1]
	if last.Sender != SenderAgent || last.Tone != ToneError {
		t.Errorf("last message = %+v, want agent/error", last)
	}
	if got := last.Text; len(got) < 7 || got[:7] != "Error: " {
		t.Errorf("error message %q must start with \"Error: \"", got)
	}
	if snap.Busy {
		t.Error("busy leaked after transport failure")
	}
}

func TestSend_TransportFailureGeneric(t *testing.T) {
	ft := &fakeTransport{err: errors.New("connection refused")}
	c := newTestController(ft)
	sess := New("t:generic")

	if err := c.Send(context.Background(), sess, "Hi"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	snap := sess.Snapshot()
	if snap.Paywalled {
		t.Error("generic failures must not set paywalled")
	}
	if len(snap.Transcript) != 2 {
		t.Errorf("transcript length = %d, want 2", len(snap.Transcript))
	}
	if snap.Busy {
		t.Error("busy leaked after transport failure")
	}
}

func TestSend_StructuredStatus402(t *testing.T) {
	ft := &fakeTransport{err: &transport.StatusError{Code: 402, Message: "payment required"}}
	c := newTestController(ft)
	sess := New("t:status")

	if err := c.Send(context.Background(), sess, "Hi"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if !sess.Snapshot().Paywalled {
		t.Error("structured 402 should set paywalled")
	}
}

func TestSend_MalformedResponse(t *testing.T) {
	ft := &fakeTransport{reply: []byte(`<html>bad gateway</html>`)}
	c := newTestController(ft)
	sess := New("t:malformed")

	if err := c.Send(context.Background(), sess, "Hi"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	snap := sess.Snapshot()
	if snap.Paywalled {
		t.Error("decode failures must not set paywalled")
	}
	last := snap.Transcript[len(snap.Transcript)-1]
	if last.Tone != ToneError {
		t.Errorf("last message tone = %q, want error", last.Tone)
	}
	if snap.Busy {
		t.Error("busy leaked after decode failure")
	}
}

func TestSend_ExactlyOneReplyPerCycle(t *testing.T) {
	cases := []struct {
		name string
		ft   *fakeTransport
	}{
		{"success", &fakeTransport{reply: []byte(`{"text":"ok"}`)}},
		{"paywall", &fakeTransport{reply: []byte(`{"text":"pay","paywall":true}`)}},
		{"malformed", &fakeTransport{reply: []byte(`nope`)}},
		{"transport error", &fakeTransport{err: errors.New("boom")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestController(tc.ft)
			sess := New("t:" + tc.name)
			if err := c.Send(context.Background(), sess, "Hi"); err != nil {
				t.Fatalf("Send() error: %v", err)
			}
			if n := len(sess.Snapshot().Transcript); n != 2 {
				t.Errorf("transcript length = %d, want 2 (outbound + one reply)", n)
			}
		})
	}
}

func TestSend_MessageIDsMonotonic(t *testing.T) {
	ft := &fakeTransport{reply: []byte(`{"text":"ok"}`)}
	c := newTestController(ft)
	sess := New("t:ids")

	for i := 0; i < 3; i++ {
		if err := c.Send(context.Background(), sess, "Hi"); err != nil {
			t.Fatalf("Send() error: %v", err)
		}
	}

	snap := sess.Snapshot()
	for i := 1; i < len(snap.Transcript); i++ {
		if snap.Transcript[i].ID <= snap.Transcript[i-1].ID {
			t.Fatalf("IDs not monotonic: %d after %d", snap.Transcript[i].ID, snap.Transcript[i-1].ID)
		}
	}
}

func TestResearch_EmptySubjectShortCircuits(t *testing.T) {
	ft := &fakeTransport{reply: []byte(`{"summary":"x"}`)}
	c := newTestController(ft)
	sess := New("t:research-empty")

	if err := c.Research(context.Background(), sess, ""); err != nil {
		t.Fatalf("Research() error: %v", err)
	}

	snap := sess.Snapshot()
	if len(snap.Transcript) != 1 {
		t.Fatalf("transcript length = %d, want 1", len(snap.Transcript))
	}
	msg := snap.Transcript[0]
	if msg.Sender != SenderSystem || msg.Tone != ToneError {
		t.Errorf("message = %+v, want system/error", msg)
	}
	if ft.callCount() != 0 {
		t.Errorf("transport calls = %d, want 0", ft.callCount())
	}
}

func TestResearch_Success(t *testing.T) {
	ft := &fakeTransport{reply: []byte(`{"company":"Acme","summary":"Makes anvils","leadership":"W. Coyote"}`)}
	c := newTestController(ft)
	sess := New("t:research")

	if err := c.Research(context.Background(), sess, "Acme"); err != nil {
		t.Fatalf("Research() error: %v", err)
	}

	snap := sess.Snapshot()
	if snap.ResearchResult == nil {
		t.Fatal("researchResult not set")
	}
	if snap.ResearchResult.Summary != "Makes anvils" {
		t.Errorf("Summary = %q, want %q", snap.ResearchResult.Summary, "Makes anvils")
	}
	last := snap.Transcript[len(snap.Transcript)-1]
	if last.Sender != SenderSystem || last.Tone != ToneInbound {
		t.Errorf("last message = %+v, want system/inbound", last)
	}
	if len(ft.endpoints) != 1 || ft.endpoints[0] != transport.EndpointResearch {
		t.Errorf("endpoints = %v, want [research]", ft.endpoints)
	}
}

func TestResearch_402DoesNotSetPaywalled(t *testing.T) {
	// Paywall classification is scoped to chat cycles; research failures,
	// even 402-equivalent ones, leave the flag alone.
	ft := &fakeTransport{err: errors.New("HTTP 402 subscription limit exceeded")}
	c := newTestController(ft)
	sess := New("t:research-402")

	if err := c.Research(context.Background(), sess, "Acme"); err != nil {
		t.Fatalf("Research() error: %v", err)
	}

	snap := sess.Snapshot()
	if snap.Paywalled {
		t.Error("research failures must never set paywalled")
	}
	last := snap.Transcript[len(snap.Transcript)-1]
	if last.Sender != SenderSystem || last.Tone != ToneError {
		t.Errorf("last message = %+v, want system/error", last)
	}
	if snap.Busy {
		t.Error("busy leaked after research failure")
	}
}

func TestResearch_BusyRejected(t *testing.T) {
	sess := New("t:research-busy")
	ft := &fakeTransport{reply: []byte(`{"text":"ok"}`)}
	c := newTestController(ft)

	var nested error
	ft.midFlight = func() {
		nested = c.Research(context.Background(), sess, "Acme")
	}

	if err := c.Send(context.Background(), sess, "Hi"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if !errors.Is(nested, ErrBusy) {
		t.Fatalf("nested Research() error = %v, want ErrBusy", nested)
	}
}

func TestSend_ClearsPendingInput(t *testing.T) {
	ft := &fakeTransport{reply: []byte(`{"text":"ok"}`)}
	c := newTestController(ft)
	sess := New("t:pending")

	sess.SetPendingInput("Hi there")
	if err := c.Send(context.Background(), sess, "Hi there"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if got := sess.Snapshot().PendingInput; got != "" {
		t.Errorf("pendingInput = %q, want empty", got)
	}
}

func TestIndependentSessions(t *testing.T) {
	ft := &fakeTransport{reply: []byte(`{"text":"pay","paywall":true}`)}
	c := newTestController(ft)
	a, b := New("t:a"), New("t:b")

	if err := c.Send(context.Background(), a, "Hi"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if !a.Snapshot().Paywalled {
		t.Error("session a should be paywalled")
	}
	if b.Snapshot().Paywalled {
		t.Error("session b must be unaffected")
	}
}
