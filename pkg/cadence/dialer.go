package cadence

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/leadline-ai/leadline/pkg/leads"
	"github.com/leadline-ai/leadline/pkg/session"
)

// Dialer is the interface that outreach backends must implement. This
// allows cadences to target different telephony or messaging systems.
type Dialer interface {
	// Dial attempts to reach the lead with the opening line and reports
	// the disposition plus any call notes.
	Dial(ctx context.Context, lead leads.Lead, greeting string) (Disposition, string, error)
	// Name returns the backend identifier.
	Name() string
}

// Greeting builds the opening line for a lead. Broker contacts get the
// partner pitch, everyone else the follow-up line.
func Greeting(agentName string, lead leads.Lead) string {
	if strings.Contains(strings.ToLower(lead.Notes), "broker") {
		return fmt.Sprintf(
			"Hi %s, this is %s calling from the local office. I'm reaching out because we've launched some new programs that could be a huge asset for your agents' listings right now.",
			lead.Name, agentName)
	}
	return fmt.Sprintf(
		"Hello %s, this is %s, an AI specialist. I'm calling to follow up on your interest.",
		lead.Name, agentName)
}

// ConversationalDialer scripts each touch through the agent engine: the
// greeting is sent on a per-lead session with the lead pinned as subject,
// and the agent's reply becomes the voicemail script for the drop. No
// telephony provider is attached, so every touch lands as voicemail.
type ConversationalDialer struct {
	controller *session.Controller
}

func NewConversationalDialer(controller *session.Controller) *ConversationalDialer {
	return &ConversationalDialer{controller: controller}
}

func (d *ConversationalDialer) Name() string { return "conversational" }

func (d *ConversationalDialer) Dial(ctx context.Context, lead leads.Lead, greeting string) (Disposition, string, error) {
	sess := session.New("cadence:" + lead.ID)
	sess.SetSubject(lead.ID)

	prompt := fmt.Sprintf(
		"Write a short voicemail script for this outreach call. Opening line: %q. Keep it under four sentences.",
		greeting)
	if err := d.controller.Send(ctx, sess, prompt); err != nil {
		return DispositionSkipped, "", fmt.Errorf("scripting touch for %s: %w", lead.Name, err)
	}

	snap := sess.Snapshot()
	if len(snap.Transcript) == 0 {
		return DispositionSkipped, "", fmt.Errorf("no script produced for %s", lead.Name)
	}
	last := snap.Transcript[len(snap.Transcript)-1]
	if last.Tone == session.ToneError {
		return DispositionSkipped, "", fmt.Errorf("scripting touch for %s: %s", lead.Name, last.Text)
	}
	return DispositionVoicemail, last.Text, nil
}

// SimulatedDialer produces weighted outcomes without touching a real
// telephony provider. Useful for demos and tests.
type SimulatedDialer struct {
	rng   *rand.Rand
	delay time.Duration
}

// NewSimulatedDialer creates a dialer with the given random seed. A fixed
// seed makes runs reproducible.
func NewSimulatedDialer(seed int64) *SimulatedDialer {
	return &SimulatedDialer{rng: rand.New(rand.NewSource(seed))}
}

func (d *SimulatedDialer) Name() string { return "simulated" }

func (d *SimulatedDialer) Dial(ctx context.Context, lead leads.Lead, greeting string) (Disposition, string, error) {
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return DispositionSkipped, "", ctx.Err()
		}
	}

	// Weighted outcomes: 40% voicemail, 30% not interested,
	// 20% callback, 10% appointment.
	roll := d.rng.Intn(100)
	switch {
	case roll < 40:
		return DispositionVoicemail, "Left voicemail about current offers.", nil
	case roll < 70:
		return DispositionNotInterested, "Client happy with current arrangement.", nil
	case roll < 90:
		return DispositionCallback, "Requested callback next Tuesday.", nil
	default:
		return DispositionAppointment, "Scheduled consultation!", nil
	}
}
