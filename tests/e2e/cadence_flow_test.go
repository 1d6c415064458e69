package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/leadline-ai/leadline/pkg/cadence"
	"github.com/leadline-ai/leadline/pkg/leads"
)

const crmExport = `Primary Borrower,Primary Borrower: Email,Phone,Program
Alice Veteran,alice@example.com,555-0101,VA Purchase
Bob Broker,bob@example.com,555-0102,Conventional
Carol Quiet,carol@example.com,555-0103,FHA Refi
`

// appointmentDialer books every connected lead.
type appointmentDialer struct{}

func (appointmentDialer) Dial(_ context.Context, _ leads.Lead, _ string) (cadence.Disposition, string, error) {
	return cadence.DispositionAppointment, "booked", nil
}

func (appointmentDialer) Name() string { return "appointment" }

func waitForDone(t *testing.T, runner *cadence.Runner, id string) *cadence.Execution {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		exec, err := runner.GetStatus(id)
		if err != nil {
			t.Fatalf("GetStatus: %v", err)
		}
		if exec.Status != cadence.StatusRunning {
			return exec
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("cadence did not finish")
	return nil
}

// TestCadenceFlow drives the whole outbound path: CSV import, scoring,
// a dial run, and status writeback into the lead book.
func TestCadenceFlow_ImportDialWriteback(t *testing.T) {
	book := leads.NewStore("")
	n, err := book.IngestCSV(strings.NewReader(crmExport))
	if err != nil {
		t.Fatalf("IngestCSV: %v", err)
	}
	if n != 3 {
		t.Fatalf("imported = %d, want 3", n)
	}

	// Flag one lead do-not-call before dialing.
	all := book.All()
	dnc := all[0]
	dnc.DoNotCall = true
	if _, err := book.Save(dnc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	runner := cadence.NewRunner(book, "Jordan")
	runner.RegisterDialer("appointment", appointmentDialer{})

	def := &cadence.Definition{
		ID:         "e2e-cadence",
		Name:       "Morning follow-ups",
		Backend:    "appointment",
		Guardrails: cadence.DefaultGuardrails(),
	}
	if _, err := runner.Start(context.Background(), def); err != nil {
		t.Fatalf("Start: %v", err)
	}
	exec := waitForDone(t, runner, def.ID)

	if exec.Status != cadence.StatusCompleted {
		t.Errorf("status = %s, want completed", exec.Status)
	}
	if exec.Stats.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (do-not-call lead)", exec.Stats.Skipped)
	}
	if exec.Stats.Appointments != 2 {
		t.Errorf("appointments = %d, want 2", exec.Stats.Appointments)
	}

	// Dialed leads are rescored and marked qualified; the DNC lead is
	// untouched.
	for _, lead := range book.All() {
		got, _ := book.Get(lead.ID)
		if got.ID == dnc.ID {
			if got.Status == cadence.DispositionAppointment.LeadStatus() {
				t.Errorf("do-not-call lead %q was dialed", got.Name)
			}
			continue
		}
		if got.Status != cadence.DispositionAppointment.LeadStatus() {
			t.Errorf("lead %q status = %q, want %q", got.Name, got.Status, cadence.DispositionAppointment.LeadStatus())
		}
		if got.Score < 40 {
			t.Errorf("lead %q score = %d, want rescored >= 40 after appointment", got.Name, got.Score)
		}
	}

	// Conversation history records one outbound turn per dialed lead.
	for _, lead := range book.All() {
		turns := book.History(lead.ID)
		if lead.ID == dnc.ID {
			continue
		}
		if len(turns) == 0 {
			t.Errorf("lead %q has no logged dial turn", lead.Name)
		}
	}
}
