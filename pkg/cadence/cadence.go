// Package cadence implements outbound outreach runs over the lead book.
//
// A cadence dials a queue of leads through a registered dialer backend
// with guardrail enforcement (dial caps, duration, kill switch) and
// records dispositions back onto the lead records.
package cadence

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// Status represents the current state of a cadence run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Disposition is the outcome of one dial attempt.
type Disposition string

const (
	DispositionVoicemail     Disposition = "voicemail"
	DispositionNotInterested Disposition = "not_interested"
	DispositionCallback      Disposition = "callback"
	DispositionAppointment   Disposition = "appointment"
	DispositionSkipped       Disposition = "skipped"
)

// LeadStatus maps a disposition to the lead status it leaves behind.
func (d Disposition) LeadStatus() string {
	switch d {
	case DispositionAppointment:
		return "Qualified - Appointment"
	case DispositionNotInterested, DispositionCallback:
		return "Working - Contacted"
	default:
		return "Open - Not Contacted"
	}
}

// Connected reports whether the dial reached a live person.
func (d Disposition) Connected() bool {
	return d == DispositionNotInterested || d == DispositionCallback || d == DispositionAppointment
}

// Guardrails defines safety constraints for cadence execution.
type Guardrails struct {
	MaxDials           int  `json:"max_dials"`
	MaxDurationMinutes int  `json:"max_duration_minutes"`
	RespectDoNotCall   bool `json:"respect_do_not_call"`
	KillSwitch         bool `json:"kill_switch"`
}

// DefaultGuardrails returns safe default guardrails.
func DefaultGuardrails() Guardrails {
	return Guardrails{
		MaxDials:           100,
		MaxDurationMinutes: 60,
		RespectDoNotCall:   true,
		KillSwitch:         true,
	}
}

// Definition describes a complete cadence.
type Definition struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule,omitempty"`
	LeadIDs    []string   `json:"lead_ids,omitempty"`
	Backend    string     `json:"backend"`
	Guardrails Guardrails `json:"guardrails"`
	Tags       []string   `json:"tags,omitempty"`
}

// Validate checks structural requirements, including the cron schedule
// when one is set.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("cadence ID is required")
	}
	if d.Schedule != "" && !gronx.New().IsValid(d.Schedule) {
		return fmt.Errorf("invalid cadence schedule %q", d.Schedule)
	}
	return nil
}

// NextRun returns the next scheduled fire time, or zero when the cadence
// has no schedule.
func (d *Definition) NextRun() (time.Time, error) {
	if d.Schedule == "" {
		return time.Time{}, nil
	}
	return gronx.NextTick(d.Schedule, false)
}

// DialResult captures the outcome of a single dial.
type DialResult struct {
	LeadID      string
	LeadName    string
	Disposition Disposition
	Notes       string
	Duration    time.Duration
	Error       string
}

// Stats aggregates run counters.
type Stats struct {
	Total        int `json:"total"`
	Dialed       int `json:"dialed"`
	Connected    int `json:"connected"`
	Appointments int `json:"appointments"`
	Skipped      int `json:"skipped"`
}

// Execution tracks the runtime state of a cadence run.
type Execution struct {
	ID             string
	Definition     *Definition
	Status         Status
	StartTime      time.Time
	EndTime        time.Time
	CurrentIndex   int
	Stats          Stats
	Results        []DialResult
	Error          string
	KillSwitchUsed bool
}

// checkGuardrails returns a halt reason if guardrails are exceeded, or
// empty string.
func checkGuardrails(exec *Execution, g *Guardrails) string {
	if exec.KillSwitchUsed {
		return "kill_switch_activated"
	}
	if g.MaxDurationMinutes > 0 {
		if int(time.Since(exec.StartTime).Minutes()) >= g.MaxDurationMinutes {
			return "duration_exceeded"
		}
	}
	if g.MaxDials > 0 && exec.Stats.Dialed >= g.MaxDials {
		return "dial_limit"
	}
	return ""
}

// GuardrailError represents a guardrail violation.
type GuardrailError struct {
	Reason    string
	CadenceID string
}

func (e *GuardrailError) Error() string {
	return "cadence " + e.CadenceID + ": guardrail violation: " + e.Reason
}

// GuardrailCheck evaluates whether an execution violates any guardrails.
func GuardrailCheck(exec *Execution) error {
	if exec == nil || exec.Definition == nil {
		return nil
	}
	if reason := checkGuardrails(exec, &exec.Definition.Guardrails); reason != "" {
		return &GuardrailError{Reason: reason, CadenceID: exec.ID}
	}
	return nil
}
