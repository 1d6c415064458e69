package cadencecmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadline-ai/leadline/cmd/leadline/internal"
	"github.com/leadline-ai/leadline/pkg/cadence"
)

func runCmd(name, backend string, maxDials, maxMinutes int, ignoreDNC bool, leadIDs []string) error {
	rt, err := internal.BuildRuntime("cli:cadence")
	if err != nil {
		return err
	}
	cfg := rt.Cfg

	if backend == "" {
		backend = cfg.Cadence.Backend
	}
	guardrails := cadence.Guardrails{
		MaxDials:           cfg.Cadence.MaxDials,
		MaxDurationMinutes: cfg.Cadence.MaxDurationMinutes,
		RespectDoNotCall:   cfg.Cadence.RespectDoNotCall && !ignoreDNC,
		KillSwitch:         true,
	}
	if maxDials > 0 {
		guardrails.MaxDials = maxDials
	}
	if maxMinutes > 0 {
		guardrails.MaxDurationMinutes = maxMinutes
	}

	def := &cadence.Definition{
		ID:         uuid.New().String(),
		Name:       name,
		LeadIDs:    leadIDs,
		Backend:    backend,
		Guardrails: guardrails,
	}

	runner := cadence.NewRunner(rt.Leads, cfg.Agent.Name)
	runner.RegisterDialer("simulated", cadence.NewSimulatedDialer(time.Now().UnixNano()))
	runner.RegisterDialer("conversational", cadence.NewConversationalDialer(rt.Controller))

	exec, err := runner.Start(context.Background(), def)
	if err != nil {
		return fmt.Errorf("error starting cadence: %w", err)
	}
	fmt.Printf("%s Cadence %q started: %d leads queued\n", internal.Logo, name, exec.Stats.Total)

	for {
		time.Sleep(200 * time.Millisecond)
		current, err := runner.GetStatus(def.ID)
		if err != nil {
			return err
		}
		if current.Status != cadence.StatusRunning {
			printSummary(current)
			return nil
		}
	}
}

func printSummary(exec *cadence.Execution) {
	fmt.Printf("\nCadence finished: %s\n", exec.Status)
	fmt.Printf("  Dialed:       %d/%d\n", exec.Stats.Dialed, exec.Stats.Total)
	fmt.Printf("  Connected:    %d\n", exec.Stats.Connected)
	fmt.Printf("  Appointments: %d\n", exec.Stats.Appointments)
	fmt.Printf("  Skipped:      %d\n", exec.Stats.Skipped)
	for _, res := range exec.Results {
		fmt.Printf("    %-24s %s\n", res.LeadName, res.Disposition)
	}
	if exec.Error != "" {
		fmt.Printf("  Halted: %s\n", exec.Error)
	}
}

func nextCmd() error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if cfg.Cadence.Schedule == "" {
		fmt.Println("No cadence schedule configured.")
		return nil
	}

	def := &cadence.Definition{ID: "config", Schedule: cfg.Cadence.Schedule}
	if err := def.Validate(); err != nil {
		return err
	}
	next, err := def.NextRun()
	if err != nil {
		return fmt.Errorf("error computing next run: %w", err)
	}
	fmt.Printf("Next cadence run: %s (in %s)\n", next.Format(time.RFC1123), time.Until(next).Round(time.Second))
	return nil
}
