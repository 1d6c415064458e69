package cadence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leadline-ai/leadline/pkg/leads"
	"github.com/leadline-ai/leadline/pkg/logger"
)

// Runner executes cadences against dialer backends.
type Runner struct {
	mu         sync.RWMutex
	store      *leads.Store
	agentName  string
	executions map[string]*Execution
	dialers    map[string]Dialer
	cancel     map[string]context.CancelFunc
}

// NewRunner creates a cadence runner over the given lead book.
func NewRunner(store *leads.Store, agentName string) *Runner {
	if agentName == "" {
		agentName = "Assistant"
	}
	return &Runner{
		store:      store,
		agentName:  agentName,
		executions: make(map[string]*Execution),
		dialers:    make(map[string]Dialer),
		cancel:     make(map[string]context.CancelFunc),
	}
}

// RegisterDialer registers a dialer backend for dispatching cadences.
func (r *Runner) RegisterDialer(backend string, dialer Dialer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialers[backend] = dialer
}

// Start begins executing a cadence asynchronously.
func (r *Runner) Start(ctx context.Context, def *Definition) (*Execution, error) {
	if def == nil {
		return nil, fmt.Errorf("cadence definition is nil")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	queue := r.queue(def)
	if len(queue) == 0 {
		return nil, fmt.Errorf("cadence %q has no leads to dial", def.ID)
	}

	r.mu.Lock()
	if existing, exists := r.executions[def.ID]; exists && existing.Status == StatusRunning {
		r.mu.Unlock()
		return nil, fmt.Errorf("cadence %q is already running", def.ID)
	}
	backend := def.Backend
	if backend == "" {
		backend = "simulated"
	}
	dialer, ok := r.dialers[backend]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("no dialer for backend %q", backend)
	}

	exec := &Execution{
		ID:         def.ID,
		Definition: def,
		Status:     StatusRunning,
		StartTime:  time.Now(),
		Stats:      Stats{Total: len(queue)},
		Results:    make([]DialResult, 0, len(queue)),
	}
	r.executions[def.ID] = exec

	timeout := time.Duration(def.Guardrails.MaxDurationMinutes) * time.Minute
	if timeout <= 0 {
		timeout = time.Hour
	}
	execCtx, cancelFn := context.WithTimeout(ctx, timeout)
	r.cancel[def.ID] = cancelFn
	r.mu.Unlock()

	go r.run(execCtx, exec, dialer, queue)

	return exec, nil
}

// Stop activates the kill switch for a running cadence.
func (r *Runner) Stop(cadenceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exec, ok := r.executions[cadenceID]
	if !ok {
		return fmt.Errorf("cadence %q not found", cadenceID)
	}
	if exec.Status != StatusRunning {
		return fmt.Errorf("cadence %q is not running (status: %s)", cadenceID, exec.Status)
	}

	exec.KillSwitchUsed = true
	exec.Status = StatusCanceled
	exec.EndTime = time.Now()

	if cancel, ok := r.cancel[cadenceID]; ok {
		cancel()
		delete(r.cancel, cadenceID)
	}

	logger.InfoCF("cadence", "Kill switch activated", map[string]any{
		"cadence_id": cadenceID,
	})

	return nil
}

// GetStatus returns the current execution state of a cadence.
func (r *Runner) GetStatus(cadenceID string) (*Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exec, ok := r.executions[cadenceID]
	if !ok {
		return nil, fmt.Errorf("cadence %q not found", cadenceID)
	}
	return exec, nil
}

// ListExecutions returns all cadence executions.
func (r *Runner) ListExecutions() []*Execution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Execution, 0, len(r.executions))
	for _, exec := range r.executions {
		result = append(result, exec)
	}
	return result
}

// queue resolves the dial list: explicit lead IDs when given, otherwise
// the whole book in score order.
func (r *Runner) queue(def *Definition) []leads.Lead {
	if len(def.LeadIDs) == 0 {
		return r.store.All()
	}
	out := make([]leads.Lead, 0, len(def.LeadIDs))
	for _, id := range def.LeadIDs {
		if lead, ok := r.store.Get(id); ok {
			out = append(out, lead)
		}
	}
	return out
}

// run dials the queue lead by lead.
func (r *Runner) run(ctx context.Context, exec *Execution, dialer Dialer, queue []leads.Lead) {
	defer func() {
		r.mu.Lock()
		delete(r.cancel, exec.ID)
		r.mu.Unlock()
	}()

	g := &exec.Definition.Guardrails

	for i, lead := range queue {
		if ctx.Err() != nil {
			r.mu.Lock()
			if exec.Status == StatusRunning {
				exec.Status = StatusCanceled
				exec.Error = ctx.Err().Error()
			}
			exec.EndTime = time.Now()
			r.mu.Unlock()
			return
		}

		r.mu.Lock()
		if reason := checkGuardrails(exec, g); reason != "" {
			if exec.Status == StatusRunning {
				exec.Status = StatusFailed
				exec.Error = fmt.Sprintf("guardrail: %s", reason)
			}
			exec.EndTime = time.Now()
			r.mu.Unlock()
			return
		}
		exec.CurrentIndex = i
		r.mu.Unlock()

		if g.RespectDoNotCall && lead.DoNotCall {
			logger.InfoCF("cadence", "Skipping lead, do-not-call flag set", map[string]any{
				"cadence_id": exec.ID,
				"lead":       lead.Name,
			})
			r.mu.Lock()
			exec.Stats.Skipped++
			exec.Results = append(exec.Results, DialResult{
				LeadID:      lead.ID,
				LeadName:    lead.Name,
				Disposition: DispositionSkipped,
				Notes:       "Do Not Call flag detected.",
			})
			r.mu.Unlock()
			continue
		}

		greeting := Greeting(r.agentName, lead)
		logger.InfoCF("cadence", "Dialing lead", map[string]any{
			"cadence_id": exec.ID,
			"lead":       lead.Name,
			"backend":    dialer.Name(),
		})

		dialStart := time.Now()
		r.mu.Lock()
		exec.Stats.Dialed++
		r.mu.Unlock()

		disposition, notes, err := dialer.Dial(ctx, lead, greeting)

		result := DialResult{
			LeadID:      lead.ID,
			LeadName:    lead.Name,
			Disposition: disposition,
			Notes:       notes,
			Duration:    time.Since(dialStart),
		}
		if err != nil {
			result.Error = err.Error()
		}

		r.mu.Lock()
		if err == nil {
			if disposition.Connected() {
				exec.Stats.Connected++
			}
			if disposition == DispositionAppointment {
				exec.Stats.Appointments++
			}
		}
		exec.Results = append(exec.Results, result)
		r.mu.Unlock()

		if err == nil {
			r.recordOutcome(lead, disposition, notes)
		}
	}

	r.mu.Lock()
	if exec.Status == StatusRunning {
		exec.Status = StatusCompleted
	}
	exec.EndTime = time.Now()
	r.mu.Unlock()

	logger.InfoCF("cadence", "Cadence completed", map[string]any{
		"cadence_id":   exec.ID,
		"duration":     time.Since(exec.StartTime).String(),
		"dialed":       exec.Stats.Dialed,
		"appointments": exec.Stats.Appointments,
	})
}

// recordOutcome writes the disposition back onto the lead record and
// rescores it.
func (r *Runner) recordOutcome(lead leads.Lead, disposition Disposition, notes string) {
	lead.Status = disposition.LeadStatus()
	lead.Score = leads.Score(lead)
	if _, err := r.store.Save(lead); err != nil {
		logger.WarnCF("cadence", "Could not update lead after dial", map[string]any{
			"lead":  lead.Name,
			"error": err.Error(),
		})
		return
	}
	r.store.LogTurn(lead.ID, "agent", notes, map[string]any{
		"disposition": string(disposition),
	})
}
