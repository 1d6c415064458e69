package metering

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/leadline-ai/leadline/pkg/logger"
)

// Plan is the persisted subscription state. The free tier counts calls
// against UsageLimit; an active plan is unmetered.
type Plan struct {
	Active     bool   `json:"active"`
	Name       string `json:"name"`
	UsageCount int    `json:"usage_count"`
	UsageLimit int    `json:"usage_limit"`
}

// DefaultFreeLimit matches the free-tier call allowance.
const DefaultFreeLimit = 10

// Quota gates engine calls on the subscription plan. State persists to a
// JSON file so free-tier usage survives restarts.
type Quota struct {
	mu   sync.Mutex
	plan Plan
	path string
}

// NewQuota loads quota state from path, creating free-tier defaults when
// the file does not exist. An empty path keeps the quota in memory only.
func NewQuota(path string) *Quota {
	return NewQuotaWithLimit(path, DefaultFreeLimit)
}

// NewQuotaWithLimit is NewQuota with a configured free-tier limit. A
// persisted plan file takes precedence over the configured limit.
func NewQuotaWithLimit(path string, limit int) *Quota {
	if limit <= 0 {
		limit = DefaultFreeLimit
	}
	q := &Quota{
		path: path,
		plan: Plan{Name: "Free", UsageLimit: limit},
	}

	if path == "" {
		return q
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnCF("metering", "Could not read quota state", map[string]any{"error": err.Error()})
		}
		return q
	}
	if err := json.Unmarshal(data, &q.plan); err != nil {
		logger.WarnCF("metering", "Corrupt quota state, using defaults", map[string]any{"error": err.Error()})
		q.plan = Plan{Name: "Free", UsageLimit: limit}
	}
	if q.plan.UsageLimit <= 0 {
		q.plan.UsageLimit = limit
	}
	return q
}

// Allow reports whether another engine call is permitted, consuming one
// unit of free-tier allowance when it is.
func (q *Quota) Allow() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.plan.Active {
		return true
	}
	if q.plan.UsageCount < q.plan.UsageLimit {
		q.plan.UsageCount++
		q.saveLocked()
		return true
	}
	return false
}

// Upgrade activates the paid plan. This is the target of the exposed
// paywall/upgrade action; the session core itself never calls it.
func (q *Quota) Upgrade() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.plan.Active = true
	q.plan.Name = "Premium"
	q.saveLocked()
}

// ResetUsage clears the free-tier counter (administrative action).
func (q *Quota) ResetUsage() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.plan.UsageCount = 0
	q.saveLocked()
}

// Snapshot returns the current plan state.
func (q *Quota) Snapshot() Plan {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.plan
}

func (q *Quota) saveLocked() {
	if q.path == "" {
		return
	}
	data, err := json.MarshalIndent(q.plan, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		logger.WarnCF("metering", "Could not create quota dir", map[string]any{"error": err.Error()})
		return
	}
	if err := os.WriteFile(q.path, data, 0o600); err != nil {
		logger.WarnCF("metering", "Could not persist quota state", map[string]any{"error": err.Error()})
	}
}
