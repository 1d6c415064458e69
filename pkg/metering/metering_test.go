package metering

import (
	"path/filepath"
	"testing"
	"time"
)

func TestMeterStore_Record(t *testing.T) {
	store := NewMeterStore()
	now := time.Now()

	store.Record("cli:default", UsageEvent{InputTokens: 10, OutputTokens: 20, Duration: 120, Timestamp: now})
	store.Record("cli:default", UsageEvent{InputTokens: 5, OutputTokens: 5, Failed: true, Timestamp: now})
	store.Record("slack:T1:C1", UsageEvent{InputTokens: 1, OutputTokens: 1, Timestamp: now})

	m, ok := store.Get("cli:default")
	if !ok {
		t.Fatal("meter missing for cli:default")
	}
	if m.Calls != 2 {
		t.Errorf("Calls = %d, want 2", m.Calls)
	}
	if m.InputTokens != 15 || m.OutputTokens != 25 {
		t.Errorf("tokens = %d/%d, want 15/25", m.InputTokens, m.OutputTokens)
	}
	if m.Errors != 1 {
		t.Errorf("Errors = %d, want 1", m.Errors)
	}
	if len(store.All()) != 2 {
		t.Errorf("All() = %d meters, want 2", len(store.All()))
	}
}

func TestQuota_FreeTierExhaustion(t *testing.T) {
	q := NewQuota("")
	for i := 0; i < DefaultFreeLimit; i++ {
		if !q.Allow() {
			t.Fatalf("call %d denied within free limit", i+1)
		}
	}
	if q.Allow() {
		t.Error("call beyond free limit should be denied")
	}
	if q.Allow() {
		t.Error("denial should repeat while on the free tier")
	}
}

func TestQuota_ConfiguredLimit(t *testing.T) {
	q := NewQuotaWithLimit("", 2)
	if !q.Allow() || !q.Allow() {
		t.Fatal("calls within the configured limit denied")
	}
	if q.Allow() {
		t.Error("call beyond configured limit should be denied")
	}

	if got := NewQuotaWithLimit("", 0).Snapshot().UsageLimit; got != DefaultFreeLimit {
		t.Errorf("zero limit = %d, want default %d", got, DefaultFreeLimit)
	}
}

func TestQuota_UpgradeUnmeters(t *testing.T) {
	q := NewQuota("")
	for q.Allow() {
	}
	q.Upgrade()
	if !q.Allow() {
		t.Error("upgraded plan must allow calls")
	}
	if got := q.Snapshot(); !got.Active || got.Name != "Premium" {
		t.Errorf("plan = %+v, want active Premium", got)
	}
}

func TestQuota_ResetUsage(t *testing.T) {
	q := NewQuota("")
	for q.Allow() {
	}
	q.ResetUsage()
	if !q.Allow() {
		t.Error("reset should restore free-tier allowance")
	}
}

func TestQuota_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")

	q := NewQuota(path)
	q.Allow()
	q.Allow()

	reloaded := NewQuota(path)
	if got := reloaded.Snapshot().UsageCount; got != 2 {
		t.Errorf("persisted UsageCount = %d, want 2", got)
	}

	reloaded.Upgrade()
	again := NewQuota(path)
	if !again.Snapshot().Active {
		t.Error("upgrade should persist")
	}
}
