// Package leads stores prospect records and their conversation history.
package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadline-ai/leadline/pkg/logger"
)

// Lead is one prospect record.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Source    string    `json:"source"`
	Status    string    `json:"status"`
	Score     int       `json:"score"`
	DoNotCall bool      `json:"do_not_call"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Turn is one logged conversation exchange with a lead.
type Turn struct {
	LeadID    string         `json:"lead_id"`
	Role      string         `json:"role"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Meta      map[string]any `json:"meta,omitempty"`
}

var ErrNameRequired = errors.New("leads: name is required")

// Store keeps leads and history in memory with optional JSON persistence.
type Store struct {
	mu      sync.Mutex
	path    string
	leads   map[string]Lead
	history map[string][]Turn
}

// NewStore loads lead state from path. An empty path keeps the store in
// memory only.
func NewStore(path string) *Store {
	s := &Store{
		path:    path,
		leads:   make(map[string]Lead),
		history: make(map[string][]Turn),
	}
	if path == "" {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnCF("leads", "Could not read lead store", map[string]any{"error": err.Error()})
		}
		return s
	}
	var snap struct {
		Leads   map[string]Lead   `json:"leads"`
		History map[string][]Turn `json:"history"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.WarnCF("leads", "Corrupt lead store, starting empty", map[string]any{"error": err.Error()})
		return s
	}
	if snap.Leads != nil {
		s.leads = snap.Leads
	}
	if snap.History != nil {
		s.history = snap.History
	}
	return s
}

// Save validates and upserts a lead, returning its ID.
func (s *Store) Save(lead Lead) (string, error) {
	if strings.TrimSpace(lead.Name) == "" {
		return "", ErrNameRequired
	}
	now := time.Now()
	if lead.ID == "" {
		lead.ID = uuid.NewString()
		lead.CreatedAt = now
	}
	if lead.Source == "" {
		lead.Source = "unknown"
	}
	if lead.Status == "" {
		lead.Status = "new"
	}
	lead.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = lead
	s.saveLocked()
	return lead.ID, nil
}

// Get returns a lead by ID.
func (s *Store) Get(id string) (Lead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	return l, ok
}

// All returns every lead, sorted by descending score then name.
func (s *Store) All() []Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Lead, 0, len(s.leads))
	for _, l := range s.leads {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// LogTurn appends a conversation turn to a lead's history.
func (s *Store) LogTurn(leadID, role, message string, meta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[leadID] = append(s.history[leadID], Turn{
		LeadID:    leadID,
		Role:      role,
		Message:   message,
		Timestamp: time.Now(),
		Meta:      meta,
	})
	s.saveLocked()
}

// History returns the logged turns for a lead.
func (s *Store) History(leadID string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.history[leadID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Score applies the qualification rubric:
// veteran persona +10, working status +15, qualified or appointment +40,
// detailed notes +10.
func Score(lead Lead) int {
	score := 0
	status := strings.ToLower(lead.Status)
	notes := strings.ToLower(lead.Notes)

	if strings.Contains(notes, "va") || strings.Contains(notes, "veteran") {
		score += 10
	}
	if strings.Contains(status, "working") {
		score += 15
	}
	if strings.Contains(status, "qualified") || strings.Contains(notes, "appointment") {
		score += 40
	}
	if len(notes) > 50 {
		score += 10
	}
	return score
}

func (s *Store) saveLocked() {
	if s.path == "" {
		return
	}
	snap := struct {
		Leads   map[string]Lead   `json:"leads"`
		History map[string][]Turn `json:"history"`
	}{s.leads, s.history}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		logger.WarnCF("leads", "Could not create lead store dir", map[string]any{"error": err.Error()})
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		logger.WarnCF("leads", "Could not persist lead store", map[string]any{"error": err.Error()})
	}
}

// SubjectNotes summarizes a lead for prompt context.
func SubjectNotes(lead Lead) string {
	parts := []string{}
	if lead.Company != "" {
		parts = append(parts, lead.Company)
	}
	if lead.Notes != "" {
		parts = append(parts, lead.Notes)
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("%s (status: %s)", strings.Join(parts, ". "), lead.Status)
}
