// Package profile holds the business profile that shapes the agent persona.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// BusinessProfile describes the business the agent represents. It is the
// source of the persona prompt for every engine call.
type BusinessProfile struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Industry           string `json:"industry"`
	ProductDescription string `json:"product_description"`
	Goals              string `json:"goals"`
	ComplianceRules    string `json:"compliance_rules"`
	AgentName          string `json:"agent_name"`
	Tone               string `json:"tone"`
}

// DefaultProfile returns the generic out-of-the-box persona.
func DefaultProfile() BusinessProfile {
	return BusinessProfile{
		ID:                 "default_biz",
		Name:               "Generic Business",
		Industry:           "General",
		ProductDescription: "Our products and services.",
		Goals:              "Help customers find the right product.",
		ComplianceRules:    "Be polite and helpful.",
		AgentName:          "Assistant",
		Tone:               "Professional and friendly",
	}
}

// SubjectContext is optional lead/record context injected into the prompt.
type SubjectContext struct {
	Name    string
	Company string
	Notes   string
}

// SystemPrompt assembles the unified persona prompt. The agent identity is
// always taken from the profile so a conversation cannot rename it.
func (p BusinessProfile) SystemPrompt(subject *SubjectContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, representing %s (%s).\n", p.AgentName, p.Name, p.Industry)
	fmt.Fprintf(&b, "Your mission is: %s\n\n", p.Goals)
	fmt.Fprintf(&b, "PRODUCT KNOWLEDGE:\n%s\n\n", p.ProductDescription)
	fmt.Fprintf(&b, "BEHAVIORAL RULES:\n- Tone: %s\n- Compliance: %s\n", p.Tone, p.ComplianceRules)
	b.WriteString("- Role: act as a helpful sales representative; guide qualified leads toward a purchase or booking.\n")

	if subject != nil {
		fmt.Fprintf(&b, "\nACTIVE CONTEXT:\n- Name: %s\n", subject.Name)
		info := subject.Notes
		if info == "" {
			info = subject.Company
		}
		if info == "" {
			info = "N/A"
		}
		fmt.Fprintf(&b, "- Info: %s\n", info)
	}
	return b.String()
}

// Store persists the profile next to the rest of the platform state.
type Store struct {
	mu      sync.Mutex
	path    string
	profile BusinessProfile
}

// NewStore loads the profile from path, falling back to defaults when
// missing or unreadable.
func NewStore(path string) *Store {
	s := &Store{path: path, profile: DefaultProfile()}
	if path == "" {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var p BusinessProfile
	if err := json.Unmarshal(data, &p); err == nil && p.Name != "" {
		s.profile = p
	}
	return s
}

// Get returns the current profile.
func (s *Store) Get() BusinessProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Update replaces the profile and persists it.
func (s *Store) Update(p BusinessProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
