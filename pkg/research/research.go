// Package research handles one-shot company lookups: parsing engine output
// into a structured report and caching results per company.
package research

import (
	"encoding/json"
	"strings"
	"sync"
)

// Report is the structured payload of a completed company lookup.
type Report struct {
	Company    string   `json:"company"`
	Summary    string   `json:"summary"`
	News       []string `json:"news,omitempty"`
	Leadership string   `json:"leadership,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// ParseReport extracts a Report from raw engine output. Engines sometimes
// wrap JSON in markdown code fences; those are stripped first. Output that
// still isn't valid JSON degrades to a summary-only report rather than an
// error, so a chatty engine never breaks the lookup.
func ParseReport(company string, raw []byte) Report {
	text := strings.TrimSpace(string(raw))
	if cut, ok := strings.CutPrefix(text, "```json"); ok {
		text = cut
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	var rep Report
	if err := json.Unmarshal([]byte(text), &rep); err != nil {
		return Report{Company: company, Summary: text}
	}
	if rep.Company == "" {
		rep.Company = company
	}
	return rep
}

// Cache is a per-process company report cache. Lookups are keyed on the
// lowercased company name.
type Cache struct {
	mu      sync.RWMutex
	reports map[string]Report
}

func NewCache() *Cache {
	return &Cache{reports: make(map[string]Report)}
}

func (c *Cache) Get(company string) (Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rep, ok := c.reports[cacheKey(company)]
	return rep, ok
}

func (c *Cache) Put(company string, rep Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[cacheKey(company)] = rep
}

func cacheKey(company string) string {
	return strings.ToLower(strings.TrimSpace(company))
}
