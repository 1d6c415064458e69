package research

import (
	"reflect"
	"testing"
)

func TestParseReport_StructuredJSON(t *testing.T) {
	raw := []byte(`{"summary":"Makes anvils","news":["Q3 up"],"leadership":"W. Coyote"}`)
	rep := ParseReport("Acme", raw)
	want := Report{Company: "Acme", Summary: "Makes anvils", News: []string{"Q3 up"}, Leadership: "W. Coyote"}
	if !reflect.DeepEqual(rep, want) {
		t.Errorf("ParseReport() = %+v, want %+v", rep, want)
	}
}

func TestParseReport_MarkdownFences(t *testing.T) {
	raw := []byte("```json\n{\"summary\":\"Fenced\"}\n```")
	rep := ParseReport("Acme", raw)
	if rep.Summary != "Fenced" {
		t.Errorf("Summary = %q, want %q", rep.Summary, "Fenced")
	}
	if rep.Company != "Acme" {
		t.Errorf("Company = %q, want %q", rep.Company, "Acme")
	}
}

func TestParseReport_BareFences(t *testing.T) {
	raw := []byte("```\n{\"summary\":\"Bare\"}\n```")
	if rep := ParseReport("Acme", raw); rep.Summary != "Bare" {
		t.Errorf("Summary = %q, want %q", rep.Summary, "Bare")
	}
}

func TestParseReport_FreeTextFallback(t *testing.T) {
	raw := []byte("Acme is a roadrunner-adjacent logistics company.")
	rep := ParseReport("Acme", raw)
	if rep.Summary != "Acme is a roadrunner-adjacent logistics company." {
		t.Errorf("Summary = %q, want raw text", rep.Summary)
	}
	if rep.Company != "Acme" {
		t.Errorf("Company = %q, want %q", rep.Company, "Acme")
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	if _, ok := c.Get("Acme"); ok {
		t.Fatal("empty cache should miss")
	}

	c.Put("Acme", Report{Company: "Acme", Summary: "cached"})

	rep, ok := c.Get("  acme ")
	if !ok {
		t.Fatal("cache lookup should be case- and whitespace-insensitive")
	}
	if rep.Summary != "cached" {
		t.Errorf("Summary = %q, want %q", rep.Summary, "cached")
	}
}
