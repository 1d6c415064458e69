package envelope

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeChat_EmptyText(t *testing.T) {
	_, err := EncodeChat("", ThinkingMedium, "lead-1")
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("EncodeChat(\"\") error = %v, want ErrEmptyText", err)
	}
}

func TestEncodeChat_UnknownLevelFallsBack(t *testing.T) {
	raw, err := EncodeChat("hello", ThinkingLevel("turbo"), "")
	if err != nil {
		t.Fatalf("EncodeChat() error: %v", err)
	}
	var req ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.ThinkingLevel != ThinkingMedium {
		t.Errorf("ThinkingLevel = %q, want %q", req.ThinkingLevel, ThinkingMedium)
	}
}

func TestEncodeResearch(t *testing.T) {
	raw, err := EncodeResearch("Acme Corp")
	if err != nil {
		t.Fatalf("EncodeResearch() error: %v", err)
	}
	var req ResearchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.SubjectKey != "Acme Corp" {
		t.Errorf("SubjectKey = %q, want %q", req.SubjectKey, "Acme Corp")
	}

	if _, err := EncodeResearch(""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("EncodeResearch(\"\") error = %v, want ErrEmptyText", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Response
		wantErr bool
	}{
		{name: "basic", raw: `{"text":"Hello","paywall":false}`, want: Response{Text: "Hello"}},
		{name: "paywall set", raw: `{"text":"Upgrade needed","paywall":true}`, want: Response{Text: "Upgrade needed", Paywall: true}},
		{name: "paywall absent means false", raw: `{"text":"ok"}`, want: Response{Text: "ok"}},
		{name: "empty text is valid", raw: `{"text":""}`, want: Response{Text: ""}},
		{name: "extra fields ignored", raw: `{"text":"hi","thought_signature":"tsig_ab12"}`, want: Response{Text: "hi"}},
		{name: "missing text", raw: `{"paywall":true}`, wantErr: true},
		{name: "wrong text type", raw: `{"text":42}`, wantErr: true},
		{name: "wrong paywall type", raw: `{"text":"x","paywall":"yes"}`, wantErr: true},
		{name: "not json", raw: `<html>502</html>`, wantErr: true},
		{name: "truncated", raw: `{"text":"hi`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Decode(%q) expected error, got %+v", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	for _, want := range []Response{
		{Text: "Hello", Paywall: false},
		{Text: "Upgrade needed", Paywall: true},
		{Text: ""},
	} {
		raw, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	}
}
