package providers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAI_ChatRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var reqBody map[string]any
		json.NewDecoder(r.Body).Decode(&reqBody)

		resp := map[string]any{
			"id":     "chatcmpl_test",
			"object": "chat.completion",
			"model":  reqBody["model"],
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": "Hi there!",
					},
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     12,
				"completion_tokens": 4,
				"total_tokens":      16,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOpenAI("test-key", server.URL)
	resp, err := p.Chat(t.Context(), []Message{
		{Role: "system", Content: "You are helpful"},
		{Role: "user", Content: "Hello"},
	}, Options{MaxTokens: 256})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if resp.Text != "Hi there!" {
		t.Errorf("Text = %q, want %q", resp.Text, "Hi there!")
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 4 {
		t.Errorf("Usage = %+v, want 12/4", resp.Usage)
	}
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl_test",
			"object":  "chat.completion",
			"choices": []map[string]any{},
		})
	}))
	defer server.Close()

	p := NewOpenAI("test-key", server.URL)
	if _, err := p.Chat(t.Context(), []Message{{Role: "user", Content: "Hello"}}, Options{}); err == nil {
		t.Error("Chat() should fail on empty choices")
	}
}

func TestOpenAI_DefaultModel(t *testing.T) {
	p := NewOpenAI("k", "")
	if got := p.DefaultModel(); got != "gpt-4o" {
		t.Errorf("DefaultModel() = %q, want %q", got, "gpt-4o")
	}
}
