package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistryGetUnknownModel(t *testing.T) {
	reg := NewRegistry("gemini")
	reg.Register("gemini", &Gemini{})

	if _, err := reg.Get("llama"); err == nil {
		t.Fatal("Expected error for unsupported model")
	}
}

func TestRegistryGetDefaultModel(t *testing.T) {
	reg := NewRegistry("gemini")
	g := &Gemini{}
	reg.Register("gemini", g)

	a, err := reg.Get("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a != g {
		t.Error("Expected default model analyzer")
	}
}

func TestConstructorsRequireAPIKey(t *testing.T) {
	if _, err := NewGemini(GeminiCfg{}); err == nil {
		t.Error("Expected gemini constructor to fail without API key")
	}
	if _, err := NewOpenAI(OpenAICfg{}); err == nil {
		t.Error("Expected openai constructor to fail without API key")
	}
}

func TestParseModelOutput(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantSummary  string
		wantDegraded bool
	}{
		{
			name:        "plain json",
			raw:         `{"summary":"a contract","missing_topics":["penalty clause"],"insights":["short term"]}`,
			wantSummary: "a contract",
		},
		{
			name:        "json in markdown fence",
			raw:         "```json\n{\"summary\":\"fenced\",\"missing_topics\":[],\"insights\":[]}\n```",
			wantSummary: "fenced",
		},
		{
			name:        "json in bare fence",
			raw:         "```\n{\"summary\":\"bare\",\"missing_topics\":[],\"insights\":[]}\n```",
			wantSummary: "bare",
		},
		{
			name:         "prose response",
			raw:          "This document looks like a lease agreement.",
			wantSummary:  "This document looks like a lease agreement.",
			wantDegraded: true,
		},
		{
			name:         "long prose is truncated",
			raw:          strings.Repeat("x", 600),
			wantSummary:  strings.Repeat("x", 500),
			wantDegraded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseModelOutput(tt.raw)
			if res.Summary != tt.wantSummary {
				t.Errorf("Summary = %q, want %q", res.Summary, tt.wantSummary)
			}
			if res.MissingTopics == nil || res.Insights == nil {
				t.Error("Expected non-nil lists")
			}
			degraded := len(res.Insights) == 1 && res.Insights[0] == degradedInsight
			if degraded != tt.wantDegraded {
				t.Errorf("degraded = %v, want %v", degraded, tt.wantDegraded)
			}
		})
	}
}

func TestGeminiAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("Expected API key in query string")
		}

		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{
						"text": `{"summary":"ok","missing_topics":["x"],"insights":["y"]}`,
					}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	g, err := NewGemini(GeminiCfg{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	res, err := g.Analyze(context.Background(), "some contract text")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Summary != "ok" || len(res.MissingTopics) != 1 || len(res.Insights) != 1 {
		t.Errorf("Unexpected result: %+v", res)
	}
}

func TestOpenAIAnalyzeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "invalid key"},
		})
	}))
	defer server.Close()

	o, err := NewOpenAI(OpenAICfg{APIKey: "bad", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err = o.Analyze(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "invalid key") {
		t.Errorf("Expected API error with detail, got %v", err)
	}
}
