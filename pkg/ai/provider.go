package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Result is the structured outcome of a document analysis.
type Result struct {
	Summary       string   `json:"summary"`
	MissingTopics []string `json:"missing_topics"`
	Insights      []string `json:"insights"`
}

// Analyzer is the capability interface implemented by each AI provider.
// Implementations validate their credentials at construction time, so
// Analyze never fails for a missing API key.
type Analyzer interface {
	Analyze(ctx context.Context, content string) (*Result, error)
}

// Registry holds long-lived analyzers keyed by model name.
type Registry struct {
	defaultModel string
	analyzers    map[string]Analyzer
}

func NewRegistry(defaultModel string) *Registry {
	return &Registry{
		defaultModel: defaultModel,
		analyzers:    make(map[string]Analyzer),
	}
}

func (r *Registry) Register(name string, a Analyzer) {
	r.analyzers[name] = a
}

// Get resolves an analyzer by model name. An empty name resolves to the
// default model. Unknown names are an error the caller must not retry.
func (r *Registry) Get(name string) (Analyzer, error) {
	if name == "" {
		name = r.defaultModel
	}
	a, ok := r.analyzers[name]
	if !ok {
		return nil, fmt.Errorf("AI model %q is not supported (have: %s)", name, strings.Join(r.Names(), ", "))
	}
	return a, nil
}

func (r *Registry) Len() int { return len(r.analyzers) }

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.analyzers))
	for n := range r.analyzers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

const degradedInsight = "analysis generated but response was not valid JSON"

// parseModelOutput turns a raw model reply into a Result. Models are
// asked for JSON but sometimes wrap it in markdown fences or return
// prose; in the degraded case the raw text becomes the summary with a
// sentinel insight, rather than failing the whole analysis.
func parseModelOutput(raw string) *Result {
	text := strings.TrimSpace(raw)

	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
		text = strings.TrimSpace(text)
	}

	var res Result
	if err := json.Unmarshal([]byte(text), &res); err == nil && res.Summary != "" {
		if res.MissingTopics == nil {
			res.MissingTopics = []string{}
		}
		if res.Insights == nil {
			res.Insights = []string{}
		}
		return &res
	}

	summary := raw
	if len(summary) > 500 {
		summary = summary[:500]
	}
	return &Result{
		Summary:       summary,
		MissingTopics: []string{},
		Insights:      []string{degradedInsight},
	}
}

const analysisPrompt = `You are an assistant specialized in reviewing legal documents.
Analyze the document below and respond with a single JSON object with exactly
these keys: "summary" (string), "missing_topics" (array of strings) and
"insights" (array of strings). Do not include any other text.

Document:
%s`
