package llm

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/koscakluka/polyglot-core/core/langdetect"
	"github.com/koscakluka/polyglot-core/core/llms"
)

func TestIdentifyUsesStructuredPromptWhenSupported(t *testing.T) {
	model := &structuredLLMStub{verdict: verdict{
		LanguageCode: "RU ",
		Confidence:   0.97,
		IsCoherent:   true,
	}}

	oracle := NewOracle(model)
	result, err := oracle.Identify(context.Background(), []langdetect.Utterance{
		{Text: "Привет", TurnIndex: 0},
		{Text: "Мне нужна помощь", TurnIndex: 1},
	})
	if err != nil {
		t.Fatalf("expected identification to succeed, got %v", err)
	}

	if result.LanguageCode != "ru" {
		t.Fatalf("expected normalized language code ru, got %q", result.LanguageCode)
	}
	if result.Confidence != 0.97 || !result.IsCoherent {
		t.Fatalf("expected verdict fields to be preserved, got %+v", result)
	}

	if !strings.Contains(model.prompt, "Привет") || !strings.Contains(model.prompt, "Мне нужна помощь") {
		t.Fatalf("expected evidence in prompt, got %q", model.prompt)
	}
	if !strings.Contains(model.instructions, "ru (Russian)") {
		t.Fatalf("expected candidate languages in instructions, got %q", model.instructions)
	}
}

func TestIdentifyParsesGeneralPromptResponse(t *testing.T) {
	model := &generalLLMStub{content: "Sure! Here is the analysis:\n```json\n" +
		`{"language_code": "de", "confidence": 1.7, "is_coherent": true}` + "\n```"}

	oracle := NewOracle(model)
	result, err := oracle.Identify(context.Background(), []langdetect.Utterance{
		{Text: "Guten Tag", TurnIndex: 0},
	})
	if err != nil {
		t.Fatalf("expected identification to succeed, got %v", err)
	}

	if result.LanguageCode != "de" {
		t.Fatalf("expected language code de, got %q", result.LanguageCode)
	}
	// Out-of-range confidence is clamped, not rejected.
	if result.Confidence != 1 {
		t.Fatalf("expected clamped confidence 1, got %f", result.Confidence)
	}
}

func TestIdentifyRejectsEmptyWindow(t *testing.T) {
	oracle := NewOracle(&generalLLMStub{content: `{}`})
	if _, err := oracle.Identify(context.Background(), nil); err == nil {
		t.Fatalf("expected empty window to be rejected")
	}
}

func TestIdentifyRejectsUnpromptableLLM(t *testing.T) {
	oracle := NewOracle(struct{}{})
	if _, err := oracle.Identify(context.Background(), []langdetect.Utterance{{Text: "hi"}}); err == nil {
		t.Fatalf("expected unknown llm type to be rejected")
	}
}

func TestExtractJSONTrimsSurroundingProse(t *testing.T) {
	cases := []struct {
		content  string
		expected string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"Here you go: {\"a\": 1} hope that helps", `{"a": 1}`},
		{"no json at all", "no json at all"},
	}

	for _, c := range cases {
		if got := extractJSON(c.content); got != c.expected {
			t.Fatalf("expected %q, got %q", c.expected, got)
		}
	}
}

type structuredLLMStub struct {
	prompt       string
	instructions string
	verdict      verdict
}

func (s *structuredLLMStub) PromptWithStructure(_ context.Context, prompt string, outputSchema any, opts ...llms.StructuredPromptOption) error {
	s.prompt = prompt

	options := llms.StructuredPromptOptions{}
	for _, opt := range opts {
		opt.ApplyToStructured(&options)
	}
	s.instructions = options.Instructions

	raw, err := json.Marshal(s.verdict)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, outputSchema)
}

type generalLLMStub struct {
	content string
}

func (s *generalLLMStub) Prompt(context.Context, string, ...llms.GeneralPromptOption) (*llms.Response, error) {
	return &llms.Response{Content: s.content}, nil
}
