package orchestration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/polyglot-core/core/llms"
)

func TestRespondExecutesModelRequestedLanguageTool(t *testing.T) {
	client := &sttClientStub{}
	llm := &llmStub{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{{
			ID:        "call_1",
			Name:      "set_detected_language",
			Arguments: `{"language_code":"de"}`,
		}}},
		{Content: "Gerne, wie kann ich helfen?"},
	}}

	responses := make(chan string, 1)
	o := NewOrchestrator(
		WithSpeechToTextClient(client),
		WithGeneralLLM(llm),
	)
	defer o.Close()

	o.Orchestrate(context.Background(), WithOnResponse(func(response string) {
		responses <- response
	}))

	o.SendTranscript("Hallo, ich brauche Hilfe mit meiner Bestellung")

	select {
	case response := <-responses:
		if response != "Gerne, wie kann ich helfen?" {
			t.Fatalf("expected follow-up response, got %q", response)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a response")
	}

	if switches := client.switches(); len(switches) != 1 || switches[0] != "de" {
		t.Fatalf("expected tool-driven switch to de, got %v", switches)
	}
	if languageCode, ok := o.DetectedLanguage(); !ok || languageCode != "de" {
		t.Fatalf("expected detected language de, got %q (%t)", languageCode, ok)
	}

	history := o.conversation.History()
	if len(history) != 1 {
		t.Fatalf("expected one turn, got %d", len(history))
	}
	turn := history[0]
	if len(turn.ToolCalls) != 1 || turn.ToolCalls[0].Response == "" {
		t.Fatalf("expected recorded tool call with response, got %+v", turn.ToolCalls)
	}
	if len(turn.Responses) != 1 || !turn.IsFinalised {
		t.Fatalf("expected finalised turn with one response, got %+v", turn)
	}
}

func TestRespondToleratesModelFailure(t *testing.T) {
	client := &sttClientStub{}
	llm := &llmStub{err: fmt.Errorf("model unavailable")}

	o := NewOrchestrator(
		WithSpeechToTextClient(client),
		WithGeneralLLM(llm),
	)
	defer o.Close()

	o.Orchestrate(context.Background())
	o.SendTranscript("Hello there")

	deadline := time.Now().Add(2 * time.Second)
	for llm.promptCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if llm.promptCount() != 1 {
		t.Fatalf("expected one prompt attempt, got %d", llm.promptCount())
	}

	// The utterance is still recorded even when no response was produced.
	history := o.conversation.History()
	if len(history) != 1 || history[0].Event.String() != "Hello there" {
		t.Fatalf("expected recorded user turn, got %+v", history)
	}
}

type llmStub struct {
	mu        sync.Mutex
	prompts   []string
	responses []*llms.Response
	err       error
}

func (l *llmStub) Prompt(_ context.Context, prompt string, _ ...llms.GeneralPromptOption) (*llms.Response, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prompts = append(l.prompts, prompt)
	if l.err != nil {
		return nil, l.err
	}
	if len(l.responses) == 0 {
		return &llms.Response{}, nil
	}

	response := l.responses[0]
	l.responses = l.responses[1:]
	return response, nil
}

func (l *llmStub) promptCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}
