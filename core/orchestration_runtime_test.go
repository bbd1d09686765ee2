package orchestration

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/polyglot-core/core/conversations"
	"github.com/koscakluka/polyglot-core/core/langdetect"
	"github.com/koscakluka/polyglot-core/core/speechtotext"
)

func TestOrchestrateCommitsLanguageSwitchFromTranscripts(t *testing.T) {
	client := &sttClientStub{}
	oracle := &oracleStub{
		identify: func([]langdetect.Utterance) (*langdetect.Verdict, error) {
			return &langdetect.Verdict{LanguageCode: "ru", Confidence: 0.98, IsCoherent: true}, nil
		},
	}

	locked := make(chan string, 1)
	o := NewOrchestrator(
		WithSpeechToTextClient(client),
		WithLanguageOracle(oracle),
	)
	defer o.Close()

	o.Orchestrate(context.Background(), WithOnLanguageLocked(func(languageCode string) {
		locked <- languageCode
	}))

	client.finalize("Привет")
	client.finalize("Мне нужна помощь с заказом")
	client.finalize("Номер заказа пять три восемь")

	select {
	case languageCode := <-locked:
		if languageCode != "ru" {
			t.Fatalf("expected locked language ru, got %q", languageCode)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a language lock")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(client.switches()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if switches := client.switches(); len(switches) != 1 || switches[0] != "ru" {
		t.Fatalf("expected one switch to ru, got %v", switches)
	}

	if languageCode, ok := o.DetectedLanguage(); !ok || languageCode != "ru" {
		t.Fatalf("expected detected language ru, got %q (%t)", languageCode, ok)
	}
	if calls := oracle.callCount(); calls != 1 {
		t.Fatalf("expected a single oracle query for the filled window, got %d", calls)
	}

	// The commit is terminal; later attempts must not override it.
	if err := o.SetDetectedLanguage(context.Background(), "de"); !errors.Is(err, langdetect.ErrAlreadyLocked) {
		t.Fatalf("expected ErrAlreadyLocked, got %v", err)
	}
}

func TestSetDetectedLanguageSwitchesOnce(t *testing.T) {
	client := &sttClientStub{}
	o := NewOrchestrator(WithSpeechToTextClient(client))
	defer o.Close()

	o.Orchestrate(context.Background())

	if err := o.SetDetectedLanguage(context.Background(), "de"); err != nil {
		t.Fatalf("expected first lock to succeed, got %v", err)
	}
	if switches := client.switches(); len(switches) != 1 || switches[0] != "de" {
		t.Fatalf("expected one switch to de, got %v", switches)
	}

	if err := o.SetDetectedLanguage(context.Background(), "fr"); !errors.Is(err, langdetect.ErrAlreadyLocked) {
		t.Fatalf("expected ErrAlreadyLocked, got %v", err)
	}
	if err := o.SetDetectedLanguage(context.Background(), "xx"); err == nil {
		t.Fatalf("expected unsupported language to be rejected")
	}
	if switches := client.switches(); len(switches) != 1 {
		t.Fatalf("expected no further switches, got %v", switches)
	}
}

func TestOrchestrateRestoresReturningCallerLanguage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	store, err := conversations.NewStore(path)
	if err != nil {
		t.Fatalf("expected store to open, got %v", err)
	}

	first := &sttClientStub{}
	o := NewOrchestrator(
		WithSpeechToTextClient(first),
		WithConversationStore(store, "+15550100"),
	)
	o.Orchestrate(context.Background())

	first.finalize("Привет")
	if err := o.SetDetectedLanguage(context.Background(), "ru"); err != nil {
		t.Fatalf("expected lock to succeed, got %v", err)
	}
	o.Close()

	record, ok := store.Get("+15550100")
	if !ok || record.Language != "ru" {
		t.Fatalf("expected persisted language ru, got %+v (%t)", record, ok)
	}

	// A returning caller starts directly in their committed language.
	second := &sttClientStub{}
	returning := NewOrchestrator(
		WithSpeechToTextClient(second),
		WithConversationStore(store, "+15550100"),
	)
	defer returning.Close()
	returning.Orchestrate(context.Background())

	if second.options.Language != "ru" {
		t.Fatalf("expected restored start language ru, got %q", second.options.Language)
	}
	if languageCode, ok := returning.DetectedLanguage(); !ok || languageCode != "ru" {
		t.Fatalf("expected restored detection ru, got %q (%t)", languageCode, ok)
	}
	if err := returning.SetDetectedLanguage(context.Background(), "de"); !errors.Is(err, langdetect.ErrAlreadyLocked) {
		t.Fatalf("expected restored lock to be terminal, got %v", err)
	}
	if len(returning.conversation.History()) == 0 {
		t.Fatalf("expected restored conversation history")
	}
}

type sttClientStub struct {
	mu        sync.Mutex
	options   speechtotext.TranscriptionOptions
	switched  []string
	switchErr error
}

func (s *sttClientStub) Transcribe(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.options = speechtotext.TranscriptionOptions{}
	for _, opt := range opts {
		opt(&s.options)
	}
	return nil
}

func (s *sttClientStub) SendAudio([]byte) error { return nil }

func (s *sttClientStub) SwitchLanguage(_ context.Context, languageCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.switchErr != nil {
		return s.switchErr
	}
	s.switched = append(s.switched, languageCode)
	return nil
}

func (s *sttClientStub) switches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloned := make([]string, len(s.switched))
	copy(cloned, s.switched)
	return cloned
}

func (s *sttClientStub) speechStarted() {
	if callback := s.callbacks().SpeechStartedCallback; callback != nil {
		callback()
	}
}

func (s *sttClientStub) speechEnded() {
	if callback := s.callbacks().SpeechEndedCallback; callback != nil {
		callback()
	}
}

func (s *sttClientStub) interim(transcript string) {
	if callback := s.callbacks().InterimTranscriptionCallback; callback != nil {
		callback(transcript)
	}
}

func (s *sttClientStub) finalize(transcript string) {
	if callback := s.callbacks().TranscriptionCallback; callback != nil {
		callback(transcript)
	}
}

func (s *sttClientStub) callbacks() speechtotext.TranscriptionOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

type oracleStub struct {
	mu       sync.Mutex
	calls    int
	identify func(utterances []langdetect.Utterance) (*langdetect.Verdict, error)
}

func (o *oracleStub) Identify(_ context.Context, utterances []langdetect.Utterance) (*langdetect.Verdict, error) {
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()

	return o.identify(utterances)
}

func (o *oracleStub) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}
