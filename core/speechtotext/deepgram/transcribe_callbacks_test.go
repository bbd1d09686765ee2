package deepgram

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/koscakluka/polyglot-core/core/speechtotext"
)

func TestNewCallbackConfigDefaultsToNoopCallbacks(t *testing.T) {
	callbacks, wsConfig := newCallbackConfig(speechtotext.TranscriptionOptions{})

	callbacks.interimTranscriptionCallback("interim")
	callbacks.transcriptionCallback("full")
	callbacks.startSpeechCallback()
	callbacks.endSpeechCallback()

	if wsConfig.shouldDetectSpeechStart {
		t.Fatalf("expected speech-start detection disabled when callback is unset")
	}
	if wsConfig.shouldEnhanceSpeechEndingDetection {
		t.Fatalf("expected speech-end enhancement disabled when callbacks are unset")
	}
	if wsConfig.shouldRequestInterimResults {
		t.Fatalf("expected interim-results disabled when callbacks are unset")
	}
}

func TestNewCallbackConfigKeepsConfiguredCallbacksAndFlags(t *testing.T) {
	interimCalls := atomic.Int32{}
	transcriptionCalls := atomic.Int32{}
	startCalls := atomic.Int32{}
	endCalls := atomic.Int32{}

	callbacks, wsConfig := newCallbackConfig(speechtotext.TranscriptionOptions{
		InterimTranscriptionCallback: func(string) { interimCalls.Add(1) },
		TranscriptionCallback:        func(string) { transcriptionCalls.Add(1) },
		SpeechStartedCallback:        func() { startCalls.Add(1) },
		SpeechEndedCallback:          func() { endCalls.Add(1) },
	})

	callbacks.interimTranscriptionCallback("hello")
	callbacks.transcriptionCallback("hello world")
	callbacks.startSpeechCallback()
	callbacks.endSpeechCallback()

	if !wsConfig.shouldDetectSpeechStart {
		t.Fatalf("expected speech-start detection enabled")
	}
	if !wsConfig.shouldEnhanceSpeechEndingDetection {
		t.Fatalf("expected speech-end enhancement enabled")
	}
	if !wsConfig.shouldRequestInterimResults {
		t.Fatalf("expected interim-results enabled")
	}

	if got := interimCalls.Load(); got != 1 {
		t.Fatalf("expected interim callback once, got %d", got)
	}
	if got := transcriptionCalls.Load(); got != 1 {
		t.Fatalf("expected transcription callback once, got %d", got)
	}
	if got := startCalls.Load(); got != 1 {
		t.Fatalf("expected speech-start callback once, got %d", got)
	}
	if got := endCalls.Load(); got != 1 {
		t.Fatalf("expected speech-end callback once, got %d", got)
	}
}

func TestOnSpeechEndedFlushesAccumulatedTranscript(t *testing.T) {
	client := NewTranscriptionClient()
	client.accumulatedTranscript = " Привет Как дела?"
	client.unendedSegment = true

	var transcripts []string
	callbacks, _ := newCallbackConfig(speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(transcript string) { transcripts = append(transcripts, transcript) },
	})

	client.onSpeechEnded(callbacks)

	if len(transcripts) != 1 || transcripts[0] != "Привет Как дела?" {
		t.Fatalf("expected flushed transcript, got %v", transcripts)
	}
	if client.accumulatedTranscript != "" || client.unendedSegment {
		t.Fatalf("expected accumulation state reset after flush")
	}
}

func TestSwitchLanguageRejectsUnknownAndRepeatedSwitches(t *testing.T) {
	client := NewTranscriptionClient()

	if err := client.SwitchLanguage(context.Background(), "xx"); err == nil {
		t.Fatalf("expected unsupported language to be rejected")
	}

	if err := client.SwitchLanguage(context.Background(), "ru"); err == nil ||
		!strings.Contains(err.Error(), "not started") {
		t.Fatalf("expected switch before transcribe to fail, got %v", err)
	}

	client.stateMu.Lock()
	client.encoding = &encodingInfo{SampleRate: 16000, Format: encodingLinear16}
	client.switched = true
	client.language = "ru"
	client.stateMu.Unlock()

	if err := client.SwitchLanguage(context.Background(), "en"); err == nil ||
		!strings.Contains(err.Error(), "already switched") {
		t.Fatalf("expected second switch to be rejected, got %v", err)
	}

	if got := client.Language(); got != "ru" {
		t.Fatalf("expected language to stay ru, got %q", got)
	}
}
