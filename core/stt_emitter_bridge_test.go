package orchestration

import (
	"context"
	"testing"

	"github.com/koscakluka/polyglot-core/core/audio"
	events "github.com/koscakluka/polyglot-core/core/events"
	"github.com/koscakluka/polyglot-core/core/languages"
	"github.com/koscakluka/polyglot-core/internal/utils"
)

func TestSpeechToTextBridgeEmitsTranscriptEvents(t *testing.T) {
	client := &sttClientStub{}
	stt := newSpeechToText(client)

	emitted := []events.Event{}
	stt.SetEventEmitter(func(event events.Event) {
		emitted = append(emitted, event)
	})

	if err := stt.Start(
		context.Background(),
		languages.Multilingual,
		utils.Ptr(audio.GetDefaultEncodingInfo()),
	); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	if client.options.Language != languages.Multilingual {
		t.Fatalf("expected multilingual start language, got %q", client.options.Language)
	}
	if client.options.EncodingInfo.IsZero() {
		t.Fatalf("expected encoding info to be forwarded")
	}

	client.speechStarted()
	client.interim("прив")
	client.finalize("привет")
	client.speechEnded()

	expectedKinds := []events.Kind{
		events.KindUserSpeechStarted,
		events.KindUserTranscriptInterimUpdated,
		events.KindUserTranscriptInterimUpdated,
		events.KindUserTranscriptFinal,
		events.KindUserSpeechEnded,
	}
	if len(emitted) != len(expectedKinds) {
		t.Fatalf("expected %d events, got %d", len(expectedKinds), len(emitted))
	}
	for i, kind := range expectedKinds {
		if emitted[i].Kind() != kind {
			t.Fatalf("expected event %d to be %q, got %q", i, kind, emitted[i].Kind())
		}
	}

	// Finalization resets the interim snapshot before the final transcript.
	if interim, ok := emitted[2].(events.UserTranscriptInterimUpdated); !ok || interim.Transcript != "" {
		t.Fatalf("expected empty interim reset before final transcript, got %+v", emitted[2])
	}
	if final, ok := emitted[3].(events.UserTranscriptFinal); !ok || final.Transcript != "привет" {
		t.Fatalf("expected final transcript to be forwarded, got %+v", emitted[3])
	}
}

func TestSpeechToTextBridgeIgnoresUnconfiguredClient(t *testing.T) {
	stt := newSpeechToText(nil)

	if err := stt.Start(
		context.Background(),
		languages.Multilingual,
		utils.Ptr(audio.GetDefaultEncodingInfo()),
	); err != nil {
		t.Fatalf("expected unconfigured start to be a no-op, got %v", err)
	}
	if err := stt.SendAudio([]byte{0x00}); err != nil {
		t.Fatalf("expected unconfigured send to be a no-op, got %v", err)
	}
	if err := stt.SwitchLanguage(context.Background(), "ru"); err != nil {
		t.Fatalf("expected unconfigured switch to be a no-op, got %v", err)
	}
}
