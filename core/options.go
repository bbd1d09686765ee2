package orchestration

import (
	"context"

	"github.com/koscakluka/polyglot-core/core/conversations"
	"github.com/koscakluka/polyglot-core/core/langdetect"
	"github.com/koscakluka/polyglot-core/core/llms"
	"github.com/koscakluka/polyglot-core/core/speechtotext"
)

type OrchestratorOption func(*Orchestrator)

type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

// LanguageSwitcher is implemented by speech-to-text clients whose
// recognition language can be narrowed after the stream is open.
type LanguageSwitcher interface {
	SwitchLanguage(ctx context.Context, languageCode string) error
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speechToText.set(client)
	}
}

func WithAudioInputClient(client AudioInputBase) OrchestratorOption {
	return func(o *Orchestrator) {
		o.audioInput.set(client)
	}
}

type LLMWithGeneralPrompt interface {
	Prompt(ctx context.Context, prompt string, opts ...llms.GeneralPromptOption) (*llms.Response, error)
}

func WithGeneralLLM(client LLMWithGeneralPrompt) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm = client
	}
}

// WithLanguageOracle enables the background language observer, backed by
// the given identification oracle.
func WithLanguageOracle(oracle langdetect.Oracle, opts ...langdetect.ObserverOption) OrchestratorOption {
	return func(o *Orchestrator) {
		o.languageOracle = oracle
		o.observerOptions = opts
	}
}

// WithConversationStore persists the session transcript and committed
// language under callerID, and restores a returning caller's language.
func WithConversationStore(store *conversations.Store, callerID string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.store = store
		o.callerID = callerID
	}
}

// WithInstructions overrides the system prompt given to the conversation
// model.
func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.instructions = instructions
	}
}

// WithTools registers extra tools alongside the built-in ones.
func WithTools(tools ...llms.Tool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.extraTools = append(o.extraTools, tools...)
	}
}

type OrchestrateOptions struct {
	onInterimTranscription func(transcript string)
	onTranscription        func(transcript string)
	onSpeakingStateChanged func(isSpeaking bool)
	onResponse             func(response string)
	onLanguageVerdict      func(languageCode string, confidence float64, isCoherent bool)
	onLanguageLocked       func(languageCode string)
}

type OrchestrateOption func(*OrchestrateOptions)

func WithOnInterimTranscription(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onInterimTranscription = callback
	}
}

func WithOnTranscription(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscription = callback
	}
}

func WithOnSpeakingStateChanged(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpeakingStateChanged = callback
	}
}

func WithOnResponse(callback func(response string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponse = callback
	}
}

func WithOnLanguageVerdict(callback func(languageCode string, confidence float64, isCoherent bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onLanguageVerdict = callback
	}
}

func WithOnLanguageLocked(callback func(languageCode string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onLanguageLocked = callback
	}
}
