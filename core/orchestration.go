package orchestration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/polyglot-core/core/conversations"
	events "github.com/koscakluka/polyglot-core/core/events"
	"github.com/koscakluka/polyglot-core/core/langdetect"
	"github.com/koscakluka/polyglot-core/core/languages"
	"github.com/koscakluka/polyglot-core/core/llms"
	"github.com/koscakluka/polyglot-core/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultInstructions = "You are a helpful voice assistant. Keep responses short and conversational. " +
	"Always respond in the language the user speaks."

type Orchestrator struct {
	conversation activeConversation

	closeOnce sync.Once

	// speechToText is the STT facade used to handle optional client wiring.
	speechToText speechToText
	// audioInput is the input facade used to normalize capture behavior.
	audioInput audioInput

	llm             LLMWithGeneralPrompt
	languageOracle  langdetect.Oracle
	observerOptions []langdetect.ObserverOption
	observer        *langdetect.Observer

	store    *conversations.Store
	callerID string

	instructions string
	extraTools   []llms.Tool

	emitEvent          eventEmitter
	orchestrateOptions OrchestrateOptions
	baseContext        context.Context

	turnCount atomic.Int64
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		baseContext:  context.Background(),
		instructions: defaultInstructions,
		emitEvent:    noopEventEmitter,
	}

	o.conversation = newConversation(o.availableTools)
	o.speechToText = *newSpeechToText(nil)
	o.audioInput = *newAudioInput(nil, func(audio []byte) {
		o.speechToText.SendAudio(audio)
	})

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		if err := o.audioInput.Close(); err != nil {
			recordedErr := fmt.Errorf("failed to close audio input: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		if err := o.speechToText.Close(o.baseContext); err != nil {
			recordedErr := fmt.Errorf("failed to close speech-to-text client: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		o.persist(o.baseContext)
	})
}

// Orchestrate starts the session: it restores any persisted caller state,
// opens the speech-to-text stream and begins feeding finalized transcripts
// into the language observer.
//
// ctx is used as a base context for any oracle and tool calls, allowing for
// cancellation.
//
// Contract: call Orchestrate at most once per orchestrator instance.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	o.orchestrateOptions = OrchestrateOptions{}
	for _, opt := range opts {
		opt(&o.orchestrateOptions)
	}

	o.baseContext = ctx

	callbacks := newCallbackEventEmitter(o.orchestrateOptions)
	o.emitEvent = func(event events.Event) {
		callbacks(event)

		if final, ok := event.(events.UserTranscriptFinal); ok && final.Transcript != "" {
			o.handleTranscript(o.baseContext, final.Transcript)
		}
	}
	o.speechToText.SetEventEmitter(o.emitEvent)

	sttLanguage := languages.Multilingual
	restored := o.restore()
	if restored != "" {
		sttLanguage = restored
	}

	observerOptions := append([]langdetect.ObserverOption{}, o.observerOptions...)
	observerOptions = append(observerOptions,
		langdetect.WithBackgroundEvaluation(func(command langdetect.SwitchCommand) {
			o.applySwitch(o.baseContext, command)
		}),
		langdetect.WithEventEmitter(o.emitEvent),
	)
	o.observer = langdetect.NewObserver(o.languageOracle, observerOptions...)
	if restored != "" {
		// Returning caller with a committed language; the decision is
		// terminal across sessions.
		o.observer.Lock(restored)
	}

	go func() {
		<-ctx.Done()
		o.Close()
	}()

	if err := o.speechToText.Start(
		o.baseContext,
		sttLanguage,
		utils.Ptr(o.audioInput.EncodingInfo()),
	); err != nil {
		recordedErr := fmt.Errorf("failed to initialize speech-to-text: %w", err)
		span := trace.SpanFromContext(o.baseContext)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}
	o.audioInput.Start(o.baseContext)
}

// SendAudio forwards raw audio to the speech-to-text stream. It serves
// callers that bring their own audio transport instead of an input client.
func (o *Orchestrator) SendAudio(audio []byte) error { return o.speechToText.SendAudio(audio) }

// SendTranscript feeds an externally transcribed utterance through the same
// path as a finalized speech-to-text transcript.
func (o *Orchestrator) SendTranscript(transcript string) {
	if transcript == "" {
		return
	}

	o.emitEvent(events.NewUserTranscriptFinal(transcript))
}

// SendPrompt sends a typed user prompt to the conversation model, bypassing
// speech-to-text and the language observer.
func (o *Orchestrator) SendPrompt(prompt string) {
	if prompt == "" {
		return
	}

	history := o.conversation.History()
	turnID := o.conversation.recordUserTurn(prompt)
	o.respond(o.baseContext, turnID, prompt, history)
	o.persist(o.baseContext)
}

// DetectedLanguage returns the committed recognition language, if the
// session has locked one.
func (o *Orchestrator) DetectedLanguage() (string, bool) {
	if o.observer == nil {
		return "", false
	}

	return o.observer.CommittedLanguage()
}

// SetDetectedLanguage commits languageCode as the session's recognition
// language. It backs the tool exposed to the conversation model and obeys
// the same one-shot rule as observer-driven commits.
func (o *Orchestrator) SetDetectedLanguage(ctx context.Context, languageCode string) error {
	if o.observer == nil {
		return fmt.Errorf("language detection is not active")
	}

	command, err := o.observer.Lock(languageCode)
	if err != nil {
		return err
	}

	o.applySwitch(ctx, *command)
	return nil
}

func (o *Orchestrator) availableTools() []llms.Tool {
	return append(orchestrationTools(o), o.extraTools...)
}

// handleTranscript runs once per finalized user utterance: it feeds the
// observer, prompts the conversation model and persists the session.
//
// Evidence and conversation order must follow utterance arrival order, so
// the observer feed and turn bookkeeping happen inline; only the model
// round runs in its own goroutine.
func (o *Orchestrator) handleTranscript(ctx context.Context, transcript string) {
	turnIndex := int(o.turnCount.Add(1)) - 1

	if o.observer != nil {
		o.observer.Observe(ctx, langdetect.Utterance{
			Text:      transcript,
			TurnIndex: turnIndex,
			Timestamp: time.Now(),
		})
	}

	history := o.conversation.History()
	turnID := o.conversation.recordUserTurn(transcript)

	go func() {
		ctx, span := tracer.Start(ctx, "handle transcript")
		defer span.End()
		span.SetAttributes(attribute.Int("turn.index", turnIndex))

		o.respond(ctx, turnID, transcript, history)
		o.persist(ctx)
	}()
}

// respond runs one conversation round, executing at most one batch of tool
// calls before the follow-up completion.
func (o *Orchestrator) respond(ctx context.Context, turnID string, transcript string, history []llms.TurnV1) {
	if o.llm == nil {
		return
	}

	ctx, span := tracer.Start(ctx, "respond")
	defer span.End()

	response, err := o.llm.Prompt(ctx, transcript,
		llms.WithSystemPrompt(o.instructions),
		llms.WithTurns(history...),
		llms.WithTools(o.availableTools()...),
	)
	if err != nil {
		recordedErr := fmt.Errorf("failed to prompt conversation model: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		logger.WarnContext(ctx, "conversation model prompt failed", "error", err)
		return
	}

	if len(response.ToolCalls) > 0 {
		executed := make([]llms.ToolCall, 0, len(response.ToolCalls))
		for _, toolCall := range response.ToolCalls {
			result, err := o.callTool(ctx, toolCall)
			if err != nil {
				toolCall.Response = fmt.Sprintf("Error: %v", err)
				executed = append(executed, toolCall)
				continue
			}
			executed = append(executed, *result)
		}
		o.conversation.recordToolCalls(turnID, executed...)

		followUp, err := o.llm.Prompt(ctx, "Respond to the user based on the tool results.",
			llms.WithSystemPrompt(o.instructions),
			llms.WithTurns(o.conversation.History()...),
		)
		if err != nil {
			recordedErr := fmt.Errorf("failed to prompt conversation model after tool calls: %w", err)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
			o.conversation.recordAssistantResponse(turnID, response.Content)
			return
		}
		response = followUp
	}

	o.conversation.recordAssistantResponse(turnID, response.Content)
	if response.Content != "" {
		o.emitEvent(events.NewAssistantResponseFinal(response.Content))
	}
}

// applySwitch narrows the live speech-to-text stream to the committed
// language. Failures are recorded but do not revert the lock; the stream
// keeps transcribing in its current mode.
func (o *Orchestrator) applySwitch(ctx context.Context, command langdetect.SwitchCommand) {
	ctx, span := tracer.Start(ctx, "apply language switch")
	defer span.End()
	span.SetAttributes(attribute.String("language", command.TargetLanguage))

	if err := o.speechToText.SwitchLanguage(ctx, command.TargetLanguage); err != nil {
		recordedErr := fmt.Errorf("failed to apply language switch: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		logger.WarnContext(ctx, "language switch failed, continuing in current mode",
			"language", command.TargetLanguage, "error", err)
	}

	o.persist(ctx)
}

// restore seeds the conversation from the caller's persisted record and
// returns their previously committed language, if any.
func (o *Orchestrator) restore() string {
	if o.store == nil || o.callerID == "" {
		return ""
	}

	record, ok := o.store.Get(o.callerID)
	if !ok {
		return ""
	}

	o.conversation.restoreTurns(record.Turns)
	return record.Language
}

func (o *Orchestrator) persist(ctx context.Context) {
	if o.store == nil || o.callerID == "" {
		return
	}

	record := conversations.Record{Turns: o.conversation.storedTurns()}
	if language, ok := o.DetectedLanguage(); ok {
		record.Language = language
	}

	if err := o.store.Save(o.callerID, record); err != nil {
		logger.WarnContext(ctx, "failed to persist conversation", "caller_id", o.callerID, "error", err)
	}
}
