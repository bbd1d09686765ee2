package orchestration

import events "github.com/koscakluka/polyglot-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.UserSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.UserSpeechEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.UserTranscriptInterimUpdated:
			if opts.onInterimTranscription != nil {
				opts.onInterimTranscription(typedEvent.Transcript)
			}
		case events.UserTranscriptFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.AssistantResponseFinal:
			if opts.onResponse != nil {
				opts.onResponse(typedEvent.Response)
			}
		case events.LanguageVerdictReceived:
			if opts.onLanguageVerdict != nil {
				opts.onLanguageVerdict(typedEvent.LanguageCode, typedEvent.Confidence, typedEvent.IsCoherent)
			}
		case events.LanguageLocked:
			if opts.onLanguageLocked != nil {
				opts.onLanguageLocked(typedEvent.LanguageCode)
			}
		}
	}
}
