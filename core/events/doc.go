// Package events defines the typed session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_input.*
//   - assistant.*
//   - language.*
//   - tool_call.*
//
// Semantics used across the package:
//
//   - Frame: binary audio frame/chunk payload.
//   - Updated: mutable point-in-time snapshot that can change over time.
//   - Final: terminal immutable text/state for the current stream/turn phase.
//
// user_input events
//
//   - UserAudioFrame (user_input.audio_frame): raw user input audio frame.
//   - UserSpeechStarted (user_input.speech_started): speech activity began.
//   - UserSpeechEnded (user_input.speech_ended): speech activity ended.
//   - UserTranscriptInterimUpdated (user_input.transcript_interim_updated):
//     mutable interim full transcript snapshot.
//   - UserTranscriptFinal (user_input.transcript_final): terminal full
//     transcript for the utterance.
//
// assistant events
//
//   - AssistantResponseFinal (assistant.response_final): terminal assistant
//     response for the turn.
//
// language events
//
//   - LanguageEvidenceAdded (language.evidence_added): a finalized utterance
//     entered the observer's evidence window.
//   - LanguageVerdictReceived (language.verdict_received): the identification
//     oracle answered for the current window; carries confidence and the
//     coherence flag, qualifying or not.
//   - LanguageDetectionFailed (language.detection_failed): an oracle query
//     failed; the session keeps its current recognition mode.
//   - LanguageLocked (language.locked): the session committed its one-time
//     recognition language. Emitted at most once per session.
//
// tool_call events
//
//   - ToolCallStarted (tool_call.started): tool execution started.
//   - ToolCallCompleted (tool_call.completed): tool execution completed.
//   - ToolCallFailed (tool_call.failed): tool execution failed.
package events
