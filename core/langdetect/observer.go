// Package langdetect decides, from accumulated transcript evidence, whether
// a session's speech-to-text channel should be narrowed from multilingual
// mode to one committed recognition language.
//
// The decision is a one-shot, monotonic commitment: an Observer starts
// undecided, and locks at most once per session. Once locked it never
// reverts and never re-commits, regardless of later evidence. The lock is
// guarded by a single-writer commit so the invariant holds even when oracle
// queries overlap.
package langdetect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/koscakluka/polyglot-core/core/events"
	"github.com/koscakluka/polyglot-core/core/languages"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrOracleUnavailable wraps oracle transport failures. The observer
	// recovers from it locally and retries on the next qualifying utterance.
	ErrOracleUnavailable = errors.New("language oracle unavailable")
	// ErrAlreadyLocked is returned by explicit lock attempts after the
	// session has committed its recognition language.
	ErrAlreadyLocked = errors.New("recognition language already locked")
)

// Utterance is one finalized, transcribed user turn. Immutable after
// creation, ordered by arrival.
type Utterance struct {
	Text      string
	TurnIndex int
	Timestamp time.Time
}

// Verdict is the oracle's answer for one evidence window. It is used once
// and not retained.
type Verdict struct {
	LanguageCode string
	Confidence   float64
	IsCoherent   bool
}

// SwitchCommand requests the one-time narrowing of the downstream
// speech-to-text channel to TargetLanguage.
type SwitchCommand struct {
	TargetLanguage string
}

// Oracle identifies the language of a small ordered batch of utterances.
// Queries are latent network calls and may fail; a failed query never fails
// the session.
type Oracle interface {
	Identify(ctx context.Context, utterances []Utterance) (*Verdict, error)
}

const (
	defaultWindowCapacity      = 3
	defaultConfidenceThreshold = 0.95
)

// Observer consumes finalized user utterances for one session and emits at
// most one SwitchCommand. It exclusively owns its evidence window and lock
// state; sessions do not share observers.
type Observer struct {
	oracle Oracle

	windowCapacity      int
	confidenceThreshold float64
	evaluationInterval  int
	isSupported         func(languageCode string) bool

	background bool
	onSwitch   func(SwitchCommand)
	emitEvent  func(events.Event)

	mu        sync.Mutex
	window    []Utterance
	arrivals  int
	locked    bool
	committed *SwitchCommand
}

type ObserverOption func(*Observer)

// WithWindowCapacity sets how many recent utterances form the evidence
// window, which is also the minimum evidence needed before the oracle is
// queried.
func WithWindowCapacity(capacity int) ObserverOption {
	return func(o *Observer) {
		if capacity > 0 {
			o.windowCapacity = capacity
		}
	}
}

// WithConfidenceThreshold sets the minimum oracle confidence required to
// commit a switch.
func WithConfidenceThreshold(threshold float64) ObserverOption {
	return func(o *Observer) {
		o.confidenceThreshold = threshold
	}
}

// WithEvaluationInterval queries the oracle only on every interval-th
// utterance once the window is full, instead of on every one.
func WithEvaluationInterval(interval int) ObserverOption {
	return func(o *Observer) {
		if interval > 0 {
			o.evaluationInterval = interval
		}
	}
}

// WithBackgroundEvaluation runs oracle queries in their own goroutines so
// Observe never blocks the session's turn-taking loop. A committed switch is
// delivered through onSwitch instead of Observe's return value.
func WithBackgroundEvaluation(onSwitch func(SwitchCommand)) ObserverOption {
	return func(o *Observer) {
		o.background = true
		o.onSwitch = onSwitch
	}
}

// WithEventEmitter forwards observer lifecycle events to emitEvent.
func WithEventEmitter(emitEvent func(events.Event)) ObserverOption {
	return func(o *Observer) {
		if emitEvent != nil {
			o.emitEvent = emitEvent
		}
	}
}

// WithSupportedLanguages overrides the registry gate deciding which verdict
// languages may be committed.
func WithSupportedLanguages(isSupported func(languageCode string) bool) ObserverOption {
	return func(o *Observer) {
		if isSupported != nil {
			o.isSupported = isSupported
		}
	}
}

func NewObserver(oracle Oracle, opts ...ObserverOption) *Observer {
	o := &Observer{
		oracle:              oracle,
		windowCapacity:      defaultWindowCapacity,
		confidenceThreshold: defaultConfidenceThreshold,
		evaluationInterval:  1,
		isSupported:         languages.IsSupported,
		emitEvent:           func(events.Event) {},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Observe appends a finalized utterance to the evidence window and, once
// enough evidence has accumulated, consults the oracle.
//
// Utterances must arrive in session order. The returned command is non-nil
// exactly once per session, and only in synchronous mode; in background mode
// the commit is delivered through the WithBackgroundEvaluation callback.
// After the lock, Observe is a no-op.
func (o *Observer) Observe(ctx context.Context, utterance Utterance) *SwitchCommand {
	o.mu.Lock()
	if o.locked || o.oracle == nil {
		o.mu.Unlock()
		return nil
	}

	o.window = append(o.window, utterance)
	if len(o.window) > o.windowCapacity {
		o.window = o.window[1:]
	}
	o.arrivals++

	shouldEvaluate := o.arrivals >= o.windowCapacity &&
		(o.arrivals-o.windowCapacity)%o.evaluationInterval == 0

	snapshot := make([]Utterance, len(o.window))
	copy(snapshot, o.window)
	o.mu.Unlock()

	o.emitEvent(events.NewLanguageEvidenceAdded(utterance.TurnIndex, utterance.Text))

	if !shouldEvaluate {
		return nil
	}

	if o.background {
		go o.evaluate(ctx, snapshot)
		return nil
	}

	return o.evaluate(ctx, snapshot)
}

// CommittedLanguage returns the locked language code, if any.
func (o *Observer) CommittedLanguage() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.committed == nil {
		return "", false
	}
	return o.committed.TargetLanguage, true
}

// Lock commits languageCode directly, bypassing the oracle. It serves
// callers that already hold a decision, e.g. a registered tool invoked by
// the conversation model. The one-shot invariant still applies.
func (o *Observer) Lock(languageCode string) (*SwitchCommand, error) {
	if !o.isSupported(languageCode) {
		return nil, fmt.Errorf("unsupported language %q", languageCode)
	}

	command := SwitchCommand{TargetLanguage: languageCode}
	if !o.commit(command) {
		return nil, ErrAlreadyLocked
	}

	o.emitEvent(events.NewLanguageLocked(languageCode, 1))
	return &command, nil
}

func (o *Observer) evaluate(ctx context.Context, window []Utterance) *SwitchCommand {
	ctx, span := tracer.Start(ctx, "evaluate language evidence")
	defer span.End()
	span.SetAttributes(attribute.Int("evidence.size", len(window)))

	verdict, err := o.oracle.Identify(ctx, window)
	if err != nil {
		recordedErr := fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		logger.WarnContext(ctx, "language identification failed, keeping current recognition mode", "error", err)
		o.emitEvent(events.NewLanguageDetectionFailed(recordedErr.Error()))
		return nil
	}

	if verdict == nil {
		o.emitEvent(events.NewLanguageDetectionFailed("oracle returned no verdict"))
		return nil
	}

	span.SetAttributes(
		attribute.String("verdict.language", verdict.LanguageCode),
		attribute.Float64("verdict.confidence", verdict.Confidence),
		attribute.Bool("verdict.coherent", verdict.IsCoherent),
	)
	o.emitEvent(events.NewLanguageVerdictReceived(verdict.LanguageCode, verdict.Confidence, verdict.IsCoherent))

	if !o.qualifies(*verdict) {
		return nil
	}

	command := SwitchCommand{TargetLanguage: verdict.LanguageCode}
	if !o.commit(command) {
		// A concurrent query already locked the session; a late verdict for
		// a stale window must not override it.
		return nil
	}

	span.SetAttributes(attribute.String("committed.language", command.TargetLanguage))
	o.emitEvent(events.NewLanguageLocked(verdict.LanguageCode, verdict.Confidence))

	if o.background && o.onSwitch != nil {
		o.onSwitch(command)
	}

	return &command
}

func (o *Observer) qualifies(verdict Verdict) bool {
	return verdict.IsCoherent &&
		verdict.Confidence >= o.confidenceThreshold &&
		verdict.LanguageCode != "" &&
		o.isSupported(verdict.LanguageCode)
}

// commit transitions the observer to its terminal locked state. It is the
// only writer of the lock and reports whether this call won the transition.
func (o *Observer) commit(command SwitchCommand) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.locked {
		return false
	}

	o.locked = true
	o.committed = &command
	return true
}
