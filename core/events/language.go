package events

const (
	// KindLanguageEvidenceAdded identifies an utterance entering the evidence window.
	KindLanguageEvidenceAdded Kind = "language.evidence_added"
	// KindLanguageVerdictReceived identifies an oracle answer for the current window.
	KindLanguageVerdictReceived Kind = "language.verdict_received"
	// KindLanguageDetectionFailed identifies a failed oracle query.
	KindLanguageDetectionFailed Kind = "language.detection_failed"
	// KindLanguageLocked identifies the one-time recognition language commit.
	KindLanguageLocked Kind = "language.locked"
)

// LanguageEvidenceAdded marks a finalized utterance being buffered as
// language evidence.
type LanguageEvidenceAdded struct {
	Base
	TurnIndex  int
	Transcript string
}

// NewLanguageEvidenceAdded creates a language evidence added event.
func NewLanguageEvidenceAdded(turnIndex int, transcript string) LanguageEvidenceAdded {
	return LanguageEvidenceAdded{Base: NewBase(KindLanguageEvidenceAdded), TurnIndex: turnIndex, Transcript: transcript}
}

// LanguageVerdictReceived carries the oracle's answer for one evidence
// window, whether or not it qualified for a switch.
type LanguageVerdictReceived struct {
	Base
	LanguageCode string
	Confidence   float64
	IsCoherent   bool
}

// NewLanguageVerdictReceived creates a language verdict received event.
func NewLanguageVerdictReceived(languageCode string, confidence float64, isCoherent bool) LanguageVerdictReceived {
	return LanguageVerdictReceived{
		Base:         NewBase(KindLanguageVerdictReceived),
		LanguageCode: languageCode,
		Confidence:   confidence,
		IsCoherent:   isCoherent,
	}
}

// LanguageDetectionFailed marks an oracle query that did not produce a
// verdict. The session keeps its current recognition mode.
type LanguageDetectionFailed struct {
	Base
	Error string
}

// NewLanguageDetectionFailed creates a language detection failed event.
func NewLanguageDetectionFailed(err string) LanguageDetectionFailed {
	return LanguageDetectionFailed{Base: NewBase(KindLanguageDetectionFailed), Error: err}
}

// LanguageLocked marks the terminal commit of the session's recognition
// language.
type LanguageLocked struct {
	Base
	LanguageCode string
	Confidence   float64
}

// NewLanguageLocked creates a language locked event.
func NewLanguageLocked(languageCode string, confidence float64) LanguageLocked {
	return LanguageLocked{Base: NewBase(KindLanguageLocked), LanguageCode: languageCode, Confidence: confidence}
}
