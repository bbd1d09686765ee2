// Package languages holds the registry of languages the speech-to-text
// channel can be switched to.
//
// The registry is scoped to what Deepgram's nova-3 model supports as a
// dedicated recognition language. Sessions start in the multilingual mode
// (Multilingual) and may be narrowed to one of these exactly once.
package languages

import "sort"

// Multilingual is the recognition mode used before a language is committed.
const Multilingual = "multi"

// Language describes one switchable recognition language.
type Language struct {
	// Code is the ISO 639-1 code used across the module.
	Code string
	// Name is the English display name.
	Name string
	// DeepgramCode is the tag sent to the transcription provider. It may
	// differ from Code (e.g. "pt" maps to "pt-BR").
	DeepgramCode string
}

var registry = map[string]Language{
	"en": {Code: "en", Name: "English", DeepgramCode: "en"},
	"es": {Code: "es", Name: "Spanish", DeepgramCode: "es"},
	"fr": {Code: "fr", Name: "French", DeepgramCode: "fr"},
	"de": {Code: "de", Name: "German", DeepgramCode: "de"},
	"pt": {Code: "pt", Name: "Portuguese", DeepgramCode: "pt-BR"},
	"nl": {Code: "nl", Name: "Dutch", DeepgramCode: "nl"},
	"sv": {Code: "sv", Name: "Swedish", DeepgramCode: "sv"},
	"da": {Code: "da", Name: "Danish", DeepgramCode: "da"},
	"ru": {Code: "ru", Name: "Russian", DeepgramCode: "ru"},
	"it": {Code: "it", Name: "Italian", DeepgramCode: "it"},
	"pl": {Code: "pl", Name: "Polish", DeepgramCode: "pl"},
}

// Lookup returns the language registered under code.
func Lookup(code string) (Language, bool) {
	language, ok := registry[code]
	return language, ok
}

// IsSupported reports whether code can be committed as a recognition
// language. The multilingual mode is not a commit target.
func IsSupported(code string) bool {
	_, ok := registry[code]
	return ok
}

// Codes returns all switchable language codes in stable order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
