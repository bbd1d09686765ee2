// Package llm implements the language-identification oracle on top of an
// LLM, using a structured prompt where the model supports one and falling
// back to parsing a plain JSON response where it does not.
package llm

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/koscakluka/polyglot-core/core/langdetect"
	"github.com/koscakluka/polyglot-core/core/languages"
	"github.com/koscakluka/polyglot-core/core/llms"
)

//go:embed identifierInstr.tmpl
var languageIdentifierSystemPrompt string

type verdict struct {
	LanguageCode string  `json:"language_code" jsonschema:"title=LanguageCode,description=ISO 639-1 code of the detected language or empty string when undecided"`
	Confidence   float64 `json:"confidence" jsonschema:"title=Confidence,description=Identification confidence between 0.0 and 1.0"`
	IsCoherent   bool    `json:"is_coherent" jsonschema:"title=IsCoherent,description=Whether all messages are coherent speech in a single language"`
}

type LLMWithStructuredPrompt interface {
	PromptWithStructure(ctx context.Context, prompt string, outputSchema any, opts ...llms.StructuredPromptOption) error
}

type LLMWithGeneralPrompt interface {
	Prompt(ctx context.Context, prompt string, opts ...llms.GeneralPromptOption) (*llms.Response, error)
}

type LLM any

func identify(ctx context.Context, window []langdetect.Utterance, llm LLM, opts ...IdentifyOption) (*langdetect.Verdict, error) {
	options := IdentifyOptions{CandidateCodes: languages.Codes()}
	for _, opt := range opts {
		opt(&options)
	}

	if len(window) == 0 {
		return nil, fmt.Errorf("empty evidence window")
	}

	systemPrompt := languageIdentifierSystemPrompt + "\nCandidate languages:\n"
	for _, code := range options.CandidateCodes {
		if language, ok := languages.Lookup(code); ok {
			systemPrompt += fmt.Sprintf("- %s (%s)\n", code, language.Name)
		}
	}

	prompt := renderEvidence(window)

	switch llm.(type) {
	case LLMWithStructuredPrompt:
		resp := verdict{}
		if err := llm.(LLMWithStructuredPrompt).PromptWithStructure(ctx, prompt,
			&resp,
			llms.WithSystemPrompt(systemPrompt),
		); err != nil {
			// TODO: Retry?
			return nil, err
		}

		return toVerdict(resp), nil

	case LLMWithGeneralPrompt:
		response, err := llm.(LLMWithGeneralPrompt).Prompt(ctx, prompt,
			llms.WithSystemPrompt(systemPrompt+"\nRespond with JSON ONLY in the form "+
				`{"language_code": "xx", "confidence": 0.99, "is_coherent": true}`),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to prompt language identifier: %w", err)
		}

		if len(response.Content) == 0 {
			return nil, fmt.Errorf("no response from language identifier")
		}

		resp := verdict{}
		if err := json.Unmarshal([]byte(extractJSON(response.Content)), &resp); err != nil {
			// TODO: Retry
			return nil, fmt.Errorf("failed to unmarshal language identification response: %w", err)
		}

		return toVerdict(resp), nil
	}

	return nil, fmt.Errorf("unknown llm type")
}

func renderEvidence(window []langdetect.Utterance) string {
	builder := strings.Builder{}
	builder.WriteString("User messages:\n")
	for _, utterance := range window {
		builder.WriteString("- ")
		builder.WriteString(utterance.Text)
		builder.WriteString("\n")
	}
	return builder.String()
}

// extractJSON trims prose and code fences around the JSON object some
// models insist on producing.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return content
	}
	return content[start : end+1]
}

func toVerdict(resp verdict) *langdetect.Verdict {
	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return &langdetect.Verdict{
		LanguageCode: strings.ToLower(strings.TrimSpace(resp.LanguageCode)),
		Confidence:   confidence,
		IsCoherent:   resp.IsCoherent,
	}
}

type IdentifyOption func(*IdentifyOptions)

type IdentifyOptions struct {
	CandidateCodes []string
}

// WithCandidateLanguages narrows the candidate set listed to the model.
func WithCandidateLanguages(codes []string) IdentifyOption {
	return func(o *IdentifyOptions) {
		o.CandidateCodes = codes
	}
}

// Oracle adapts an LLM into the langdetect.Oracle contract.
type Oracle struct {
	llm  LLM
	opts []IdentifyOption
}

func NewOracle(llm LLM, opts ...IdentifyOption) *Oracle {
	return &Oracle{llm: llm, opts: opts}
}

func (o *Oracle) Identify(ctx context.Context, window []langdetect.Utterance) (*langdetect.Verdict, error) {
	ctx, span := tracer.Start(ctx, "identify language")
	defer span.End()

	return identify(ctx, window, o.llm, o.opts...)
}
