package orchestration

import (
	"context"
	"fmt"

	events "github.com/koscakluka/polyglot-core/core/events"
	"github.com/koscakluka/polyglot-core/core/languages"
	"github.com/koscakluka/polyglot-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func orchestrationTools(o *Orchestrator) []llms.Tool {
	return []llms.Tool{
		llms.NewTool("set_detected_language",
			"Set the conversation language once the user's language is clear. May only succeed once per session",
			map[string]llms.ParameterBase{
				"language_code": {
					Type:        "string",
					Description: "ISO 639-1 code of the detected language",
					Enum:        languages.Codes(),
				},
			},
			func(parameters struct {
				LanguageCode string `json:"language_code"`
			}) (string, error) {
				if err := o.SetDetectedLanguage(context.Background(), parameters.LanguageCode); err != nil {
					if locked, ok := o.DetectedLanguage(); ok {
						return fmt.Sprintf("Already locked to %q, the language cannot change again", locked), nil
					}
					return fmt.Sprintf("Failed: %v. Continue in the current language", err), nil
				}
				return "Success. Continue the conversation in that language", nil
			}),
	}
}

func (o *Orchestrator) callTool(ctx context.Context, toolCall llms.ToolCall) (*llms.ToolCall, error) {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", toolCall.Name))

	o.emitEvent(events.NewToolCallStarted(toolCall.ID, toolCall.Name, toolCall.Arguments))

	for _, tool := range o.availableTools() {
		if tool.Function.Name != toolCall.Name {
			continue
		}

		resp, err := tool.Execute(toolCall.Arguments)
		if err != nil {
			err = fmt.Errorf("failed to execute tool %q: %w", toolCall.Name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.emitEvent(events.NewToolCallFailed(toolCall.ID, toolCall.Name, err.Error()))
			return nil, err
		}

		o.emitEvent(events.NewToolCallCompleted(toolCall.ID, toolCall.Name, resp))
		return &llms.ToolCall{
			ID:        toolCall.ID,
			Name:      toolCall.Name,
			Arguments: toolCall.Arguments,
			Response:  resp,
		}, nil
	}

	err := fmt.Errorf("tool not found: %s", toolCall.Name)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.emitEvent(events.NewToolCallFailed(toolCall.ID, toolCall.Name, err.Error()))
	return nil, err
}
