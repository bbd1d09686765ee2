package llms

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ParameterBase describes one tool parameter for the model-facing schema.
type ParameterBase struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Tool is a capability exposed to the model through a declarative schema
// and invoked with a typed input contract.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`

	execute func(arguments string) (string, error)
}

type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  ToolFunctionParameters `json:"parameters"`
}

type ToolFunctionParameters struct {
	Type       string                   `json:"type"`
	Properties map[string]ParameterBase `json:"properties"`
	Required   []string                 `json:"required,omitempty"`
}

// NewTool builds a Tool whose arguments are unmarshalled into T before the
// execute callback runs. All declared parameters are marked required.
func NewTool[T any](name, description string, parameters map[string]ParameterBase, execute func(parameters T) (string, error)) Tool {
	required := make([]string, 0, len(parameters))
	for parameter := range parameters {
		required = append(required, parameter)
	}
	sort.Strings(required)

	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters: ToolFunctionParameters{
				Type:       "object",
				Properties: parameters,
				Required:   required,
			},
		},
		execute: func(arguments string) (string, error) {
			var parsed T
			if err := json.Unmarshal([]byte(arguments), &parsed); err != nil {
				return "", fmt.Errorf("failed to parse arguments for tool %q: %w", name, err)
			}

			return execute(parsed)
		},
	}
}

func (t Tool) Execute(arguments string) (string, error) {
	if t.execute == nil {
		return "", fmt.Errorf("tool %q has no executable body", t.Function.Name)
	}

	return t.execute(arguments)
}
