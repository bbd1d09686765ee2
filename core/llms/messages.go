package llms

import "fmt"

// Response is a single response from an LLM.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// TurnV1 is a single turn taken in the conversation.
type TurnV1 struct {
	ID string
	// Event is what initiated the turn, e.g. a user utterance or a
	// completed tool call.
	Event EventV0

	// Responses is a list of responses the assistant generated for the
	// turn. There may be more than one, e.g. an intermediate response
	// around a slow tool call.
	Responses []string
	// ToolCalls is a list of tool calls executed during the turn.
	ToolCalls []ToolCall

	// IsFinalised is true once the assistant has finished generating
	// responses for the turn.
	IsFinalised bool
}

type EventV0 interface {
	fmt.Stringer
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
	Response  string
}
