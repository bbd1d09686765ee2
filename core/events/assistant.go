package events

const (
	// KindAssistantResponseFinal identifies the terminal assistant response
	// for a turn.
	KindAssistantResponseFinal Kind = "assistant.response_final"
)

// AssistantResponseFinal carries the assistant's full response for a turn.
type AssistantResponseFinal struct {
	Base
	Response string
}

// NewAssistantResponseFinal creates an assistant response final event.
func NewAssistantResponseFinal(response string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Response: response}
}
