package orchestration

import (
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/polyglot-core/core/conversations"
	"github.com/koscakluka/polyglot-core/core/llms"
)

var _ conversations.ActiveContextV0 = (*activeConversation)(nil)

// userUtteranceEvent is a finalized user utterance initiating a turn.
type userUtteranceEvent string

func (e userUtteranceEvent) String() string { return string(e) }

type activeConversation struct {
	mu sync.RWMutex

	turns []llms.TurnV1

	availableTools func() []llms.Tool
}

func newConversation(availableTools func() []llms.Tool) activeConversation {
	return activeConversation{availableTools: availableTools}
}

func (t *activeConversation) History() []llms.TurnV1 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	history := make([]llms.TurnV1, len(t.turns))
	copy(history, t.turns)
	return history
}

func (t *activeConversation) AvailableTools() []llms.Tool {
	t.mu.RLock()
	availableTools := t.availableTools
	t.mu.RUnlock()
	if availableTools == nil {
		return nil
	}

	return availableTools()
}

// recordUserTurn opens a new turn for a finalized user utterance and
// returns its ID.
func (t *activeConversation) recordUserTurn(transcript string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	turn := llms.TurnV1{
		ID:    uuid.NewString(),
		Event: userUtteranceEvent(transcript),
	}
	t.turns = append(t.turns, turn)
	return turn.ID
}

func (t *activeConversation) recordToolCalls(turnID string, toolCalls ...llms.ToolCall) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.turns {
		if t.turns[i].ID == turnID {
			t.turns[i].ToolCalls = append(t.turns[i].ToolCalls, toolCalls...)
			return
		}
	}
}

func (t *activeConversation) recordAssistantResponse(turnID string, response string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.turns {
		if t.turns[i].ID == turnID {
			if response != "" {
				t.turns[i].Responses = append(t.turns[i].Responses, response)
			}
			t.turns[i].IsFinalised = true
			return
		}
	}
}

// restoreTurns seeds the conversation with turns persisted from a previous
// session.
func (t *activeConversation) restoreTurns(stored []conversations.StoredTurn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var current *llms.TurnV1
	for _, turn := range stored {
		switch turn.Role {
		case "user":
			if current != nil {
				t.turns = append(t.turns, *current)
			}
			current = &llms.TurnV1{
				ID:          uuid.NewString(),
				Event:       userUtteranceEvent(turn.Content),
				IsFinalised: true,
			}
		case "assistant":
			if current == nil {
				current = &llms.TurnV1{ID: uuid.NewString(), IsFinalised: true}
			}
			current.Responses = append(current.Responses, turn.Content)
		}
	}
	if current != nil {
		t.turns = append(t.turns, *current)
	}
}

// storedTurns flattens the conversation into persistable role/content pairs.
func (t *activeConversation) storedTurns() []conversations.StoredTurn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stored := []conversations.StoredTurn{}
	for _, turn := range t.turns {
		if turn.Event != nil && turn.Event.String() != "" {
			stored = append(stored, conversations.StoredTurn{Role: "user", Content: turn.Event.String()})
		}
		for _, response := range turn.Responses {
			if response == "" {
				continue
			}
			stored = append(stored, conversations.StoredTurn{Role: "assistant", Content: response})
		}
	}
	return stored
}
