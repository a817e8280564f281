package assistant

// Role identifies the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to invoke a registered tool. Arguments is the raw JSON object.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one provider-neutral conversation turn. Assistant turns may carry
// ToolCalls; tool turns answer exactly one call through ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// Conversation is the ordered, append-only turn history of a single chat request.
type Conversation struct {
	turns []Message
}

// NewConversation seeds a conversation with history, prepending system when the
// history has no system turn of its own.
func NewConversation(system string, history []Message) *Conversation {
	c := &Conversation{turns: make([]Message, 0, len(history)+1)}
	if system != "" && !hasSystemTurn(history) {
		c.turns = append(c.turns, Message{Role: RoleSystem, Content: system})
	}
	c.turns = append(c.turns, history...)
	return c
}

// Append adds turns to the end of the conversation.
func (c *Conversation) Append(turns ...Message) {
	c.turns = append(c.turns, turns...)
}

// Messages returns a copy of the turns in order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.turns))
	copy(out, c.turns)
	return out
}

func hasSystemTurn(history []Message) bool {
	for _, m := range history {
		if m.Role == RoleSystem {
			return true
		}
	}
	return false
}
