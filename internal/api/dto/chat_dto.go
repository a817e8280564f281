package dto

// ChatTurn is one message of the client-held conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries the prior conversation and, optionally, the new user message
// separately. When Message is set it is appended as a user turn.
type ChatRequest struct {
	Messages []ChatTurn `json:"messages"`
	Message  string     `json:"message"`
}

// ChatResponse is the assistant's reply to one request.
type ChatResponse struct {
	Message   string `json:"message"`
	Completed bool   `json:"completed"`
	ToolCalls int    `json:"tool_calls"`
}
