package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sales-assistant/internal/assistant"
	"github.com/spec-kit/sales-assistant/internal/config"
)

type capturedRequest struct {
	Model    string           `json:"model"`
	Messages []map[string]any `json:"messages"`
	Tools    []struct {
		Type     string `json:"type"`
		Function struct {
			Name       string         `json:"name"`
			Parameters map[string]any `json:"parameters"`
		} `json:"function"`
	} `json:"tools"`
}

func newTestModel(t *testing.T, handler http.HandlerFunc) *ChatModel {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	m, err := NewChatModel(config.OpenAIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/",
		Model:   "gpt-4-turbo-preview",
		Timeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return m
}

func TestNewChatModelRequiresKey(t *testing.T) {
	_, err := NewChatModel(config.OpenAIConfig{APIKey: "  "}, nil)
	assert.Error(t, err)
}

func TestCompleteParsesToolCalls(t *testing.T) {
	var got capturedRequest
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4-turbo-preview",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{
						"id": "call_abc",
						"type": "function",
						"function": {"name": "get_customer_details", "arguments": "{\"customer_id\":\"42\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	})

	history := []assistant.Message{
		{Role: assistant.RoleSystem, Content: "You are a sales assistant."},
		{Role: assistant.RoleUser, Content: "Who is Acme?"},
		{Role: assistant.RoleAssistant, ToolCalls: []assistant.ToolCall{{ID: "call_0", Name: "search_customers", Arguments: `{"query":"acme"}`}}},
		{Role: assistant.RoleTool, ToolCallID: "call_0", Name: "search_customers", Content: `{"tool":"search_customers","result":[]}`},
	}
	specs := []assistant.ToolSpec{{
		Name:        "get_customer_details",
		Description: "Get one customer.",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}}

	reply, err := m.Complete(context.Background(), history, specs)
	require.NoError(t, err)

	assert.Equal(t, assistant.RoleAssistant, reply.Role)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, assistant.ToolCall{ID: "call_abc", Name: "get_customer_details", Arguments: `{"customer_id":"42"}`}, reply.ToolCalls[0])

	assert.Equal(t, "gpt-4-turbo-preview", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0]["role"])
	assert.Equal(t, "assistant", got.Messages[2]["role"])
	assert.Len(t, got.Messages[2]["tool_calls"], 1)
	assert.Equal(t, "tool", got.Messages[3]["role"])
	assert.Equal(t, "call_0", got.Messages[3]["tool_call_id"])
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "function", got.Tools[0].Type)
	assert.Equal(t, "get_customer_details", got.Tools[0].Function.Name)
	assert.Equal(t, "object", got.Tools[0].Function.Parameters["type"])
}

func TestCompleteFinalAnswer(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"You have 2 follow-ups."}}]}`)
	})

	reply, err := m.Complete(context.Background(), []assistant.Message{{Role: assistant.RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "You have 2 follow-ups.", reply.Content)
	assert.Empty(t, reply.ToolCalls)
}

func TestCompleteSurfacesAPIErrors(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	})

	_, err := m.Complete(context.Background(), []assistant.Message{{Role: assistant.RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	})

	_, err := m.Complete(context.Background(), []assistant.Message{{Role: assistant.RoleUser, Content: "hi"}}, nil)
	assert.ErrorContains(t, err, "no choices")
}
