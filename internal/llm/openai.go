package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spec-kit/sales-assistant/internal/assistant"
	"github.com/spec-kit/sales-assistant/internal/config"
)

// ChatModel implements assistant.Model on top of the chat completions API.
type ChatModel struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

var _ assistant.Model = (*ChatModel)(nil)

// NewChatModel builds a client from configuration. Retries are disabled; the
// orchestrator reports a failed completion to the caller instead.
func NewChatModel(cfg config.OpenAIConfig, logger *zap.Logger) (*ChatModel, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai: OPENAI_API_KEY is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &ChatModel{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Complete sends the conversation and tool descriptions and returns the next assistant turn.
func (m *ChatModel) Complete(ctx context.Context, messages []assistant.Message, tools []assistant.ToolSpec) (assistant.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.model),
		Messages: toParams(messages),
	}
	if len(tools) > 0 {
		params.Tools = toToolParams(tools)
	}

	start := time.Now()
	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return assistant.Message{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return assistant.Message{}, errors.New("openai: completion has no choices")
	}

	choice := completion.Choices[0].Message
	out := assistant.Message{Role: assistant.RoleAssistant, Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, assistant.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	m.logger.Debug("completion received",
		zap.String("model", completion.Model),
		zap.Int("tool_calls", len(out.ToolCalls)),
		zap.Int64("total_tokens", completion.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)))
	return out, nil
}

func toParams(messages []assistant.Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case assistant.RoleSystem:
			params = append(params, openai.SystemMessage(msg.Content))
		case assistant.RoleUser:
			params = append(params, openai.UserMessage(msg.Content))
		case assistant.RoleTool:
			params = append(params, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case assistant.RoleAssistant:
			params = append(params, assistantParam(msg))
		}
	}
	return params
}

func assistantParam(msg assistant.Message) openai.ChatCompletionMessageParamUnion {
	if len(msg.ToolCalls) == 0 {
		return openai.AssistantMessage(msg.Content)
	}
	param := openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		param.Content.OfString = openai.String(msg.Content)
	}
	for _, tc := range msg.ToolCalls {
		param.ToolCalls = append(param.ToolCalls, openai.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &param}
}

func toToolParams(specs []assistant.ToolSpec) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  openai.FunctionParameters(spec.Parameters),
			},
		})
	}
	return tools
}
