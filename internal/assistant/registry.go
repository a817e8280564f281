package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

// ToolErrorCode classifies a failed tool invocation.
type ToolErrorCode string

const (
	ToolErrNotFound         ToolErrorCode = "not_found"
	ToolErrInvalidParameter ToolErrorCode = "invalid_parameter"
	ToolErrUnknownTool      ToolErrorCode = "unknown_tool"
	ToolErrInternal         ToolErrorCode = "internal"
)

// ToolError is returned to the model as data so it can correct itself.
type ToolError struct {
	Code    ToolErrorCode  `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidParam(format string, args ...any) *ToolError {
	return &ToolError{Code: ToolErrInvalidParameter, Message: fmt.Sprintf(format, args...)}
}

// ToolSpec describes a tool to the model: name, purpose and a JSON-schema parameter object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Caller is the authenticated user a tool acts for. Every store access is scoped to it.
type Caller struct {
	UserID   string
	Username string
}

// Tool is a single callable operation.
type Tool interface {
	Spec() ToolSpec
	Execute(ctx context.Context, caller Caller, args json.RawMessage) (any, error)
}

// ToolResult is the structured outcome of one invocation: either Result or Error is set.
type ToolResult struct {
	CallID string     `json:"-"`
	Tool   string     `json:"tool"`
	Result any        `json:"result,omitempty"`
	Error  *ToolError `json:"error,omitempty"`
}

// OK reports whether the invocation succeeded.
func (r ToolResult) OK() bool {
	return r.Error == nil
}

// Content renders the result as the JSON body of a tool turn.
func (r ToolResult) Content() string {
	body, err := json.Marshal(r)
	if err != nil {
		body, _ = json.Marshal(ToolResult{Tool: r.Tool, Error: &ToolError{Code: ToolErrInternal, Message: "result not serializable"}})
	}
	return string(body)
}

// ToolObserver receives one notification per invocation.
type ToolObserver interface {
	RecordToolCall(tool string, failed bool)
}

// Registry is the fixed set of tools exposed to the model.
type Registry struct {
	tools    map[string]Tool
	order    []string
	logger   *zap.Logger
	observer ToolObserver
}

// NewRegistry builds a registry. Tool names must be unique and non-empty.
func NewRegistry(logger *zap.Logger, observer ToolObserver, tools ...Tool) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{tools: make(map[string]Tool, len(tools)), logger: logger, observer: observer}
	for _, tool := range tools {
		name := tool.Spec().Name
		if name == "" {
			return nil, errors.New("tool with empty name")
		}
		if _, dup := r.tools[name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", name)
		}
		r.tools[name] = tool
		r.order = append(r.order, name)
	}
	return r, nil
}

// Specs returns the tool descriptions in registration order.
func (r *Registry) Specs() []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].Spec())
	}
	return specs
}

// Execute runs one call. It never returns a Go error: every failure, including
// a panic inside the tool, becomes a structured ToolResult error.
func (r *Registry) Execute(ctx context.Context, caller Caller, call ToolCall) (result ToolResult) {
	result = ToolResult{CallID: call.ID, Tool: call.Name}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("tool panicked", zap.String("tool", call.Name), zap.Any("panic", p))
			result.Result = nil
			result.Error = &ToolError{Code: ToolErrInternal, Message: "tool execution failed"}
		}
		if r.observer != nil {
			r.observer.RecordToolCall(call.Name, result.Error != nil)
		}
	}()

	tool, ok := r.tools[call.Name]
	if !ok {
		result.Error = &ToolError{Code: ToolErrUnknownTool, Message: fmt.Sprintf("unknown tool %q", call.Name)}
		return result
	}

	args := json.RawMessage(call.Arguments)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	out, err := tool.Execute(ctx, caller, args)
	if err != nil {
		result.Error = r.toToolError(call.Name, err)
		return result
	}
	result.Result = out
	return result
}

func (r *Registry) toToolError(tool string, err error) *ToolError {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case apperrors.CodeNotFound:
			return &ToolError{Code: ToolErrNotFound, Message: domainErr.Message, Details: domainErr.Details}
		case apperrors.CodeValidation:
			return &ToolError{Code: ToolErrInvalidParameter, Message: domainErr.Message, Details: domainErr.Details}
		}
	}
	r.logger.Error("tool failed", zap.String("tool", tool), zap.Error(err))
	return &ToolError{Code: ToolErrInternal, Message: "tool execution failed"}
}
