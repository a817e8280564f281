package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

// AbortMessage is returned to the user when the tool loop hits its iteration bound.
const AbortMessage = "I could not complete this request within the allowed number of steps. " +
	"Please try a more specific question."

const (
	defaultMaxIterations = 5
	maxCallsPerTurn      = 8
	emptyAnswerFallback  = "I don't have an answer for that."
)

// ErrModelUnavailable marks failures of the external model.
var ErrModelUnavailable = errors.New("language model unavailable")

// Model is a tool-calling chat model. Complete returns the next assistant turn,
// which either carries a final answer or requests tool calls.
type Model interface {
	Complete(ctx context.Context, messages []Message, tools []ToolSpec) (Message, error)
}

// ChatObserver receives per-run statistics.
type ChatObserver interface {
	RecordChat(duration time.Duration, completed bool)
	RecordModelFailure()
}

// Options configures an Orchestrator.
type Options struct {
	MaxIterations int
	Logger        *zap.Logger
	Observer      ChatObserver
	Now           func() time.Time
}

// Reply is the outcome of one chat request.
type Reply struct {
	Message    string
	Completed  bool
	Iterations int
	ToolCalls  int
	Transcript []Message
}

// Orchestrator runs the bounded loop between a conversation, the model and the tool registry.
type Orchestrator struct {
	model         Model
	tools         *Registry
	maxIterations int
	logger        *zap.Logger
	observer      ChatObserver
	now           func() time.Time
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(model Model, tools *Registry, opts Options) *Orchestrator {
	o := &Orchestrator{
		model:         model,
		tools:         tools,
		maxIterations: opts.MaxIterations,
		logger:        opts.Logger,
		observer:      opts.Observer,
		now:           opts.Now,
	}
	if o.maxIterations <= 0 {
		o.maxIterations = defaultMaxIterations
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Run answers history on behalf of caller. The model is invoked at most maxIterations
// times; if it still requests tools after the last invocation the run ends with
// AbortMessage and Completed=false. Tool failures are fed back to the model. Model
// failures end the run with an error wrapping ErrModelUnavailable.
func (o *Orchestrator) Run(ctx context.Context, caller Caller, history []Message) (*Reply, error) {
	if err := validateHistory(history); err != nil {
		return nil, err
	}

	start := o.now()
	conv := NewConversation(SystemPrompt(caller, start), history)
	specs := o.tools.Specs()
	reply := &Reply{}

	for iteration := 1; iteration <= o.maxIterations; iteration++ {
		reply.Iterations = iteration

		turn, err := o.model.Complete(ctx, conv.Messages(), specs)
		if err != nil {
			return nil, o.modelFailure(ctx, caller, iteration, err)
		}
		turn.Role = RoleAssistant
		turn.ToolCalls = assignCallIDs(turn.ToolCalls, iteration)
		conv.Append(turn)

		if len(turn.ToolCalls) == 0 {
			reply.Message = strings.TrimSpace(turn.Content)
			if reply.Message == "" {
				reply.Message = emptyAnswerFallback
			}
			reply.Completed = true
			reply.Transcript = conv.Messages()
			o.finish(caller, reply, start)
			return reply, nil
		}

		results := o.executeBatch(ctx, caller, turn.ToolCalls)
		for i, call := range turn.ToolCalls {
			conv.Append(Message{
				Role:       RoleTool,
				Name:       call.Name,
				ToolCallID: call.ID,
				Content:    results[i].Content(),
			})
		}
		reply.ToolCalls += len(turn.ToolCalls)
	}

	reply.Message = AbortMessage
	reply.Transcript = conv.Messages()
	o.logger.Warn("tool loop hit iteration limit",
		zap.String("user_id", caller.UserID),
		zap.Int("max_iterations", o.maxIterations),
		zap.Int("tool_calls", reply.ToolCalls))
	o.finish(caller, reply, start)
	return reply, nil
}

// executeBatch runs one turn's calls concurrently and returns results in call order.
func (o *Orchestrator) executeBatch(ctx context.Context, caller Caller, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		if i >= maxCallsPerTurn {
			results[i] = ToolResult{
				CallID: call.ID,
				Tool:   call.Name,
				Error:  invalidParam("at most %d tool calls are executed per turn", maxCallsPerTurn),
			}
			continue
		}
		wg.Add(1)
		go func(i int, call ToolCall) {
			defer wg.Done()
			results[i] = o.tools.Execute(ctx, caller, call)
		}(i, call)
	}
	wg.Wait()

	for _, r := range results {
		o.logger.Debug("tool executed",
			zap.String("user_id", caller.UserID),
			zap.String("tool", r.Tool),
			zap.String("call_id", r.CallID),
			zap.Bool("ok", r.OK()))
	}
	return results
}

func (o *Orchestrator) modelFailure(ctx context.Context, caller Caller, iteration int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("chat aborted: %w", ctxErr)
	}
	if o.observer != nil {
		o.observer.RecordModelFailure()
	}
	o.logger.Error("model call failed",
		zap.String("user_id", caller.UserID),
		zap.Int("iteration", iteration),
		zap.Error(err))
	return apperrors.NewModelUnavailable(fmt.Errorf("%w: %w", ErrModelUnavailable, err))
}

func (o *Orchestrator) finish(caller Caller, reply *Reply, start time.Time) {
	if o.observer != nil {
		o.observer.RecordChat(o.now().Sub(start), reply.Completed)
	}
	o.logger.Info("chat completed",
		zap.String("user_id", caller.UserID),
		zap.Bool("completed", reply.Completed),
		zap.Int("iterations", reply.Iterations),
		zap.Int("tool_calls", reply.ToolCalls))
}

// assignCallIDs fills missing or duplicate call ids so every tool turn can be matched.
func assignCallIDs(calls []ToolCall, iteration int) []ToolCall {
	seen := make(map[string]struct{}, len(calls))
	for i := range calls {
		id := calls[i].ID
		if _, dup := seen[id]; id == "" || dup {
			id = fmt.Sprintf("call_%d_%d", iteration, i)
			calls[i].ID = id
		}
		seen[id] = struct{}{}
	}
	return calls
}

func validateHistory(history []Message) error {
	if len(history) == 0 {
		return apperrors.NewValidationError("messages must not be empty", nil)
	}
	hasUser := false
	for i, m := range history {
		switch m.Role {
		case RoleUser:
			hasUser = true
		case RoleSystem, RoleAssistant:
		default:
			return apperrors.NewValidationError("unsupported message role",
				map[string]any{"index": i, "role": string(m.Role)})
		}
		if len(m.ToolCalls) > 0 || m.ToolCallID != "" {
			return apperrors.NewValidationError("client messages must not carry tool calls",
				map[string]any{"index": i})
		}
	}
	if !hasUser {
		return apperrors.NewValidationError("at least one user message is required", nil)
	}
	return nil
}
