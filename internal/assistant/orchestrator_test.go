package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sales-assistant/internal/service"
	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

func TestRunReturnsFinalAnswer(t *testing.T) {
	f := newFixture(t)
	model := &scriptedModel{turns: []Message{answer("  Hello Alice!  ")}}

	reply, err := f.orchestrator(model, 5).Run(context.Background(), alice, userSays("hi"))
	require.NoError(t, err)

	assert.True(t, reply.Completed)
	assert.Equal(t, "Hello Alice!", reply.Message)
	assert.Equal(t, 1, reply.Iterations)
	assert.Zero(t, reply.ToolCalls)
	assert.Equal(t, 1, model.calls())
}

func TestRunInjectsSystemPromptOnce(t *testing.T) {
	f := newFixture(t)

	model := &scriptedModel{turns: []Message{answer("ok")}}
	_, err := f.orchestrator(model, 5).Run(context.Background(), alice, userSays("hi"))
	require.NoError(t, err)

	sent := model.lastRequest()
	require.Len(t, sent, 2)
	assert.Equal(t, RoleSystem, sent[0].Role)
	assert.Contains(t, sent[0].Content, "alice")
	assert.Contains(t, sent[0].Content, "Monday, March 2, 2026")

	model = &scriptedModel{turns: []Message{answer("ok")}}
	history := []Message{{Role: RoleSystem, Content: "custom"}, {Role: RoleUser, Content: "hi"}}
	_, err = f.orchestrator(model, 5).Run(context.Background(), alice, history)
	require.NoError(t, err)

	sent = model.lastRequest()
	require.Len(t, sent, 2)
	assert.Equal(t, "custom", sent[0].Content)
}

func TestUnknownCustomerYieldsNotFoundResultAndFinalAnswer(t *testing.T) {
	f := newFixture(t)
	model := &scriptedModel{turns: []Message{
		callTool("call_1", ToolGetCustomerDetails, `{"customer_id":"8a3f2c1e-0000-4000-8000-000000000001"}`),
		answer("I could not find that customer."),
	}}

	reply, err := f.orchestrator(model, 5).Run(context.Background(), alice, userSays("details for customer 8a3f..."))
	require.NoError(t, err)

	assert.True(t, reply.Completed)
	assert.Equal(t, "I could not find that customer.", reply.Message)
	assert.Equal(t, 1, reply.ToolCalls)

	sent := model.lastRequest()
	toolTurn := sent[len(sent)-1]
	assert.Equal(t, RoleTool, toolTurn.Role)
	assert.Equal(t, "call_1", toolTurn.ToolCallID)
	assert.Contains(t, toolTurn.Content, `"code":"not_found"`)

	roles := make([]Role, 0, len(reply.Transcript))
	for _, m := range reply.Transcript {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool, RoleAssistant}, roles)
	assert.Equal(t, "call_1", reply.Transcript[2].ToolCalls[0].ID)
	assert.Equal(t, reply.Message, reply.Transcript[4].Content)
}

func TestLoopStopsAtIterationBound(t *testing.T) {
	f := newFixture(t)
	model := &scriptedModel{fallback: func(call int) Message {
		return callTool("", ToolGetCustomers, `{}`)
	}}

	reply, err := f.orchestrator(model, 3).Run(context.Background(), alice, userSays("loop forever"))
	require.NoError(t, err)

	assert.False(t, reply.Completed)
	assert.Equal(t, AbortMessage, reply.Message)
	assert.Equal(t, 3, reply.Iterations)
	assert.Equal(t, 3, reply.ToolCalls)
	assert.Equal(t, 3, model.calls())

	// system + user, then one assistant and one tool turn per iteration
	require.Len(t, reply.Transcript, 2+2*3)
	last := reply.Transcript[len(reply.Transcript)-1]
	assert.Equal(t, RoleTool, last.Role)
	assert.Equal(t, "call_3_0", last.ToolCallID)
}

func TestModelFailureSurfacesAsModelUnavailable(t *testing.T) {
	f := newFixture(t)
	model := &scriptedModel{err: errors.New("503 from upstream")}

	_, err := f.orchestrator(model, 5).Run(context.Background(), alice, userSays("hi"))
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrModelUnavailable)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeModelUnavailable, de.Code)
	assert.Equal(t, http.StatusBadGateway, de.HTTPStatus)
}

func TestCanceledContextIsNotReportedAsModelFailure(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	model := &scriptedModel{err: context.DeadlineExceeded}
	_, err := f.orchestrator(model, 5).Run(ctx, alice, userSays("hi"))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrModelUnavailable)
}

// barrierTool blocks until n invocations are in flight at once.
type barrierTool struct {
	name    string
	n       int32
	started atomic.Int32
	release chan struct{}
	once    sync.Once
}

func (b *barrierTool) Spec() ToolSpec { return ToolSpec{Name: b.name} }

func (b *barrierTool) Execute(_ context.Context, _ Caller, args json.RawMessage) (any, error) {
	if b.started.Add(1) == b.n {
		b.once.Do(func() { close(b.release) })
	}
	select {
	case <-b.release:
		return strings.TrimSpace(string(args)), nil
	case <-time.After(2 * time.Second):
		return nil, errors.New("calls were not executed concurrently")
	}
}

func TestBatchRunsConcurrentlyAndKeepsCallOrder(t *testing.T) {
	barrier := &barrierTool{name: "probe", n: 3, release: make(chan struct{})}
	registry, err := NewRegistry(nil, nil, barrier)
	require.NoError(t, err)

	model := &scriptedModel{turns: []Message{
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "a", Name: "probe", Arguments: `"first"`},
			{ID: "b", Name: "probe", Arguments: `"second"`},
			{ID: "c", Name: "probe", Arguments: `"third"`},
		}},
		answer("done"),
	}}
	o := NewOrchestrator(model, registry, Options{MaxIterations: 2})

	reply, err := o.Run(context.Background(), alice, userSays("probe"))
	require.NoError(t, err)
	require.True(t, reply.Completed)

	sent := model.lastRequest()
	toolTurns := sent[len(sent)-3:]
	for i, want := range []struct{ id, value string }{{"a", "first"}, {"b", "second"}, {"c", "third"}} {
		assert.Equal(t, want.id, toolTurns[i].ToolCallID)
		assert.Contains(t, toolTurns[i].Content, want.value)
		assert.NotContains(t, toolTurns[i].Content, "error")
	}
}

func TestMissingCallIDsAreAssigned(t *testing.T) {
	calls := assignCallIDs([]ToolCall{{Name: "x"}, {ID: "dup", Name: "y"}, {ID: "dup", Name: "z"}}, 2)

	assert.Equal(t, "call_2_0", calls[0].ID)
	assert.Equal(t, "dup", calls[1].ID)
	assert.Equal(t, "call_2_2", calls[2].ID)
}

func TestRunRejectsInvalidHistory(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(&scriptedModel{}, 5)

	cases := map[string][]Message{
		"empty":       nil,
		"no user":     {{Role: RoleAssistant, Content: "hi"}},
		"tool turn":   {{Role: RoleUser, Content: "hi"}, {Role: RoleTool, Content: "{}", ToolCallID: "x"}},
		"forged call": {{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "x", Name: "get_customers"}}}},
	}
	for name, history := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := o.Run(context.Background(), alice, history)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeValidation, apperrors.ToDomainError(err).Code)
		})
	}
}

func TestFollowUpsToolThroughLoop(t *testing.T) {
	f := newFixture(t)
	past := testNow.Add(-24 * time.Hour)
	_, err := f.customers.Create(context.Background(), alice.UserID, service.CustomerInput{
		Name: "Overdue Co", Email: "buyer@overdue.test", NextFollowUp: &past,
	}, service.SourceAPI)
	require.NoError(t, err)

	model := &scriptedModel{turns: []Message{
		callTool("call_1", ToolGetUrgentFollowUps, ``),
		answer("Call Overdue Co today."),
	}}
	reply, err := f.orchestrator(model, 5).Run(context.Background(), alice, userSays("who should I call?"))
	require.NoError(t, err)
	assert.True(t, reply.Completed)

	sent := model.lastRequest()
	assert.Contains(t, sent[len(sent)-1].Content, "Overdue Co")
}
