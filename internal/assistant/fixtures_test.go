package assistant

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sales-assistant/internal/repository/repotest"
	"github.com/spec-kit/sales-assistant/internal/service"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

var alice = Caller{UserID: "6f1c2b0e-4d3a-4c55-9a7e-1b2c3d4e5f60", Username: "alice"}

// scriptedModel replays turns in order and records every request.
type scriptedModel struct {
	mu       sync.Mutex
	turns    []Message
	fallback func(call int) Message
	err      error
	requests [][]Message
}

func (m *scriptedModel) Complete(_ context.Context, messages []Message, _ []ToolSpec) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, messages)
	if m.err != nil {
		return Message{}, m.err
	}
	call := len(m.requests)
	if call <= len(m.turns) {
		return m.turns[call-1], nil
	}
	if m.fallback != nil {
		return m.fallback(call), nil
	}
	return Message{}, fmt.Errorf("script exhausted at call %d", call)
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *scriptedModel) lastRequest() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

type fixture struct {
	customers *service.CustomerService
	knowledge *service.KnowledgeService
	registry  *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	customers := service.NewCustomerService(service.CustomerDependencies{
		CustomerRepo:    repotest.NewCustomers(),
		FollowUpHorizon: 48 * time.Hour,
		ListLimit:       50,
		Now:             func() time.Time { return testNow },
	})
	knowledge := service.NewKnowledgeService(repotest.NewKnowledge(), nil, nil, 50)
	registry, err := NewRegistry(nil, nil, NewSalesTools(customers, knowledge, 50)...)
	require.NoError(t, err)
	return &fixture{customers: customers, knowledge: knowledge, registry: registry}
}

func (f *fixture) orchestrator(model Model, maxIterations int) *Orchestrator {
	return NewOrchestrator(model, f.registry, Options{
		MaxIterations: maxIterations,
		Now:           func() time.Time { return testNow },
	})
}

func userSays(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}

func callTool(id, name, args string) Message {
	return Message{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: id, Name: name, Arguments: args}}}
}

func answer(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}
