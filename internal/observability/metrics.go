package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for HTTP traffic and the assistant loop.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	toolCalls     map[string]int64
	toolFailures  map[string]int64
	chatLatency   time.Duration
	chatRuns      int64
	chatAborted   int64
	modelFailures int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests      map[string]int64 `json:"requests"`
	Errors        map[string]int64 `json:"errors"`
	ToolCalls     map[string]int64 `json:"tool_calls"`
	ToolFailures  map[string]int64 `json:"tool_failures"`
	ChatRuns      int64            `json:"chat_runs"`
	ChatAborted   int64            `json:"chat_aborted"`
	ModelFailures int64            `json:"model_failures"`
	ChatAvgMillis int64            `json:"chat_avg_ms"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		toolCalls:    make(map[string]int64),
		toolFailures: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordToolCall counts one tool invocation and whether it failed.
func (m *Metrics) RecordToolCall(tool string, failed bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolCalls[tool]++
	if failed {
		m.toolFailures[tool]++
	}
}

// RecordChat records one orchestrator run.
func (m *Metrics) RecordChat(duration time.Duration, completed bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatRuns++
	m.chatLatency += duration
	if !completed {
		m.chatAborted++
	}
}

// RecordModelFailure counts a failed call to the language model.
func (m *Metrics) RecordModelFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelFailures++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Requests:      copyCounts(m.requestCount),
		Errors:        copyCounts(m.errorCount),
		ToolCalls:     copyCounts(m.toolCalls),
		ToolFailures:  copyCounts(m.toolFailures),
		ChatRuns:      m.chatRuns,
		ChatAborted:   m.chatAborted,
		ModelFailures: m.modelFailures,
	}
	if m.chatRuns > 0 {
		s.ChatAvgMillis = (m.chatLatency / time.Duration(m.chatRuns)).Milliseconds()
	}
	return s
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
