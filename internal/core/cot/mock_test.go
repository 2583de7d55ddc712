package cot

import (
	"context"
	"sync"

	"github.com/agenthands/concord/internal/llm"
)

// mockClient scripts responses per call and records every request.
type mockClient struct {
	mu      sync.Mutex
	calls   []llm.ChatRequest
	respond func(call int, req llm.ChatRequest) (llm.ChatResponse, error)
}

func (m *mockClient) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := len(m.calls)
	m.calls = append(m.calls, req)
	return m.respond(call, req)
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockClient) request(i int) llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}
