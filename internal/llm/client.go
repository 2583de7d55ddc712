package llm

import (
	"context"

	"github.com/agenthands/concord/internal/core/model"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry in a chat exchange.
type Message struct {
	Role    string
	Content string
}

// ChatRequest describes a single model invocation. System is optional.
type ChatRequest struct {
	System      string
	Messages    []Message
	Model       string
	Temperature float32
	MaxTokens   int
}

// ChatResponse carries the free-text content and the normalized token usage
// of one invocation. Content is not guaranteed to be well-formed JSON;
// callers decode it through the fallback chain in internal/core/common.
type ChatResponse struct {
	Content string
	Usage   model.Usage
}

// Client is the model invocation interface. Implementations must be
// stateless per call and safe for many concurrent outstanding requests.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
