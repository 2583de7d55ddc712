package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeClient struct {
	client *anthropic.Client
}

func NewClaudeClient(apiKey string, baseURL string) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeClient{
		client: anthropic.NewClient(apiKey, opts...),
	}
}

func (c *ClaudeClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	messages := make([]anthropic.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := anthropic.RoleUser
		if m.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		messages = append(messages, anthropic.Message{
			Role: role,
			Content: []anthropic.MessageContent{
				anthropic.NewTextMessageContent(m.Content),
			},
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	request := anthropic.MessagesRequest{
		Model:       anthropic.Model(req.Model),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: &req.Temperature,
	}
	if req.System != "" {
		request.System = req.System
	}

	resp, err := c.client.CreateMessages(ctx, request)
	if err != nil {
		return ChatResponse{}, err
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		return ChatResponse{}, fmt.Errorf("no response content")
	}

	return ChatResponse{
		Content: *resp.Content[0].Text,
		Usage:   usageFromInputOutput(resp.Usage.InputTokens, resp.Usage.OutputTokens),
	}, nil
}
