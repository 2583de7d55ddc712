package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	gm := c.client.GenerativeModel(req.Model)
	gm.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		gm.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	// Gemini has no multi-message chat completion call with usage metadata;
	// the conversation is flattened into a single prompt part per message.
	parts := make([]genai.Part, 0, len(req.Messages))
	for _, m := range req.Messages {
		parts = append(parts, genai.Text(m.Content))
	}

	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return ChatResponse{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ChatResponse{}, fmt.Errorf("no response candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	out := ChatResponse{Content: sb.String()}
	if md := resp.UsageMetadata; md != nil {
		out.Usage = usageFromInputOutput(int(md.PromptTokenCount), int(md.CandidatesTokenCount))
	}
	return out, nil
}
