package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/concord/internal/config"
	"github.com/agenthands/concord/internal/core/model"
	"github.com/agenthands/concord/internal/llm"
)

// cannedClient drives the pipeline end-to-end through the handlers.
type cannedClient struct {
	mu    sync.Mutex
	calls int
}

func (c *cannedClient) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	content := req.Messages[0].Content
	switch {
	case strings.Contains(content, "ALL REASONING PATHS"):
		return llm.ChatResponse{
			Content: `{"refined_answer": "Paris", "reflection_reasoning": "all paths agree", "confidence": 97}`,
			Usage:   model.NewUsage(40, 10),
		}, nil
	case strings.Contains(content, "Based on the above chain of reasoning"):
		return llm.ChatResponse{
			Content: `{"answer": "Paris", "confidence": 90}`,
			Usage:   model.NewUsage(20, 5),
		}, nil
	default:
		return llm.ChatResponse{
			Content: `{"reasoning": "capital cities", "intermediate_conclusion": "it is Paris"}`,
			Usage:   model.NewUsage(10, 5),
		}, nil
	}
}

func testRouter() (*gin.Engine, *cannedClient) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	client := &cannedClient{}
	return NewServer(cfg, client).SetupRouter(), client
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")
}

func TestCompletions_HappyPath(t *testing.T) {
	r, client := testRouter()

	w := postJSON(t, r, "/v1/completions", map[string]interface{}{
		"prompt":               "What is the capital of France?",
		"num_self_consistency": 3,
		"num_cot":              2,
		"model":                "fast",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp CompletionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "Paris", resp.FinalAnswer)
	assert.Equal(t, "gpt-4o-mini", resp.ModelUsed)
	assert.Len(t, resp.SelfConsistencySamples, 3)
	assert.Len(t, resp.ChainOfThought, 2)
	assert.Equal(t, 100.0, resp.AgreementConfidence)
	assert.Equal(t, 97.0, resp.ReflectionConfidence)
	// 3 samples × (2 steps + 1 final) + 1 reflection
	assert.Equal(t, 10, client.calls)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	assert.True(t, resp.Cost.Known)
}

func TestCompletions_MissingPrompt(t *testing.T) {
	r, _ := testRouter()
	w := postJSON(t, r, "/v1/completions", map[string]interface{}{
		"num_self_consistency": 3,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompletions_SampleCountOutOfRange(t *testing.T) {
	r, _ := testRouter()
	w := postJSON(t, r, "/v1/completions", map[string]interface{}{
		"prompt":               "q",
		"num_self_consistency": 16,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "num_self_consistency")
}

func TestCompletions_StepCountOutOfRange(t *testing.T) {
	r, _ := testRouter()
	w := postJSON(t, r, "/v1/completions", map[string]interface{}{
		"prompt":  "q",
		"num_cot": 11,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompletions_BadModelTier(t *testing.T) {
	r, _ := testRouter()
	w := postJSON(t, r, "/v1/completions", map[string]interface{}{
		"prompt": "q",
		"model":  "medium",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompletions_TemperatureOutOfRange(t *testing.T) {
	r, _ := testRouter()
	w := postJSON(t, r, "/v1/completions", map[string]interface{}{
		"prompt":      "q",
		"temperature": 3.5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompletions_DefaultsApplied(t *testing.T) {
	r, client := testRouter()

	w := postJSON(t, r, "/v1/completions", map[string]interface{}{"prompt": "q"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp CompletionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// Config defaults: 3 samples, 1 step → 3×2 + 1 calls.
	assert.Len(t, resp.SelfConsistencySamples, 3)
	assert.Equal(t, 7, client.calls)
}

func TestChatCompletions_UsesLastUserMessage(t *testing.T) {
	r, _ := testRouter()

	w := postJSON(t, r, "/v1/chat/completions", map[string]interface{}{
		"messages": []map[string]string{
			{"role": "system", "content": "be brief"},
			{"role": "user", "content": "ignored earlier question"},
			{"role": "user", "content": "What is the capital of France?"},
		},
		"num_self_consistency": 2,
		"num_cot":              1,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "chat.completion", resp["object"])
	assert.True(t, strings.HasPrefix(resp["id"].(string), "chatcmpl-"))

	choices := resp["choices"].([]interface{})
	message := choices[0].(map[string]interface{})["message"].(map[string]interface{})
	assert.Equal(t, "Paris", message["content"])

	meta := resp["agentic_metadata"].(map[string]interface{})
	assert.Equal(t, 100.0, meta["agreement_confidence"])
	samples := meta["self_consistency_samples"].([]interface{})
	assert.Len(t, samples, 2)
}

func TestChatCompletions_NoUserMessage(t *testing.T) {
	r, _ := testRouter()
	w := postJSON(t, r, "/v1/chat/completions", map[string]interface{}{
		"messages": []map[string]string{
			{"role": "system", "content": "be brief"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompletionsPDF_MissingFile(t *testing.T) {
	r, _ := testRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/completions/pdf", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
