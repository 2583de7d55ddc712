package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agenthands/concord/internal/config"
	"github.com/agenthands/concord/internal/core"
	"github.com/agenthands/concord/internal/core/model"
	"github.com/agenthands/concord/internal/extract"
	"github.com/agenthands/concord/internal/llm"
	"github.com/agenthands/concord/internal/pricing"
)

const serviceVersion = "1.0.0"

type Server struct {
	Config  *config.Config
	LLM     llm.Client
	Pricing *pricing.Calculator
}

func NewServer(cfg *config.Config, client llm.Client) *Server {
	return &Server{
		Config:  cfg,
		LLM:     client,
		Pricing: pricing.NewCalculator(cfg.Pricing),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/", s.Health)
	r.POST("/v1/completions", s.Completions)
	r.POST("/v1/chat/completions", s.ChatCompletions)
	r.POST("/v1/completions/pdf", s.CompletionsPDF)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "running",
		"service": "Agentic AI with Self-Consistency and Chain-of-Thought",
		"version": serviceVersion,
	})
}

type CompletionRequest struct {
	Prompt             string   `json:"prompt" binding:"required"`
	SystemPrompt       string   `json:"system_prompt"`
	NumSelfConsistency int      `json:"num_self_consistency"`
	NumCoT             int      `json:"num_cot"`
	Model              string   `json:"model"`
	Temperature        *float32 `json:"temperature"`
}

// applyDefaults fills unset tuning fields from configuration.
func (r *CompletionRequest) applyDefaults(cfg *config.Config) {
	if r.NumSelfConsistency == 0 {
		r.NumSelfConsistency = cfg.Reasoning.DefaultSamples
	}
	if r.NumCoT == 0 {
		r.NumCoT = cfg.Reasoning.DefaultSteps
	}
	if r.Model == "" {
		r.Model = "fast"
	}
	if r.Temperature == nil {
		t := float32(cfg.Reasoning.DefaultTemperature)
		r.Temperature = &t
	}
}

func (r *CompletionRequest) validate() error {
	if r.NumSelfConsistency < core.MinSamples || r.NumSelfConsistency > core.MaxSamples {
		return fmt.Errorf("num_self_consistency must be between %d and %d", core.MinSamples, core.MaxSamples)
	}
	if r.NumCoT < core.MinSteps || r.NumCoT > core.MaxSteps {
		return fmt.Errorf("num_cot must be between %d and %d", core.MinSteps, core.MaxSteps)
	}
	if r.Model != "fast" && r.Model != "slow" {
		return fmt.Errorf("model must be 'fast' or 'slow'")
	}
	if *r.Temperature < core.MinTemperature || *r.Temperature > core.MaxTemperature {
		return fmt.Errorf("temperature must be between %g and %g", core.MinTemperature, core.MaxTemperature)
	}
	return nil
}

type CompletionResponse struct {
	Prompt                 string                `json:"prompt"`
	ModelUsed              string                `json:"model_used"`
	ChainOfThought         []model.ReasoningStep `json:"chain_of_thought"`
	SelfConsistencySamples []model.Sample        `json:"self_consistency_samples"`
	PreliminaryAnswer      string                `json:"preliminary_answer"`
	FinalAnswer            string                `json:"final_answer"`
	ReflectionReasoning    string                `json:"reflection_reasoning"`
	ConfidenceScore        float64               `json:"confidence_score"`
	LLMConfidence          float64               `json:"llm_confidence"`
	AgreementConfidence    float64               `json:"agreement_confidence"`
	ReflectionConfidence   float64               `json:"reflection_confidence"`
	ReasoningSummary       string                `json:"reasoning_summary"`
	Usage                  model.Usage           `json:"usage"`
	Cost                   pricing.CostBreakdown `json:"cost"`
	ProcessingTimeMS       int64                 `json:"processing_time_ms"`
}

// run resolves the model tier, builds a pipeline for this request's tuning
// and executes it.
func (s *Server) run(c *gin.Context, req CompletionRequest) (*model.PipelineResult, string, error) {
	modelName := s.Config.ResolveModel(req.Model)

	pipeline := core.NewPipeline(s.LLM, modelName, *req.Temperature, s.Config.Reasoning.MaxOutputTokens)
	result, err := pipeline.Execute(c.Request.Context(), core.Request{
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		NumSamples:   req.NumSelfConsistency,
		NumSteps:     req.NumCoT,
	})
	return result, modelName, err
}

func (s *Server) buildResponse(req CompletionRequest, modelName string, result *model.PipelineResult) CompletionResponse {
	var primaryCoT []model.ReasoningStep
	if len(result.Samples) > 0 {
		primaryCoT = result.Samples[0].ReasoningPath
	}

	return CompletionResponse{
		Prompt:                 req.Prompt,
		ModelUsed:              modelName,
		ChainOfThought:         primaryCoT,
		SelfConsistencySamples: result.Samples,
		PreliminaryAnswer:      result.Consistency.PreliminaryAnswer,
		FinalAnswer:            result.Reflection.RefinedAnswer,
		ReflectionReasoning:    result.Reflection.Reasoning,
		ConfidenceScore:        result.Consistency.WeightedConfidence,
		LLMConfidence:          result.Consistency.LLMConfidence,
		AgreementConfidence:    result.Consistency.AgreementConfidence,
		ReflectionConfidence:   result.Reflection.Confidence,
		ReasoningSummary:       result.Consistency.Summary,
		Usage:                  result.Usage,
		Cost:                   s.Pricing.Cost(modelName, result.Usage),
		ProcessingTimeMS:       result.Elapsed.Milliseconds(),
	}
}

func (s *Server) Completions(c *gin.Context) {
	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	req.applyDefaults(s.Config)
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, modelName, err := s.run(c, req)
	if err != nil {
		log.Printf("Failed to process completion: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.buildResponse(req, modelName, result))
}

type ChatCompletionRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages" binding:"required"`
	NumSelfConsistency int      `json:"num_self_consistency"`
	NumCoT             int      `json:"num_cot"`
	Model              string   `json:"model"`
	Temperature        *float32 `json:"temperature"`
}

func (s *Server) ChatCompletions(c *gin.Context) {
	var chatReq ChatCompletionRequest
	if err := c.ShouldBindJSON(&chatReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	// The last user message is the prompt; a system message, when present,
	// becomes the system prompt.
	prompt := ""
	systemPrompt := ""
	for _, msg := range chatReq.Messages {
		switch msg.Role {
		case "user":
			prompt = msg.Content
		case "system":
			systemPrompt = msg.Content
		}
	}
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No user message found"})
		return
	}

	req := CompletionRequest{
		Prompt:             prompt,
		SystemPrompt:       systemPrompt,
		NumSelfConsistency: chatReq.NumSelfConsistency,
		NumCoT:             chatReq.NumCoT,
		Model:              chatReq.Model,
		Temperature:        chatReq.Temperature,
	}
	req.applyDefaults(s.Config)
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, modelName, err := s.run(c, req)
	if err != nil {
		log.Printf("Failed to process chat completion: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": err.Error()})
		return
	}

	var primaryCoT []model.ReasoningStep
	if len(result.Samples) > 0 {
		primaryCoT = result.Samples[0].ReasoningPath
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      "chatcmpl-" + uuid.New().String(),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   modelName,
		"choices": []gin.H{{
			"index": 0,
			"message": gin.H{
				"role":    "assistant",
				"content": result.Reflection.RefinedAnswer,
			},
			"finish_reason": "stop",
		}},
		"usage": result.Usage,
		"agentic_metadata": gin.H{
			"chain_of_thought":         primaryCoT,
			"self_consistency_samples": result.Samples,
			"preliminary_answer":       result.Consistency.PreliminaryAnswer,
			"confidence_score":         result.Consistency.WeightedConfidence,
			"llm_confidence":           result.Consistency.LLMConfidence,
			"agreement_confidence":     result.Consistency.AgreementConfidence,
			"reflection_confidence":    result.Reflection.Confidence,
			"reflection_reasoning":     result.Reflection.Reasoning,
			"reasoning_summary":        result.Consistency.Summary,
			"cost":                     s.Pricing.Cost(modelName, result.Usage),
			"processing_time_ms":       result.Elapsed.Milliseconds(),
		},
	})
}

// CompletionsPDF accepts a multipart PDF upload plus the usual tuning
// fields; the extracted text is prepended to the question before the
// pipeline runs.
func (s *Server) CompletionsPDF(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A PDF file is required in the 'file' field"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file", "details": err.Error()})
		return
	}
	defer file.Close()

	text, err := extract.PDFText(file)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to extract PDF text", "details": err.Error()})
		return
	}

	question := c.PostForm("prompt")
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt field is required"})
		return
	}

	req := CompletionRequest{
		Prompt:             fmt.Sprintf("Document content:\n\n%s\n\nQuestion: %s", text, question),
		SystemPrompt:       c.PostForm("system_prompt"),
		NumSelfConsistency: intForm(c, "num_self_consistency"),
		NumCoT:             intForm(c, "num_cot"),
		Model:              c.PostForm("model"),
	}
	if t, ok := floatForm(c, "temperature"); ok {
		req.Temperature = &t
	}
	req.applyDefaults(s.Config)
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, modelName, err := s.run(c, req)
	if err != nil {
		log.Printf("Failed to process pdf completion: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": err.Error()})
		return
	}

	resp := s.buildResponse(req, modelName, result)
	resp.Prompt = question
	c.JSON(http.StatusOK, resp)
}

func intForm(c *gin.Context, field string) int {
	v := 0
	fmt.Sscanf(c.PostForm(field), "%d", &v)
	return v
}

func floatForm(c *gin.Context, field string) (float32, bool) {
	raw := c.PostForm(field)
	if raw == "" {
		return 0, false
	}
	var v float32
	if _, err := fmt.Sscanf(raw, "%g", &v); err != nil {
		return 0, false
	}
	return v, true
}
