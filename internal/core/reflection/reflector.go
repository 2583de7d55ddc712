package reflection

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/concord/internal/core/common"
	"github.com/agenthands/concord/internal/core/model"
	"github.com/agenthands/concord/internal/llm"
)

const reflectionSystemPrompt = "You are an expert at synthesizing multiple reasoning paths into a refined answer."

// Reflector performs the final synthesis pass over every reasoning path.
type Reflector struct {
	LLM         llm.Client
	Model       string
	Temperature float32
	MaxTokens   int
}

func NewReflector(client llm.Client, modelName string, temperature float32, maxTokens int) *Reflector {
	return &Reflector{
		LLM:         client,
		Model:       modelName,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

type reflectionPayload struct {
	RefinedAnswer       string   `json:"refined_answer"`
	ReflectionReasoning string   `json:"reflection_reasoning"`
	Confidence          *float64 `json:"confidence"`
}

// Reflect issues one model call carrying the full transcript of every sample
// plus the preliminary consensus answer, and decodes a refined answer from
// the response. It never fails: any error at any stage collapses to the
// preliminary answer with confidence 50 and zero usage contributed.
func (r *Reflector) Reflect(ctx context.Context, prompt string, samples []model.Sample, preliminary, systemPrompt string) (model.ReflectionResult, model.Usage) {
	reflectionPrompt := buildPrompt(prompt, samples, preliminary, systemPrompt)

	resp, err := r.LLM.Chat(ctx, llm.ChatRequest{
		System:      reflectionSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: reflectionPrompt}},
		Model:       r.Model,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
	})
	if err != nil {
		return fallback(preliminary, fmt.Sprintf("Reflection failed: %v", err)), model.Usage{}
	}

	payload, perr := common.ParseJSON[reflectionPayload](resp.Content)
	if perr != nil {
		// A malformed payload is treated the same as a failed call: the
		// component contributes nothing, not even the tokens it burned.
		return fallback(preliminary, "Reflection parsing failed, using preliminary answer"), model.Usage{}
	}

	result := model.ReflectionResult{
		RefinedAnswer: payload.RefinedAnswer,
		Reasoning:     payload.ReflectionReasoning,
		Confidence:    50.0,
	}
	if result.RefinedAnswer == "" {
		result.RefinedAnswer = preliminary
	}
	if result.Reasoning == "" {
		result.Reasoning = "Reflection completed"
	}
	if payload.Confidence != nil {
		result.Confidence = common.ClampConfidence(*payload.Confidence)
	}
	return result, resp.Usage
}

func fallback(preliminary, reasoning string) model.ReflectionResult {
	return model.ReflectionResult{
		RefinedAnswer: preliminary,
		Reasoning:     reasoning,
		Confidence:    50.0,
	}
}

func buildPrompt(prompt string, samples []model.Sample, preliminary, systemPrompt string) string {
	var transcript strings.Builder
	for _, sample := range samples {
		fmt.Fprintf(&transcript, "\n=== Reasoning Path %d ===\n", sample.SampleNumber)
		for _, step := range sample.ReasoningPath {
			fmt.Fprintf(&transcript, "Step %d: %s\n", step.StepNumber, step.Reasoning)
			fmt.Fprintf(&transcript, "Conclusion: %s\n", step.IntermediateConclusion)
		}
		fmt.Fprintf(&transcript, "Final Answer: %s\n", sample.FinalAnswer)
		fmt.Fprintf(&transcript, "Confidence: %.0f%%\n", sample.LLMConfidence)
	}

	var sb strings.Builder
	sb.WriteString("You are analyzing multiple reasoning paths to produce a refined final answer.\n")
	if systemPrompt != "" {
		fmt.Fprintf(&sb, "\nSYSTEM CONTEXT:\n%s\n", systemPrompt)
	}
	fmt.Fprintf(&sb, "\nORIGINAL QUESTION:\n%s\n", prompt)
	fmt.Fprintf(&sb, "\nALL REASONING PATHS:\n%s\n", transcript.String())
	fmt.Fprintf(&sb, "\nPRELIMINARY ANSWER (most consistent):\n%s\n", preliminary)
	sb.WriteString(`
Based on all the reasoning paths above, provide:
1. A refined final answer that incorporates the best insights from all paths
2. Your reasoning for the refined answer
3. Your confidence level (0-100)

Return ONLY a JSON object in this exact format:
{"refined_answer": "your final answer", "reflection_reasoning": "your analysis", "confidence": 85}`)

	return sb.String()
}
