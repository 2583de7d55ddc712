package cot

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/concord/internal/core/common"
	"github.com/agenthands/concord/internal/core/model"
	"github.com/agenthands/concord/internal/llm"
)

const stepSystemPrompt = `You are an expert reasoning assistant. Break down complex problems
into clear, logical steps. For each step, provide:
1. The reasoning for this step
2. An intermediate conclusion

Return your response as JSON with keys: 'reasoning' and 'intermediate_conclusion'`

const finalSystemPrompt = "You are a helpful assistant that synthesizes reasoning steps into clear answers with confidence scores."

// Engine generates chain-of-thought reasoning over a model client. One Engine
// is safe for concurrent use; it holds no per-call state.
type Engine struct {
	LLM         llm.Client
	Model       string
	Temperature float32
	MaxTokens   int
}

func NewEngine(client llm.Client, modelName string, temperature float32, maxTokens int) *Engine {
	return &Engine{
		LLM:         client,
		Model:       modelName,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

type stepPayload struct {
	Reasoning              string `json:"reasoning"`
	IntermediateConclusion string `json:"intermediate_conclusion"`
}

type answerPayload struct {
	Answer     string   `json:"answer"`
	Confidence *float64 `json:"confidence"`
}

// GenerateSteps produces numSteps reasoning steps sequentially, each step
// conditioned on the transcript of every step before it. A failed model call
// degrades to a fallback step recording the error; generation never aborts,
// so the result always holds exactly numSteps steps numbered from 1.
func (e *Engine) GenerateSteps(ctx context.Context, prompt, systemPrompt string, numSteps int) ([]model.ReasoningStep, model.Usage) {
	steps := make([]model.ReasoningStep, 0, numSteps)
	var usage model.Usage

	for stepNum := 1; stepNum <= numSteps; stepNum++ {
		instruction := stepInstruction(prompt, steps, stepNum, numSteps)

		resp, err := e.LLM.Chat(ctx, llm.ChatRequest{
			System:      stepSystemPrompt,
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: withSystemContext(systemPrompt, instruction)}},
			Model:       e.Model,
			Temperature: e.Temperature,
			MaxTokens:   e.MaxTokens,
		})
		if err != nil {
			steps = append(steps, model.ReasoningStep{
				StepNumber:             stepNum,
				Reasoning:              fmt.Sprintf("Error in step generation: %v", err),
				IntermediateConclusion: "Unable to generate conclusion for this step",
			})
			continue
		}

		usage = usage.Add(resp.Usage)
		steps = append(steps, decodeStep(stepNum, resp.Content))
	}

	return steps, usage
}

// GenerateFinalAnswer asks for a conclusive answer plus a self-reported
// confidence (0-100) conditioned on the full step transcript. A transport
// failure is returned to the caller; a malformed payload is not an error —
// the raw text becomes the answer and confidence defaults to 50.
func (e *Engine) GenerateFinalAnswer(ctx context.Context, prompt string, steps []model.ReasoningStep, systemPrompt string) (string, float64, model.Usage, error) {
	var transcript strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&transcript, "Step %d: %s\nConclusion: %s\n", s.StepNumber, s.Reasoning, s.IntermediateConclusion)
	}

	finalPrompt := fmt.Sprintf(`Original question: %s

Reasoning steps:
%s
Based on the above chain of reasoning, provide:
1. A clear, concise final answer to the original question
2. Your confidence level (0-100) considering:
   - Strength and validity of your reasoning
   - Certainty in your conclusion
   - Any ambiguities, assumptions, or limitations

Return ONLY a JSON object in this exact format:
{"answer": "your final answer here", "confidence": 85}`, prompt, transcript.String())

	resp, err := e.LLM.Chat(ctx, llm.ChatRequest{
		System:      finalSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: withSystemContext(systemPrompt, finalPrompt)}},
		Model:       e.Model,
		Temperature: e.Temperature,
		MaxTokens:   e.MaxTokens,
	})
	if err != nil {
		return "", 0, model.Usage{}, err
	}

	content := common.ExtractFencedBlock(resp.Content)
	payload, perr := common.ParseJSON[answerPayload](content)
	if perr != nil || payload.Answer == "" {
		return content, 50.0, resp.Usage, nil
	}

	confidence := 50.0
	if payload.Confidence != nil {
		confidence = common.ClampConfidence(*payload.Confidence)
	}
	return payload.Answer, confidence, resp.Usage, nil
}

// stepInstruction embeds the full prior transcript so that step k is causally
// conditioned on steps 1..k-1. The last step of a multi-step chain is asked
// to synthesize rather than extend.
func stepInstruction(prompt string, prior []model.ReasoningStep, stepNum, numSteps int) string {
	context := fmt.Sprintf("Original question: %s\n\n", prompt)

	if stepNum == 1 {
		return fmt.Sprintf("%sGenerate step %d of %d reasoning steps. What is the first thing we need to consider or break down?", context, stepNum, numSteps)
	}

	var previous strings.Builder
	for i, s := range prior {
		if i > 0 {
			previous.WriteString("\n")
		}
		fmt.Fprintf(&previous, "Step %d: %s → %s", s.StepNumber, s.Reasoning, s.IntermediateConclusion)
	}

	if stepNum == numSteps {
		return fmt.Sprintf("%sPrevious steps:\n%s\n\nGenerate the final step %d of %d. Synthesize the previous steps and provide a conclusive reasoning.", context, previous.String(), stepNum, numSteps)
	}
	return fmt.Sprintf("%sPrevious steps:\n%s\n\nGenerate step %d of %d. Build upon the previous reasoning.", context, previous.String(), stepNum, numSteps)
}

// decodeStep runs the fenced-block / strict-parse / first-line-split chain
// over a raw step response.
func decodeStep(stepNum int, raw string) model.ReasoningStep {
	content := common.ExtractFencedBlock(raw)

	payload, err := common.ParseJSON[stepPayload](content)
	if err != nil {
		reasoning, conclusion := common.SplitFirstLine(content)
		return model.ReasoningStep{
			StepNumber:             stepNum,
			Reasoning:              reasoning,
			IntermediateConclusion: conclusion,
		}
	}

	if payload.Reasoning == "" {
		payload.Reasoning = content
	}
	return model.ReasoningStep{
		StepNumber:             stepNum,
		Reasoning:              payload.Reasoning,
		IntermediateConclusion: payload.IntermediateConclusion,
	}
}

func withSystemContext(systemPrompt, instruction string) string {
	if systemPrompt == "" {
		return instruction
	}
	return fmt.Sprintf("SYSTEM CONTEXT:\n%s\n\n%s", systemPrompt, instruction)
}
