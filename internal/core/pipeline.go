package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agenthands/concord/internal/core/consistency"
	"github.com/agenthands/concord/internal/core/cot"
	"github.com/agenthands/concord/internal/core/model"
	"github.com/agenthands/concord/internal/core/reflection"
	"github.com/agenthands/concord/internal/llm"
)

// Bounds on request tuning. Out-of-range values are clamped, not rejected;
// the request boundary owns hard validation.
const (
	MinSamples = 1
	MaxSamples = 15
	MinSteps   = 1
	MaxSteps   = 10

	MinTemperature = 0.0
	MaxTemperature = 2.0
)

// Request carries one pipeline invocation. Executor is optional: a caller
// that owns a concurrent region passes its handle, otherwise the fan-out
// runs on a scoped group the orchestrator creates itself.
type Request struct {
	Prompt       string
	SystemPrompt string
	NumSamples   int
	NumSteps     int
	Executor     consistency.Executor
}

// Pipeline sequences the self-consistency fan-out, the vote and the
// reflection pass, and aggregates usage and wall-clock timing.
type Pipeline struct {
	Orchestrator *consistency.Orchestrator
	Reflector    *reflection.Reflector
}

func NewPipeline(client llm.Client, modelName string, temperature float32, maxTokens int) *Pipeline {
	temperature = clampTemperature(temperature)
	engine := cot.NewEngine(client, modelName, temperature, maxTokens)
	return &Pipeline{
		Orchestrator: consistency.NewOrchestrator(engine),
		Reflector:    reflection.NewReflector(client, modelName, temperature, maxTokens),
	}
}

// Execute runs the full pipeline. The only error it returns is an empty
// prompt; every failure past that point degrades inside the stage that hit
// it, per the fallback rules of the generator, orchestrator and reflector.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*model.PipelineResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt must not be empty")
	}

	start := time.Now()

	numSamples := clampInt(req.NumSamples, MinSamples, MaxSamples)
	numSteps := clampInt(req.NumSteps, MinSteps, MaxSteps)

	samples, usage := p.Orchestrator.Run(ctx, req.Prompt, req.SystemPrompt, numSamples, numSteps, req.Executor)
	if len(samples) == 0 {
		// Run only returns empty when numSamples <= 0, which the clamp
		// rules out. Keep a neutral result for that path anyway.
		return &model.PipelineResult{
			Consistency: model.ConsistencyResult{Summary: "No samples generated"},
			Reflection:  model.ReflectionResult{Reasoning: "No reasoning paths available to reflect on", Confidence: 0},
			Elapsed:     time.Since(start),
		}, nil
	}

	consistencyResult := p.Orchestrator.Vote(samples)
	reflectionResult, reflectionUsage := p.Reflector.Reflect(ctx, req.Prompt, samples, consistencyResult.PreliminaryAnswer, req.SystemPrompt)

	return &model.PipelineResult{
		Samples:     samples,
		Consistency: consistencyResult,
		Reflection:  reflectionResult,
		Usage:       usage.Add(reflectionUsage),
		Elapsed:     time.Since(start),
	}, nil
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampTemperature(t float32) float32 {
	if t < MinTemperature {
		return MinTemperature
	}
	if t > MaxTemperature {
		return MaxTemperature
	}
	return t
}
