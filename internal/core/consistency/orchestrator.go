package consistency

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/concord/internal/core/cot"
	"github.com/agenthands/concord/internal/core/model"
)

// Executor runs tasks concurrently and joins on all of them. *errgroup.Group
// satisfies it; a caller that already owns a concurrent region passes its
// group in, anyone else passes nil and the orchestrator creates and owns a
// scoped one. The orchestrator never inspects ambient scheduling state.
type Executor interface {
	Go(f func() error)
	Wait() error
}

// Orchestrator fans out independent reasoning paths and votes on their
// answers.
type Orchestrator struct {
	Engine *cot.Engine
}

func NewOrchestrator(engine *cot.Engine) *Orchestrator {
	return &Orchestrator{Engine: engine}
}

// Run generates numSamples complete reasoning paths concurrently and blocks
// until every one has finished. Paths share no mutable state; each writes
// only its own slot, and usage is summed serially after the join. Failures
// inside a path degrade to fallback content, so exactly numSamples samples
// come back whenever numSamples > 0.
func (o *Orchestrator) Run(ctx context.Context, prompt, systemPrompt string, numSamples, numSteps int, exec Executor) ([]model.Sample, model.Usage) {
	if numSamples <= 0 {
		return nil, model.Usage{}
	}

	if exec == nil {
		exec = new(errgroup.Group)
	}

	samples := make([]model.Sample, numSamples)
	usages := make([]model.Usage, numSamples)

	for i := 0; i < numSamples; i++ {
		i := i
		exec.Go(func() error {
			samples[i], usages[i] = o.generateSample(ctx, i+1, prompt, systemPrompt, numSteps)
			return nil
		})
	}

	// Barrier: no partial aggregation, no cancellation of stragglers.
	_ = exec.Wait()

	var total model.Usage
	for _, u := range usages {
		total = total.Add(u)
	}
	return samples, total
}

func (o *Orchestrator) generateSample(ctx context.Context, sampleNum int, prompt, systemPrompt string, numSteps int) (model.Sample, model.Usage) {
	steps, stepUsage := o.Engine.GenerateSteps(ctx, prompt, systemPrompt, numSteps)

	answer, confidence, answerUsage, err := o.Engine.GenerateFinalAnswer(ctx, prompt, steps, systemPrompt)
	if err != nil {
		// The sample still exists so the barrier and the vote stay total.
		answer = fmt.Sprintf("Error generating final answer: %v", err)
		confidence = 0
	}

	return model.Sample{
		SampleNumber:  sampleNum,
		ReasoningPath: steps,
		FinalAnswer:   answer,
		LLMConfidence: confidence,
	}, stepUsage.Add(answerUsage)
}

// ExtractKeyAnswer normalizes a free-text answer into the key used for
// voting: whitespace runs collapsed, first non-empty sentence, lowercased.
// The function is idempotent.
func ExtractKeyAnswer(answer string) string {
	collapsed := strings.Join(strings.Fields(answer), " ")

	for _, sentence := range strings.Split(collapsed, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" {
			return strings.ToLower(sentence)
		}
	}
	return strings.ToLower(strings.TrimSpace(collapsed))
}

// Vote counts normalized answers across the samples and derives the
// consensus. Ties are broken deterministically in favor of the key first
// encountered while scanning samples in sample-number order. The preliminary
// answer is the unnormalized text of the first sample matching the majority
// key.
func (o *Orchestrator) Vote(samples []model.Sample) model.ConsistencyResult {
	if len(samples) == 0 {
		return model.ConsistencyResult{Summary: "No samples generated"}
	}

	counts := make(map[string]int, len(samples))
	var order []string
	for _, s := range samples {
		key := ExtractKeyAnswer(s.FinalAnswer)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	majorityKey := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[majorityKey] {
			majorityKey = key
		}
	}

	agreement := float64(counts[majorityKey]) / float64(len(samples)) * 100.0

	var confidenceSum float64
	var matching int
	preliminary := ""
	for _, s := range samples {
		if ExtractKeyAnswer(s.FinalAnswer) != majorityKey {
			continue
		}
		if matching == 0 {
			preliminary = s.FinalAnswer
		}
		confidenceSum += s.LLMConfidence
		matching++
	}

	llmConfidence := 50.0
	if matching > 0 {
		llmConfidence = confidenceSum / float64(matching)
	}

	return model.ConsistencyResult{
		PreliminaryAnswer:   preliminary,
		LLMConfidence:       llmConfidence,
		AgreementConfidence: agreement,
		WeightedConfidence:  llmConfidence / 100.0,
		Summary:             voteSummary(len(samples), len(order), llmConfidence, agreement),
	}
}

func voteSummary(sampleCount, distinct int, llmConfidence, agreement float64) string {
	parts := []string{
		fmt.Sprintf("Generated %d independent reasoning paths.", sampleCount),
		fmt.Sprintf("LLM confidence: %.1f%% (Agreement: %.1f%%)", llmConfidence, agreement),
	}
	if distinct > 1 {
		parts = append(parts, fmt.Sprintf("Found %d distinct answer patterns.", distinct))
	} else {
		parts = append(parts, "All reasoning paths converged to the same answer.")
	}
	return strings.Join(parts, " ")
}
