package model

import "time"

// ReasoningStep is one step in a chain-of-thought path. Steps are numbered
// contiguously from 1 and never mutated after construction.
type ReasoningStep struct {
	StepNumber             int    `json:"step_number"`
	Reasoning              string `json:"reasoning"`
	IntermediateConclusion string `json:"intermediate_conclusion"`
}

// Sample is one complete independent reasoning attempt: an ordered step
// sequence plus the final answer and the model's self-reported confidence
// (0-100).
type Sample struct {
	SampleNumber  int             `json:"sample_number"`
	ReasoningPath []ReasoningStep `json:"reasoning_path"`
	FinalAnswer   string          `json:"final_answer"`
	LLMConfidence float64         `json:"llm_confidence"`
}

// ConsistencyResult is the outcome of majority voting over a sample set. It
// is derived state, recomputable from the samples at any time.
type ConsistencyResult struct {
	PreliminaryAnswer   string  `json:"preliminary_answer"`
	LLMConfidence       float64 `json:"llm_confidence"`       // 0-100, mean over majority samples
	AgreementConfidence float64 `json:"agreement_confidence"` // 0-100, majority share
	WeightedConfidence  float64 `json:"weighted_confidence"`  // 0-1, LLMConfidence / 100
	Summary             string  `json:"summary"`
}

// ReflectionResult is the outcome of the final synthesis pass over all paths.
type ReflectionResult struct {
	RefinedAnswer string  `json:"refined_answer"`
	Reasoning     string  `json:"reflection_reasoning"`
	Confidence    float64 `json:"confidence"`
}

// PipelineResult bundles everything one pipeline execution produced.
type PipelineResult struct {
	Samples     []Sample          `json:"samples"`
	Consistency ConsistencyResult `json:"consistency"`
	Reflection  ReflectionResult  `json:"reflection"`
	Usage       Usage             `json:"usage"`
	Elapsed     time.Duration     `json:"elapsed"`
}
