package pricing

import (
	"github.com/agenthands/concord/internal/config"
	"github.com/agenthands/concord/internal/core/model"
)

// CostBreakdown is the USD cost of a usage report under one model's rates.
// Known reports whether the model had a pricing entry; an unknown model
// yields a zero breakdown.
type CostBreakdown struct {
	Model          string  `json:"model"`
	PromptCost     float64 `json:"prompt_cost"`
	CompletionCost float64 `json:"completion_cost"`
	TotalCost      float64 `json:"total_cost"`
	Currency       string  `json:"currency"`
	Known          bool    `json:"known"`
}

// Calculator converts usage reports into costs. It is pure and stateless;
// rates come from configuration at construction.
type Calculator struct {
	rates map[string]config.ModelPricing
}

func NewCalculator(rates map[string]config.ModelPricing) *Calculator {
	return &Calculator{rates: rates}
}

func (c *Calculator) Cost(modelName string, usage model.Usage) CostBreakdown {
	breakdown := CostBreakdown{Model: modelName, Currency: "USD"}

	rate, ok := c.rates[modelName]
	if !ok {
		return breakdown
	}

	breakdown.Known = true
	breakdown.PromptCost = float64(usage.PromptTokens) / 1_000_000 * rate.PromptPerMillion
	breakdown.CompletionCost = float64(usage.CompletionTokens) / 1_000_000 * rate.CompletionPerMillion
	breakdown.TotalCost = breakdown.PromptCost + breakdown.CompletionCost
	return breakdown
}
