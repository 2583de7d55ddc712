package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsageShapes_NormalizeIdentically(t *testing.T) {
	// The two historical reporting shapes must collapse into the same
	// value type with the same invariant.
	fromOpenAI := usageFromPromptCompletion(120, 30)
	fromAnthropic := usageFromInputOutput(120, 30)

	assert.Equal(t, fromOpenAI, fromAnthropic)
	assert.Equal(t, 150, fromOpenAI.TotalTokens)
	assert.Equal(t, fromOpenAI.PromptTokens+fromOpenAI.CompletionTokens, fromOpenAI.TotalTokens)
}

func TestUsageShapes_MissingCountsAreZero(t *testing.T) {
	u := usageFromInputOutput(0, 0)
	assert.Equal(t, 0, u.TotalTokens)
}
