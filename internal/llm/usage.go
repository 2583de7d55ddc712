package llm

import "github.com/agenthands/concord/internal/core/model"

// Provider SDKs report token usage in two historical shapes:
// prompt/completion (OpenAI-style) and input/output (Anthropic-style). Both
// are normalized here, at the adapter boundary, so nothing above this
// package ever branches on which shape a response used. Reported totals are
// ignored; the total is always rederived from the parts so the sum
// invariant holds even when a gateway disagrees with itself.

func usageFromPromptCompletion(prompt, completion int) model.Usage {
	return model.NewUsage(prompt, completion)
}

func usageFromInputOutput(input, output int) model.Usage {
	return model.NewUsage(input, output)
}
