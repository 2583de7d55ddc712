package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractFencedBlock returns the interior of the first fenced code block in
// the response (```json ... ``` or plain ``` ... ```). If no complete fence
// exists the response is returned unchanged.
func ExtractFencedBlock(response string) string {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(response, fence)
		if start == -1 {
			continue
		}
		start += len(fence)
		end := strings.Index(response[start:], "```")
		if end == -1 {
			continue
		}
		return strings.TrimSpace(response[start : start+end])
	}
	return strings.TrimSpace(response)
}

// ParseJSON cleans and unmarshals an LLM response into a type T.
// It handles common LLM quirks: surrounding markdown fences and extra prose
// around the JSON object.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	jsonStr := ExtractFencedBlock(response)

	// Narrow to the outermost object if the model wrapped it in prose.
	start := strings.Index(jsonStr, "{")
	end := strings.LastIndex(jsonStr, "}")
	if start == -1 {
		return zero, fmt.Errorf("no JSON object found in response (missing '{')")
	}
	if end > start {
		jsonStr = jsonStr[start : end+1]
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return result, nil
}

// SplitFirstLine splits raw text into its first line and the remainder, the
// heuristic fallback when a step response carries no structured payload.
// When there is no remainder the first line is repeated.
func SplitFirstLine(content string) (first, rest string) {
	first, rest, found := strings.Cut(content, "\n")
	first = strings.TrimSpace(first)
	rest = strings.TrimSpace(rest)
	if !found || rest == "" {
		rest = first
	}
	return first, rest
}

// ClampConfidence forces a confidence value into [0, 100].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
