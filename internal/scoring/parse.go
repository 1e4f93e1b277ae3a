package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// fitResponse is the accepted shape for a structured model reply.
type fitResponse struct {
	Score    *float64 `mapstructure:"score"`
	Response *float64 `mapstructure:"response"`
}

// ParseFitScore normalizes a model reply into a validated 0-100 score.
// Accepted inputs are a bare number or a JSON object carrying a numeric
// "score" (or "response") field, optionally wrapped in a code fence.
// Anything else is a parse failure.
func ParseFitScore(raw string) (int, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("empty fit score response")
	}

	if value, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return clampScore(value), nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return 0, fmt.Errorf("parse fit score response: %w", err)
	}

	var parsed fitResponse
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &parsed,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return 0, fmt.Errorf("build fit score decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return 0, fmt.Errorf("decode fit score response: %w", err)
	}

	switch {
	case parsed.Score != nil:
		return clampScore(*parsed.Score), nil
	case parsed.Response != nil:
		return clampScore(*parsed.Response), nil
	default:
		return 0, fmt.Errorf("fit score response has no numeric score field")
	}
}

func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}
