package advisor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wattplan/wattplan/internal/engine"
)

// flexFloat decodes numbers that models emit as numbers, quoted strings,
// or garbage. Anything unparseable becomes zero rather than an error.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

type suggestionPayload struct {
	Plan       map[string]dayPayload `json:"plan"`
	DeviceTips map[string]string     `json:"deviceTips"`
}

type dayPayload struct {
	Devices   map[string]devicePayload `json:"devices"`
	TotalCost flexFloat                `json:"totalCost"`
}

type devicePayload struct {
	Hours flexFloat `json:"hours"`
	Cost  flexFloat `json:"cost"`
}

// ParseSuggestion extracts and decodes the proposal from raw model output.
// Missing days and devices are simply absent from the proposal (the engine
// substitutes zero); only a response with no JSON at all is an error.
func ParseSuggestion(response string) (*Suggestion, error) {
	raw, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var payload suggestionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decoding proposal payload: %w", err)
	}

	proposal := make(engine.Proposal, len(payload.Plan))
	for key, day := range payload.Plan {
		idx := dayIndex(key)
		if idx <= 0 {
			continue
		}
		hours := make(map[string]float64, len(day.Devices))
		for id, dev := range day.Devices {
			if h := float64(dev.Hours); h > 0 {
				hours[id] = h
			}
		}
		proposal[idx] = hours
	}

	return &Suggestion{Proposal: proposal, DeviceTips: payload.DeviceTips}, nil
}

// dayIndex parses keys like "day12"; returns 0 for anything else
func dayIndex(key string) int {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.TrimPrefix(k, "day")
	n, err := strconv.Atoi(strings.TrimSpace(k))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// extractJSON pulls a JSON object out of model output that may be wrapped
// in markdown fences or surrounded by prose
func extractJSON(response string) (string, error) {
	// Prefer a fenced block when present.
	if idx := strings.Index(response, "```"); idx >= 0 {
		rest := response[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			if candidate := sliceBalanced(rest[:end]); candidate != "" {
				return candidate, nil
			}
		}
	}

	if candidate := sliceBalanced(response); candidate != "" {
		return candidate, nil
	}
	return "", fmt.Errorf("no JSON object found in model response")
}

// sliceBalanced returns the first brace-balanced JSON object in s that
// actually decodes, or ""
func sliceBalanced(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate
				}
				return ""
			}
		}
	}
	return ""
}
