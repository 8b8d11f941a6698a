package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/synod-io/synod/internal/models"
)

// Model output parsing is deliberately forgiving: models wrap JSON in
// code fences, prepend prose, or both. The chain is strict parse, then
// fence stripping, then a greedy first-to-last-brace match. Callers
// fall back to a documented default when all of it fails; parsing
// never returns an error to the pipeline.

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// StripFences removes a leading ```json / ``` marker and a trailing
// ``` marker from the text.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// ExtractObject parses a JSON object out of model output. It tries a
// direct parse of the fence-stripped text first, then falls back to
// the outermost brace-delimited substring.
func ExtractObject(text string) (map[string]interface{}, bool) {
	stripped := StripFences(text)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(stripped), &obj); err == nil {
		return obj, true
	}

	if match := jsonObject.FindString(stripped); match != "" {
		if err := json.Unmarshal([]byte(match), &obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

// TryParseToolCall detects the tool-call convention
// {"action": "call_tool", "tool": ..., "args": {...}} in model output.
// Only output that is entirely a JSON object counts; prose around a
// JSON snippet is a terminal answer, not a tool call.
func TryParseToolCall(text string) (*models.ToolCallRequest, bool) {
	trimmed := strings.TrimSpace(StripFences(text))
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return nil, false
	}

	var probe struct {
		Action string                 `json:"action"`
		Tool   string                 `json:"tool"`
		Args   map[string]interface{} `json:"args"`
	}
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return nil, false
	}
	if probe.Action != "call_tool" || probe.Tool == "" {
		return nil, false
	}

	args := probe.Args
	if args == nil {
		args = map[string]interface{}{}
	}
	return &models.ToolCallRequest{Tool: probe.Tool, Args: args}, true
}

// Helpers for reading loosely typed fields out of extracted objects.

// StringField reads obj[key] as a string.
func StringField(obj map[string]interface{}, key string) (string, bool) {
	v, ok := obj[key].(string)
	return v, ok
}

// FloatField reads obj[key] as a float64, accepting integers.
func FloatField(obj map[string]interface{}, key string) (float64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// BoolField reads obj[key] as a bool.
func BoolField(obj map[string]interface{}, key string) (bool, bool) {
	v, ok := obj[key].(bool)
	return v, ok
}

// StringSliceField reads obj[key] as a list of strings, skipping
// non-string elements.
func StringSliceField(obj map[string]interface{}, key string) []string {
	raw, ok := obj[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// FloatMapField reads obj[key] as a string-to-number map.
func FloatMapField(obj map[string]interface{}, key string) map[string]float64 {
	raw, ok := obj[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}
