package graphql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("expected object, got null")
	}
	return out, nil
}

// field returns the raw payload for key, reporting whether the key was present
// and whether its value was null.
func field(data map[string]json.RawMessage, key string) (json.RawMessage, bool, bool) {
	raw, ok := data[key]
	if !ok {
		return nil, false, false
	}
	return raw, true, isNull(raw)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseIntAny(v any) (int, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	f, ok := parseFloatAny(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

func floatField(obj map[string]any, key string) float64 {
	f, _ := parseFloatAny(obj[key])
	return f
}

func intField(obj map[string]any, key string) int {
	i, _ := parseIntAny(obj[key])
	return i
}

func stringField(obj map[string]any, key string) string {
	switch t := obj[key].(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func boolField(obj map[string]any, key string) bool {
	b, _ := obj[key].(bool)
	return b
}

func optionalFloat(obj map[string]any, key string) *float64 {
	f, ok := parseFloatAny(obj[key])
	if !ok {
		return nil
	}
	return &f
}

func optionalInt(obj map[string]any, key string) *int {
	i, ok := parseIntAny(obj[key])
	if !ok {
		return nil
	}
	return &i
}

func optionalString(obj map[string]any, key string) *string {
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
