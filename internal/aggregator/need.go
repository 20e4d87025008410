package aggregator

import "encoding/json"

// needStrategy extracts the free-text need from one historical find_tools
// call shape. Strategies are tried in order; the first that matches wins,
// even when it yields a blank need.
type needStrategy struct {
	name    string
	extract func(args any) (string, bool)
}

// needStrategies covers every call shape hosts have been observed to send,
// in fixed precedence order.
var needStrategies = []needStrategy{
	{
		name: "raw string",
		extract: func(args any) (string, bool) {
			s, ok := args.(string)
			return s, ok
		},
	},
	{
		name: "need field",
		extract: func(args any) (string, bool) {
			return stringField(args, "need")
		},
	},
	{
		name: "nested under input",
		extract: func(args any) (string, bool) {
			return nestedNeed(args, "input")
		},
	},
	{
		name: "nested under args",
		extract: func(args any) (string, bool) {
			return nestedNeed(args, "args")
		},
	},
	{
		name: "nested under parameters",
		extract: func(args any) (string, bool) {
			return nestedNeed(args, "parameters")
		},
	},
	{
		name: "nested under toolInput",
		extract: func(args any) (string, bool) {
			return nestedNeed(args, "toolInput")
		},
	},
	{
		name: "JSON-encoded arguments",
		extract: func(args any) (string, bool) {
			raw, ok := stringField(args, "arguments")
			if !ok {
				return "", false
			}

			var decoded any
			if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
				return "", false
			}
			if s, ok := decoded.(string); ok {
				return s, true
			}

			return stringField(decoded, "need")
		},
	},
}

// extractNeed resolves the need text and reports which strategy matched.
// No strategy matching resolves to a blank need.
func extractNeed(args any) (string, string) {
	for _, strategy := range needStrategies {
		if need, ok := strategy.extract(args); ok {
			return need, strategy.name
		}
	}

	return "", "none"
}

// stringField returns the named string field of a map-shaped value.
func stringField(v any, key string) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}

	s, ok := m[key].(string)

	return s, ok
}

// nestedNeed handles hosts that wrap their payload under an envelope key:
// the wrapped value may be the need itself or an object carrying one.
func nestedNeed(args any, key string) (string, bool) {
	m, ok := args.(map[string]any)
	if !ok {
		return "", false
	}

	wrapped, ok := m[key]
	if !ok {
		return "", false
	}

	if s, ok := wrapped.(string); ok {
		return s, true
	}

	return stringField(wrapped, "need")
}
