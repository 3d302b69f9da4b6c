package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CleanJSON strips markdown fences and leading prose from a model response
// so the remainder can be unmarshalled. Models asked for "JSON only" still
// occasionally wrap the document in ```json fences or preface it with a
// sentence of chatter.
func CleanJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	// Trim prose before the first JSON value.
	if idx := strings.IndexAny(content, "{["); idx > 0 {
		prefix := content[:idx]
		if !strings.ContainsAny(prefix, "{[") {
			content = content[idx:]
		}
	}

	// Trim trailing prose after the matching close delimiter.
	if end := lastBalanced(content); end > 0 {
		content = content[:end]
	}

	return strings.TrimSpace(content)
}

// lastBalanced returns the index just past the close delimiter matching the
// first open delimiter, or -1 when the document never balances. String
// literals are respected so braces inside values do not confuse the scan.
func lastBalanced(s string) int {
	if s == "" {
		return -1
	}
	var open, close byte
	switch s[0] {
	case '{':
		open, close = '{', '}'
	case '[':
		open, close = '[', ']'
	default:
		return -1
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// MustSchema compiles an embedded JSON schema, panicking on programmer error.
// Schemas are package-level constants, so a failure here is a build defect,
// not a runtime condition.
func MustSchema(name, schema string) *jsonschema.Schema {
	compiled, err := jsonschema.CompileString(name, schema)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return compiled
}

// DecodeVerdict cleans a model response, validates it against the given
// schema and unmarshals it into v. A response that cannot be parsed or does
// not conform is a MalformedResponse at the collaborator boundary: the error
// carries the raw content so the caller can capture it into the stage result.
func DecodeVerdict(content string, schema *jsonschema.Schema, v any) error {
	cleaned := CleanJSON(content)
	if cleaned == "" {
		return fmt.Errorf("empty response")
	}

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return fmt.Errorf("parse verdict: %w", err)
	}
	if schema != nil {
		if err := schema.Validate(doc); err != nil {
			return fmt.Errorf("verdict does not match schema: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("decode verdict: %w", err)
	}
	return nil
}

// Clamp01 clamps a numeric signal into [0,1]. Model-reported scores and
// confidences must satisfy the report invariant regardless of what the
// collaborator returned.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
