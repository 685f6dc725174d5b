package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// recoveryStage turns model output into a JSON object or reports that it
// could not.
type recoveryStage struct {
	name string
	fn   func(text string) (map[string]any, bool)
}

// Stages are ordered from exact to most invasive. CompleteJSON runs the
// first one on its own and falls back to the rest.
var recoveryStages = []recoveryStage{
	{name: "exact", fn: parseObject},
	{name: "extract", fn: extractObject},
	{name: "repair", fn: repairObject},
}

var (
	objectSpanRe    = regexp.MustCompile(`\{[\s\S]*\}`)
	controlCharsRe  = regexp.MustCompile(`[\x00-\x1F]+`)
	trailingObjRe   = regexp.MustCompile(`,\s*}`)
	trailingArrRe   = regexp.MustCompile(`,\s*]`)
	bareKeyRe       = regexp.MustCompile(`(\{|,)\s*([A-Za-z0-9_]+)\s*:`)
	bareKeyReplaced = `$1 "$2":`
)

// Recover tries every recovery stage in order and returns the first object
// produced, along with the name of the stage that produced it.
func Recover(text string) (map[string]any, string, bool) {
	return recoverFrom(recoveryStages, text)
}

func recoverFrom(stages []recoveryStage, text string) (map[string]any, string, bool) {
	for _, st := range stages {
		if out, ok := st.fn(text); ok {
			return out, st.name, true
		}
	}
	return nil, "", false
}

// parseObject accepts only a JSON object; arrays, scalars and null fail.
func parseObject(text string) (map[string]any, bool) {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, false
	}
	if out == nil {
		return nil, false
	}
	return out, true
}

// extractObject parses the span from the first '{' to the last '}'.
func extractObject(text string) (map[string]any, bool) {
	span := objectSpanRe.FindString(text)
	if span == "" {
		return nil, false
	}
	return parseObject(span)
}

func repairObject(text string) (map[string]any, bool) {
	fixed := strings.TrimSpace(text)
	if i := strings.IndexByte(fixed, '{'); i > 0 {
		fixed = fixed[i:]
	}
	fixed = stripComments(fixed)
	fixed = controlCharsRe.ReplaceAllString(fixed, "")
	fixed = closeTruncated(fixed)
	fixed = trailingObjRe.ReplaceAllString(fixed, "}")
	fixed = trailingArrRe.ReplaceAllString(fixed, "]")
	fixed = bareKeyRe.ReplaceAllString(fixed, bareKeyReplaced)
	return parseObject(fixed)
}

// stripComments removes // and /* */ comments that sit outside string
// literals.
func stripComments(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			sb.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					sb.WriteByte('\n')
				}
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					return sb.String()
				}
				i += end + 3
				continue
			}
		}

		if c == '"' {
			inString = true
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// closeTruncated terminates an unfinished string and appends the closers of
// any brackets left open, which is what a reply cut off by the token cap
// looks like.
func closeTruncated(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !inString && len(stack) == 0 {
		return s
	}

	var sb strings.Builder
	sb.WriteString(s)
	if inString {
		if escaped {
			sb.WriteByte('\\')
		}
		sb.WriteByte('"')
	}
	tail := strings.TrimRight(sb.String(), " ")
	sb.Reset()
	sb.WriteString(tail)
	if strings.HasSuffix(tail, ":") {
		sb.WriteString("null")
	}
	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteByte(stack[i])
	}
	return sb.String()
}
