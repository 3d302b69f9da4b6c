package static

import (
	"encoding/json"
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"
)

// syntaxStatus is the outcome of a syntax validation. A parse failure is
// recorded here rather than raised.
type syntaxStatus struct {
	ok   bool
	err  string
	line int
}

// syntaxValidators maps a language tag to its validator. Languages without
// an entry are accepted as-is; syntax checking is best-effort per language.
var syntaxValidators = map[string]func(code string) syntaxStatus{
	"go":         validateGo,
	"json":       validateJSON,
	"vue":        validateVue,
	"html":       validateVue,
	"javascript": validateScriptBody,
	"typescript": validateScriptBody,
}

// verifySyntax parses the relevant source region for the declared language.
func verifySyntax(code, language string) syntaxStatus {
	validate, ok := syntaxValidators[strings.ToLower(language)]
	if !ok {
		return syntaxStatus{ok: true}
	}
	return validate(code)
}

func validateGo(code string) syntaxStatus {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "candidate.go", code, 0)
	if err == nil {
		return syntaxStatus{ok: true}
	}

	status := syntaxStatus{err: fmt.Sprintf("syntax error: %v", err)}
	if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
		status.err = fmt.Sprintf("syntax error: %s", list[0].Msg)
		status.line = list[0].Pos.Line
	}
	return status
}

func validateJSON(code string) syntaxStatus {
	if json.Valid([]byte(code)) {
		return syntaxStatus{ok: true}
	}
	var v any
	err := json.Unmarshal([]byte(code), &v)
	return syntaxStatus{err: fmt.Sprintf("syntax error: %v", err)}
}

// validateVue extracts the <script> region of a single-file component and
// structurally validates it. A component without a script block has nothing
// to parse and is accepted.
func validateVue(code string) syntaxStatus {
	body, offset, found := scriptRegion(code)
	if !found {
		return syntaxStatus{ok: true}
	}
	status := balanceCheck(body)
	if status.line > 0 {
		status.line += offset
	}
	return status
}

func validateScriptBody(code string) syntaxStatus {
	return balanceCheck(code)
}

// scriptRegion returns the content between the first <script...> and
// </script> tags, along with the number of lines preceding it.
func scriptRegion(code string) (body string, lineOffset int, found bool) {
	lower := strings.ToLower(code)
	start := strings.Index(lower, "<script")
	if start < 0 {
		return "", 0, false
	}
	open := strings.IndexByte(code[start:], '>')
	if open < 0 {
		return "", 0, false
	}
	start += open + 1
	end := strings.Index(lower[start:], "</script>")
	if end < 0 {
		return "", 0, false
	}
	return code[start : start+end], strings.Count(code[:start], "\n"), true
}

// balanceCheck validates that (), {} and [] nest correctly outside string
// literals and line comments. It is a structural check, not a full parse:
// good enough to catch truncated or mangled generated script blocks before
// they reach the sandbox.
func balanceCheck(body string) syntaxStatus {
	type opener struct {
		ch   byte
		line int
	}
	pairs := map[byte]byte{')': '(', '}': '{', ']': '['}

	var stack []opener
	line := 1
	var inString byte
	escaped := false

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\n' {
			line++
			if inString == '\'' || inString == '"' {
				// unterminated single-line string; tolerate and reset
				inString = 0
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		if inString != 0 {
			switch c {
			case '\\':
				escaped = true
			case inString:
				inString = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			inString = c
		case '/':
			if i+1 < len(body) && body[i+1] == '/' {
				// skip to end of line
				for i < len(body) && body[i] != '\n' {
					i++
				}
				line++
			}
		case '(', '{', '[':
			stack = append(stack, opener{ch: c, line: line})
		case ')', '}', ']':
			if len(stack) == 0 || stack[len(stack)-1].ch != pairs[c] {
				return syntaxStatus{
					err:  fmt.Sprintf("syntax error: unexpected %q", c),
					line: line,
				}
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return syntaxStatus{
			err:  fmt.Sprintf("syntax error: unclosed %q", top.ch),
			line: top.line,
		}
	}
	return syntaxStatus{ok: true}
}
