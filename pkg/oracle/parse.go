package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError describes why oracle text could not be decoded.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("oracle parse: %s", e.Reason)
}

// Result is either a decoded value or a ParseError. Callers check Ok before
// touching Value.
type Result[T any] struct {
	Value T
	Err   *ParseError
}

func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// ExtractJSON returns the first balanced JSON object or array embedded in
// free text, skipping any prose or code fences around it.
func ExtractJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	for start >= 0 {
		if end := matchClosing(text, start); end > start {
			return text[start : end+1], true
		}
		next := strings.IndexAny(text[start+1:], "{[")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// Decode extracts and unmarshals a JSON payload of type T from oracle text.
func Decode[T any](text string) Result[T] {
	blob, ok := ExtractJSON(text)
	if !ok {
		return Result[T]{Err: &ParseError{Reason: "no json object found", Raw: text}}
	}
	var out T
	if err := json.Unmarshal([]byte(blob), &out); err != nil {
		return Result[T]{Err: &ParseError{Reason: err.Error(), Raw: blob}}
	}
	return Result[T]{Value: out}
}

func matchClosing(text string, start int) int {
	stack := []byte{}
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}
