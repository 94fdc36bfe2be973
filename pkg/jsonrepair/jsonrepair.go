/*
jsonrepair parses a growing buffer of JSON-object text that may be
truncated at any byte boundary, returning the best-effort parsed object.
Vendors split streamed tool-call arguments mid-string and mid-number, so
the caller re-invokes the parser on every delta and once more on block
close.
*/
package jsonrepair

import (
	"encoding/json"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// scanState is the structural position at the end of a scanned text
type scanState struct {
	// closers for the objects and arrays still open, in open order
	stack []byte
	// the text ends inside a string, or inside a string escape
	inString bool
	escaped  bool
	// start of a trailing string, number or literal token, -1 when the
	// text ends at a token boundary
	tokenStart int
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Parse returns the best-effort object parse of text. The text's own
// trailing token may be cut mid-string or mid-number, so it is dropped
// rather than completed; the text is then truncated token by token,
// balancing open objects and arrays at each step, until a parse
// succeeds. If nothing parses the empty map is returned. Worst case is
// quadratic in the text length, so call at most once per incoming delta
// chunk.
func Parse(text string) map[string]any {
	if text == "" {
		return map[string]any{}
	}
	if result, ok := tryParse(text, false); ok {
		return result
	}
	for text = truncate(text); text != ""; text = truncate(text) {
		if result, ok := tryParse(text, true); ok {
			return result
		}
	}
	return map[string]any{}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// tryParse attempts the text as-is, then with the closers needed to
// balance open objects and arrays appended. Completion never closes a
// string or finishes a number: when allowTrailingToken is false a text
// ending inside a token is rejected outright, since that token may be
// cut short.
func tryParse(text string, allowTrailingToken bool) (map[string]any, bool) {
	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err == nil && result != nil {
		return result, true
	}

	st := scan(text)
	if st.inString || st.escaped || len(st.stack) == 0 {
		return nil, false
	}
	if !allowTrailingToken && isTokenChar(text[len(text)-1]) {
		return nil, false
	}

	completed := make([]byte, 0, len(text)+len(st.stack))
	completed = append(completed, text...)
	for i := len(st.stack) - 1; i >= 0; i-- {
		completed = append(completed, st.stack[i])
	}
	if err := json.Unmarshal(completed, &result); err == nil && result != nil {
		return result, true
	}
	return nil, false
}

// truncate removes the trailing token as a unit when the text ends
// inside one, or a single character otherwise. Tokens left of the cut
// were terminated by a delimiter in the original text, so later parse
// attempts can safely surface them.
func truncate(text string) string {
	if st := scan(text); st.tokenStart >= 0 {
		return text[:st.tokenStart]
	}
	return text[:len(text)-1]
}

// scan walks the text recording open containers, string state and the
// start of any trailing token
func scan(text string) scanState {
	st := scanState{tokenStart: -1}
	tokenStart := -1
	stringStart := -1

	for i := 0; i < len(text); i++ {
		c := text[i]
		if st.escaped {
			st.escaped = false
			continue
		}
		if st.inString {
			switch c {
			case '\\':
				st.escaped = true
			case '"':
				st.inString = false
				stringStart = -1
			}
			continue
		}
		if isTokenChar(c) {
			if tokenStart < 0 {
				tokenStart = i
			}
			continue
		}
		tokenStart = -1
		switch c {
		case '"':
			st.inString = true
			stringStart = i
		case '{':
			st.stack = append(st.stack, '}')
		case '[':
			st.stack = append(st.stack, ']')
		case '}', ']':
			if n := len(st.stack); n > 0 && st.stack[n-1] == c {
				st.stack = st.stack[:n-1]
			}
		}
	}

	if st.inString {
		st.tokenStart = stringStart
	} else {
		st.tokenStart = tokenStart
	}
	return st
}

// isTokenChar reports whether c can continue a number or literal token
func isTokenChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c == '-', c == '+', c == '.':
		return true
	}
	return false
}
