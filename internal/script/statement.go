package script

import "strings"

// Statement is a run of tokens ending at a top-level terminator.
type Statement struct {
	Tokens []Token
	// Terminated is false for a trailing statement cut off by end of input.
	Terminated bool
}

// Line returns the line the statement starts on.
func (s Statement) Line() int {
	if len(s.Tokens) == 0 {
		return 0
	}
	return s.Tokens[0].Line
}

// Text renders the statement tokens separated by single spaces, for diagnostics.
func (s Statement) Text() string {
	parts := make([]string, 0, len(s.Tokens))
	for _, t := range s.Tokens {
		if t.Kind == String {
			parts = append(parts, "'"+t.Text+"'")
			continue
		}
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

// Call reports whether the statement has the shape `name(...)` and returns name.
func (s Statement) Call() (string, bool) {
	if len(s.Tokens) < 2 || s.Tokens[0].Kind != Ident || !s.Tokens[1].Is("(") {
		return "", false
	}
	return s.Tokens[0].Text, true
}

var blockKeywords = map[string]bool{
	"function": true,
	"if":       true,
	"while":    true,
	"for":      true,
	"else":     true,
}

// Statements splits tokens into statements. A statement ends at `;` at depth
// zero. A brace that returns to depth zero also ends the statement when the
// statement opened with a block keyword or a bare `{`, or when the next token
// starts a new line with an identifier. An `else` after the brace continues the
// statement. Unbalanced closers never push the depth below zero.
func Statements(toks []Token) []Statement {
	var (
		out   []Statement
		cur   []Token
		depth int
	)
	flush := func(terminated bool) {
		if len(cur) > 0 {
			out = append(out, Statement{Tokens: cur, Terminated: terminated})
		}
		cur = nil
	}
	for i, t := range toks {
		if t.Kind == Punct {
			switch t.Text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth > 0 {
					depth--
				}
			}
		}
		if depth == 0 && t.Is(";") {
			flush(true)
			continue
		}
		cur = append(cur, t)
		if depth == 0 && t.Is("}") && closesStatement(cur, toks[i+1:], t) {
			flush(true)
		}
	}
	flush(false)
	return out
}

func closesStatement(cur, rest []Token, brace Token) bool {
	if len(rest) > 0 && rest[0].Is("else") {
		return false
	}
	first := cur[0]
	if first.Is("{") || (first.Kind == Ident && blockKeywords[first.Text]) {
		return true
	}
	return len(rest) > 0 && rest[0].Kind == Ident && rest[0].Line > brace.Line
}
