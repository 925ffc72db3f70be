// Package script tokenizes the line-oriented script language shared by the
// startup script and the equation/callback scripts embedded in UI forms.
//
// The package only locates tokens and statement boundaries. It does not build
// an AST or evaluate anything; callers match the statement shapes they care
// about and ignore the rest.
package script

import (
	"fmt"
	"strings"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Ident
	String
	Number
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "identifier"
	case String:
		return "string"
	case Number:
		return "number"
	case Punct:
		return "punctuation"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexical element. For strings, Text holds the unescaped value.
type Token struct {
	Kind Kind
	Text string
	Line int
}

// Is reports whether t is the punctuation or identifier text s.
func (t Token) Is(s string) bool {
	return (t.Kind == Punct || t.Kind == Ident) && t.Text == s
}

func (t Token) String() string {
	if t.Kind == String {
		return fmt.Sprintf("%q", t.Text)
	}
	return t.Text
}

// Error is a tokenizer error. Tokenizing continues after most errors.
type Error struct {
	Line    int
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

var multiPunct = []string{"==", "!=", "<=", ">=", "=>", "+=", "-=", "*=", "/=", "&&", "||", "++", "--"}

// Tokenize splits src into tokens. Comments and whitespace are dropped.
// Errors are collected rather than aborting so callers can report them in bulk.
func Tokenize(src string) ([]Token, []Error) {
	var (
		toks []Token
		errs []Error
	)
	line := 1
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			start := line
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				errs = append(errs, Error{Line: start, Message: "unterminated block comment"})
				line += strings.Count(src[i:], "\n")
				i = len(src)
				continue
			}
			line += strings.Count(src[i:i+2+end], "\n")
			i += 2 + end + 2
		case c == '"' || c == '\'':
			text, n, nl, ok := scanString(src[i:])
			if !ok {
				errs = append(errs, Error{Line: line, Message: "unterminated string"})
			}
			toks = append(toks, Token{Kind: String, Text: text, Line: line})
			line += nl
			i += n
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			n := scanNumber(src[i:])
			toks = append(toks, Token{Kind: Number, Text: src[i : i+n], Line: line})
			i += n
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, Token{Kind: Ident, Text: src[i:j], Line: line})
			i = j
		default:
			p := string(c)
			for _, m := range multiPunct {
				if strings.HasPrefix(src[i:], m) {
					p = m
					break
				}
			}
			toks = append(toks, Token{Kind: Punct, Text: p, Line: line})
			i += len(p)
		}
	}
	return toks, errs
}

// scanString reads a quoted string starting at s[0]. It returns the unescaped
// value, the number of bytes consumed, the newlines crossed and whether the
// closing quote was found.
func scanString(s string) (string, int, int, bool) {
	quote := s[0]
	var b strings.Builder
	nl := 0
	i := 1
	for i < len(s) {
		c := s[i]
		switch {
		case c == quote:
			return b.String(), i + 1, nl, true
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				if s[i] == '\n' {
					nl++
				}
				b.WriteByte(s[i])
			}
		default:
			if c == '\n' {
				nl++
			}
			b.WriteByte(c)
		}
		i++
	}
	return b.String(), len(s), nl, false
}

func scanNumber(s string) int {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			i = j
			for i < len(s) && isDigit(s[i]) {
				i++
			}
		}
	}
	return i
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
