package script

import "fmt"

// ValueKind classifies a literal value.
type ValueKind int

const (
	StringValue ValueKind = iota
	NumberValue
	IdentValue
	ListValue
	TableValue
)

// Value is a literal argument: scalar, list, or key/value table.
type Value struct {
	Kind  ValueKind
	Text  string
	Items []Value
	// Entries keeps table entries in source order.
	Entries []Entry
	Line    int
}

// Entry is one key/value pair of a table literal.
type Entry struct {
	Key   string
	Value Value
}

// Lookup returns the table entry for key.
func (v Value) Lookup(key string) (Value, bool) {
	for _, e := range v.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Strings flattens every string (and bare identifier) reachable from v, in order.
func (v Value) Strings() []string {
	switch v.Kind {
	case StringValue, IdentValue:
		return []string{v.Text}
	case ListValue:
		var out []string
		for _, item := range v.Items {
			out = append(out, item.Strings()...)
		}
		return out
	}
	return nil
}

// Bool interprets v as a boolean literal.
func (v Value) Bool() bool {
	switch v.Kind {
	case IdentValue:
		return v.Text == "true"
	case NumberValue:
		return v.Text != "0"
	}
	return false
}

// ParseArgs parses the argument list of a call statement `name(a, b, ...)`.
// Tokens after the closing parenthesis are an error.
func ParseArgs(st Statement) ([]Value, error) {
	toks := st.Tokens
	if _, ok := st.Call(); !ok {
		return nil, fmt.Errorf("line %d: not a call", st.Line())
	}
	p := &valueParser{toks: toks, pos: 2}
	var args []Value
	if p.peek().Is(")") {
		p.pos++
	} else {
		for {
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			args = append(args, v)
			t := p.next()
			if t.Is(")") {
				break
			}
			if !t.Is(",") {
				return nil, p.errorf(t, "expected ',' or ')' in argument list")
			}
		}
	}
	if p.pos < len(toks) {
		return nil, p.errorf(toks[p.pos], "unexpected tokens after call")
	}
	return args, nil
}

type valueParser struct {
	toks []Token
	pos  int
}

func (p *valueParser) peek() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: EOF, Line: p.lastLine()}
	}
	return p.toks[p.pos]
}

func (p *valueParser) next() Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *valueParser) lastLine() int {
	if len(p.toks) == 0 {
		return 0
	}
	return p.toks[len(p.toks)-1].Line
}

func (p *valueParser) errorf(t Token, format string, args ...any) error {
	found := t.Text
	if t.Kind == EOF {
		found = "end of statement"
	}
	return fmt.Errorf("line %d: %s (found %s)", t.Line, fmt.Sprintf(format, args...), found)
}

func (p *valueParser) value() (Value, error) {
	t := p.next()
	switch {
	case t.Kind == String:
		return Value{Kind: StringValue, Text: t.Text, Line: t.Line}, nil
	case t.Kind == Number:
		return Value{Kind: NumberValue, Text: t.Text, Line: t.Line}, nil
	case t.Is("-") && p.peek().Kind == Number:
		n := p.next()
		return Value{Kind: NumberValue, Text: "-" + n.Text, Line: t.Line}, nil
	case t.Kind == Ident:
		return Value{Kind: IdentValue, Text: t.Text, Line: t.Line}, nil
	case t.Is("["):
		return p.list(t)
	case t.Is("{"):
		return p.table(t)
	}
	return Value{}, p.errorf(t, "expected a literal value")
}

func (p *valueParser) list(open Token) (Value, error) {
	v := Value{Kind: ListValue, Line: open.Line}
	for {
		if p.peek().Is("]") {
			p.pos++
			return v, nil
		}
		item, err := p.value()
		if err != nil {
			return Value{}, err
		}
		v.Items = append(v.Items, item)
		t := p.next()
		if t.Is("]") {
			return v, nil
		}
		if !t.Is(",") {
			return Value{}, p.errorf(t, "expected ',' or ']' in list")
		}
	}
}

func (p *valueParser) table(open Token) (Value, error) {
	v := Value{Kind: TableValue, Line: open.Line}
	for {
		if p.peek().Is("}") {
			p.pos++
			return v, nil
		}
		k := p.next()
		if k.Kind != String && k.Kind != Ident {
			return Value{}, p.errorf(k, "expected table key")
		}
		sep := p.next()
		if !sep.Is("=") && !sep.Is("=>") && !sep.Is(":") {
			return Value{}, p.errorf(sep, "expected '=', '=>' or ':' after key %q", k.Text)
		}
		item, err := p.value()
		if err != nil {
			return Value{}, err
		}
		v.Entries = append(v.Entries, Entry{Key: k.Text, Value: item})
		t := p.next()
		if t.Is("}") {
			return v, nil
		}
		if !t.Is(",") {
			return Value{}, p.errorf(t, "expected ',' or '}' in table")
		}
	}
}
