package extractor

import (
	"fmt"

	"github.com/robert-at-pretension-io/export-config/internal/script"
)

// CallbackExtractor collects the computation modules a callback script runs.
type CallbackExtractor struct {
	form        string
	modules     []string
	seen        map[string]bool
	diagnostics []string
}

// NewCallbackExtractor creates an analyzer for the named form.
func NewCallbackExtractor(form string) *CallbackExtractor {
	return &CallbackExtractor{form: form, seen: make(map[string]bool)}
}

// ParseScript scans text for module invocations at any nesting depth:
//
//	run pvwattsv8;
//	run('pvwattsv8');
//	ssc_exec(obj, 'pvwattsv8');
func (x *CallbackExtractor) ParseScript(text string) {
	toks, errs := script.Tokenize(text)
	for _, e := range errs {
		x.diagnostics = append(x.diagnostics, fmt.Sprintf("%s: callbacks: %v", x.form, e))
	}
	for i, t := range toks {
		if t.Kind != script.Ident || (i > 0 && (toks[i-1].Is(".") || toks[i-1].Is("function"))) {
			continue
		}
		var mod string
		switch t.Text {
		case "run":
			mod = runTarget(toks[i+1:])
		case "ssc_exec":
			mod = sscExecTarget(toks[i+1:])
		}
		if mod != "" && !x.seen[mod] {
			x.seen[mod] = true
			x.modules = append(x.modules, mod)
		}
	}
}

// ComputeModules returns the ordered, duplicate-free module names.
func (x *CallbackExtractor) ComputeModules() []string {
	return append([]string{}, x.modules...)
}

// Diagnostics returns notes gathered while parsing.
func (x *CallbackExtractor) Diagnostics() []string {
	return append([]string(nil), x.diagnostics...)
}

// runTarget handles `run X`, `run 'X'` and `run('X')`.
func runTarget(rest []script.Token) string {
	if len(rest) == 0 {
		return ""
	}
	switch t := rest[0]; {
	case t.Kind == script.Ident || t.Kind == script.String:
		if len(rest) > 1 && rest[1].Kind == script.Punct && !rest[1].Is(";") && !rest[1].Is("}") {
			return ""
		}
		return t.Text
	case t.Is("("):
		if len(rest) > 2 && rest[1].Kind == script.String && rest[2].Is(")") {
			return rest[1].Text
		}
	}
	return ""
}

// sscExecTarget handles `ssc_exec(handle, 'X' ...)`.
func sscExecTarget(rest []script.Token) string {
	if len(rest) == 0 || !rest[0].Is("(") {
		return ""
	}
	depth := 0
	for i := 1; i < len(rest); i++ {
		t := rest[i]
		switch {
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			if depth == 0 {
				return ""
			}
			depth--
		case depth == 0 && t.Is(","):
			if i+1 < len(rest) && rest[i+1].Kind == script.String {
				return rest[i+1].Text
			}
			return ""
		}
	}
	return ""
}
