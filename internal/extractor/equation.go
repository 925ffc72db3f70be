package extractor

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/robert-at-pretension-io/export-config/internal/script"
)

// EquationExtractor collects the output variables assigned at the top level
// of an equation script.
type EquationExtractor struct {
	form        string
	outputs     []string
	seen        map[string]bool
	diagnostics []string
	lang        *sitter.Language
}

// NewEquationExtractor creates an analyzer for the named form. The name only
// appears in diagnostics.
func NewEquationExtractor(form string) *EquationExtractor {
	return &EquationExtractor{
		form: form,
		seen: make(map[string]bool),
		lang: javascript.GetLanguage(),
	}
}

// ParseScript scans text and accumulates its output variables. Clean scripts
// go through tree-sitter; scripts outside that grammar fall back to the
// statement matcher.
func (x *EquationExtractor) ParseScript(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	names, ok := x.parseTree(text)
	if !ok {
		names = x.parseStatements(text)
	}
	for _, name := range names {
		if !x.seen[name] {
			x.seen[name] = true
			x.outputs = append(x.outputs, name)
		}
	}
}

// OutputVariables returns the ordered, duplicate-free output variables.
func (x *EquationExtractor) OutputVariables() []string {
	return append([]string{}, x.outputs...)
}

// Diagnostics returns notes gathered while parsing.
func (x *EquationExtractor) Diagnostics() []string {
	return append([]string(nil), x.diagnostics...)
}

func (x *EquationExtractor) notef(format string, args ...any) {
	x.diagnostics = append(x.diagnostics, fmt.Sprintf("%s: equations: %s", x.form, fmt.Sprintf(format, args...)))
}

func (x *EquationExtractor) parseTree(text string) ([]string, bool) {
	if x.lang == nil {
		return nil, false
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(x.lang)

	source := []byte(text)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		x.notef("tree-sitter: %v", err)
		return nil, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		x.notef("script is outside the tree-sitter grammar, using statement matcher")
		return nil, false
	}

	var names []string
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if name := assignedIdentifier(root.NamedChild(i), source); name != "" {
			names = append(names, name)
		}
	}
	return names, true
}

// assignedIdentifier returns the target of a top-level `name = expr` statement.
func assignedIdentifier(stmt *sitter.Node, source []byte) string {
	if stmt == nil || stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
		return ""
	}
	expr := stmt.NamedChild(0)
	switch expr.Type() {
	case "assignment_expression", "augmented_assignment_expression":
	default:
		return ""
	}
	left := expr.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return ""
	}
	return left.Content(source)
}

func (x *EquationExtractor) parseStatements(text string) []string {
	toks, errs := script.Tokenize(text)
	for _, e := range errs {
		x.notef("%v", e)
	}
	var names []string
	for _, st := range script.Statements(toks) {
		if len(st.Tokens) < 2 {
			continue
		}
		first, op := st.Tokens[0], st.Tokens[1]
		if first.Kind != script.Ident || declKeywords[first.Text] {
			continue
		}
		if op.Kind == script.Punct && assignOps[op.Text] {
			names = append(names, first.Text)
		}
	}
	return names
}
