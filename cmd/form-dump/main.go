// form-dump prints what the analyzers see in a form file, or in every form of
// a UI directory: the split equation and callback regions, the tree-sitter
// parse of the equations, and the extracted outputs and modules.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/robert-at-pretension-io/export-config/internal/config"
	"github.com/robert-at-pretension-io/export-config/internal/extractor"
)

func main() {
	showTree := flag.Bool("tree", false, "print the equation syntax tree")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: form-dump [--tree] <form-file | ui-dir>")
		os.Exit(1)
	}
	cfg := config.DefaultConfig()
	target := flag.Arg(0)

	paths := []string{target}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		forms, err := cfg.ListForms(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		paths = paths[:0]
		for _, form := range forms {
			paths = append(paths, cfg.FormPath(target, form))
		}
	}

	for i, path := range paths {
		if i > 0 {
			fmt.Println()
		}
		if err := dump(os.Stdout, cfg.FormName(path), path, *showTree); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func dump(w io.Writer, form, path string, showTree bool) error {
	var splitter extractor.FormSplitter
	if err := splitter.Extract(path); err != nil {
		return err
	}
	eqn := splitter.EquationScript()
	cb := splitter.CallbackScript()

	printRegion(w, "equations", eqn)
	printRegion(w, "callbacks", cb)

	if showTree && strings.TrimSpace(eqn) != "" {
		if err := printTree(w, eqn); err != nil {
			return err
		}
	}

	scripts := extractor.New().Analyze(form, eqn, cb)
	fmt.Fprintf(w, "form: %s\n", form)
	fmt.Fprintf(w, "eqn_outputs: %v\n", scripts.EqnOutputs)
	fmt.Fprintf(w, "callback_modules: %v\n", scripts.CallbackModules)
	for _, d := range scripts.Diagnostics {
		fmt.Fprintf(w, "diagnostic: %s\n", d)
	}
	return nil
}

func printRegion(w io.Writer, name, text string) {
	fmt.Fprintf(w, "=== %s (%d lines) ===\n", name, strings.Count(text, "\n"))
	fmt.Fprint(w, text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(w)
	}
}

func printTree(w io.Writer, text string) error {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	source := []byte(text)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return err
	}
	defer tree.Close()

	root := tree.RootNode()
	fmt.Fprintf(w, "=== tree (has_error=%v) ===\n", root.HasError())
	var walk func(n *sitter.Node, field string, depth int)
	walk = func(n *sitter.Node, field string, depth int) {
		label := n.Type()
		if field != "" {
			label = field + ": " + label
		}
		content := ""
		if n.ChildCount() == 0 {
			content = fmt.Sprintf(" %q", n.Content(source))
		}
		fmt.Fprintf(w, "%s%s [%d:%d]%s\n", strings.Repeat("  ", depth), label,
			n.StartPoint().Row+1, n.StartPoint().Column, content)
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), n.FieldNameForChild(i), depth+1)
		}
	}
	walk(root, "", 0)
	return nil
}
