package emit

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/export-config/internal/facts"
)

// YAML writes the four mappings as one document, keeping declaration order.
func YAML(w io.Writer, tables facts.Tables, h Header) error {
	g := facts.Group(tables)

	input := mappingNode()
	modules := mappingNode()
	eqn := mappingNode()
	cb := mappingNode()
	for _, cfg := range g.Configs {
		pages := &yaml.Node{Kind: yaml.SequenceNode}
		for _, p := range g.InputPages[cfg] {
			page := mappingNode()
			addPair(page, "sidebar", scalarNode(p.Sidebar))
			addPair(page, "common_uiforms", listNode(p.CommonUIForms))
			addPair(page, "exclusive_uiforms", listNode(p.ExclusiveUIForms))
			addPair(page, "exclusive_var", scalarNode(p.ExclusiveVar))
			pages.Content = append(pages.Content, page)
		}
		if len(pages.Content) == 0 {
			pages.Style = yaml.FlowStyle
		}
		addPair(input, cfg, pages)
		addPair(modules, cfg, listNode(g.Modules[cfg]))
		addPair(eqn, cfg, formsNode(g.Forms[cfg], g.EqnVariables[cfg]))
		addPair(cb, cfg, formsNode(g.Forms[cfg], g.CallbackMods[cfg]))
	}

	root := mappingNode()
	addPair(root, TableNames[0], input)
	addPair(root, TableNames[1], modules)
	addPair(root, TableNames[2], eqn)
	addPair(root, TableNames[3], cb)

	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: headerComment(h),
		Content:     []*yaml.Node{root},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func headerComment(h Header) string {
	lines := []string{
		"Generated by " + h.generator() + ". Do not edit.",
		"Tables: " + strings.Join(TableNames, ", "),
		"SSC Version: " + h.SSCVersion,
		"Date: " + h.date(),
	}
	return strings.Join(lines, "\n")
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func scalarNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func listNode(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, s := range items {
		n.Content = append(n.Content, scalarNode(s))
	}
	return n
}

func formsNode(forms []string, values map[string][]string) *yaml.Node {
	n := mappingNode()
	if len(forms) == 0 {
		n.Style = yaml.FlowStyle
	}
	for _, form := range forms {
		addPair(n, form, listNode(values[form]))
	}
	return n
}

func addPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalarNode(key), value)
}
