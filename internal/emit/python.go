package emit

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/robert-at-pretension-io/export-config/internal/facts"
)

// Python writes a module defining one dict literal per table.
func Python(w io.Writer, tables facts.Tables, h Header) error {
	g := facts.Group(tables)
	bw := bufio.NewWriter(w)

	bw.WriteString(`"""` + "\n")
	bw.WriteString("Generated by " + h.generator() + ". Do not edit.\n\n")
	bw.WriteString("Tables:\n")
	for _, name := range TableNames {
		bw.WriteString("    " + name + "\n")
	}
	bw.WriteString("\nSSC Version: " + h.SSCVersion + "\n")
	bw.WriteString("Date: " + h.date() + "\n")
	bw.WriteString(`"""` + "\n\n")

	bw.WriteString("config_to_input = {\n")
	for _, cfg := range g.Configs {
		pages := g.InputPages[cfg]
		if len(pages) == 0 {
			bw.WriteString("    " + pyString(cfg) + ": [],\n")
			continue
		}
		bw.WriteString("    " + pyString(cfg) + ": [\n")
		for _, p := range pages {
			bw.WriteString("        {\n")
			bw.WriteString("            \"sidebar\": " + pyString(p.Sidebar) + ",\n")
			bw.WriteString("            \"common_uiforms\": " + pyList(p.CommonUIForms) + ",\n")
			bw.WriteString("            \"exclusive_uiforms\": " + pyList(p.ExclusiveUIForms) + ",\n")
			bw.WriteString("            \"exclusive_var\": " + pyString(p.ExclusiveVar) + ",\n")
			bw.WriteString("        },\n")
		}
		bw.WriteString("    ],\n")
	}
	bw.WriteString("}\n\n")

	bw.WriteString("config_to_modules = {\n")
	for _, cfg := range g.Configs {
		bw.WriteString("    " + pyString(cfg) + ": " + pyList(g.Modules[cfg]) + ",\n")
	}
	bw.WriteString("}\n\n")

	writeFormDict(bw, "config_to_eqn_variables", g, g.EqnVariables)
	bw.WriteString("\n")
	writeFormDict(bw, "config_to_cb_cmods", g, g.CallbackMods)

	return bw.Flush()
}

func writeFormDict(bw *bufio.Writer, name string, g facts.Grouped, values map[string]map[string][]string) {
	bw.WriteString(name + " = {\n")
	for _, cfg := range g.Configs {
		entries := make([]string, 0, len(g.Forms[cfg]))
		for _, form := range g.Forms[cfg] {
			entries = append(entries, pyString(form)+": "+pyList(values[cfg][form]))
		}
		bw.WriteString("    " + pyString(cfg) + ": {" + strings.Join(entries, ", ") + "},\n")
	}
	bw.WriteString("}\n")
}

// pyString quotes s as a Python string literal. Go's escapes are a subset of
// Python's for the characters strconv.Quote emits, provided s is valid UTF-8;
// Write rejects anything else, since Python would read a \xNN escape as a
// code point rather than a byte.
func pyString(s string) string {
	return strconv.Quote(s)
}

func pyList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = pyString(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
