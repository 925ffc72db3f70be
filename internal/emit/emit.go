// Package emit renders fact tables as the artifacts consumed downstream:
// a Python module of dict literals, a JSON table dump or an ordered YAML
// document.
package emit

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/robert-at-pretension-io/export-config/internal/facts"
)

// Generator names the tool in generated headers.
const Generator = "export-config"

// Names of the emitted mappings, in emission order.
var TableNames = []string{
	"config_to_input",
	"config_to_modules",
	"config_to_eqn_variables",
	"config_to_cb_cmods",
}

// Header carries the provenance printed above generated content.
type Header struct {
	Generator  string
	SSCVersion string
	Date       time.Time
}

func (h Header) generator() string {
	if h.Generator == "" {
		return Generator
	}
	return h.Generator
}

// Timestamps are printed in ctime layout.
const dateLayout = "Mon Jan _2 15:04:05 2006"

func (h Header) date() string {
	if h.Date.IsZero() {
		return time.Now().Format(dateLayout)
	}
	return h.Date.Format(dateLayout)
}

// Write renders tables in the named format. Names that are not valid UTF-8
// are rejected before anything is written.
func Write(w io.Writer, format string, tables facts.Tables, h Header) error {
	if err := checkUTF8(tables); err != nil {
		return err
	}
	switch format {
	case "", "python":
		return Python(w, tables, h)
	case "json":
		return JSON(w, tables)
	case "yaml":
		return YAML(w, tables, h)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func checkUTF8(t facts.Tables) error {
	bad := func(kind, config, name string) error {
		return fmt.Errorf("configuration %q: %s %q is not valid UTF-8", config, kind, name)
	}
	for _, r := range t.Configurations {
		if !utf8.ValidString(r.Name) {
			return bad("name", r.Name, r.Name)
		}
	}
	for _, r := range t.InputPages {
		if !utf8.ValidString(r.Sidebar) {
			return bad("sidebar", r.Config, r.Sidebar)
		}
		if !utf8.ValidString(r.ExclusiveVar) {
			return bad("exclusive_var", r.Config, r.ExclusiveVar)
		}
		for _, f := range append(append([]string{}, r.CommonUIForms...), r.ExclusiveUIForms...) {
			if !utf8.ValidString(f) {
				return bad("form", r.Config, f)
			}
		}
	}
	for _, r := range t.Modules {
		if !utf8.ValidString(r.Module) {
			return bad("module", r.Config, r.Module)
		}
	}
	for _, r := range t.Forms {
		if !utf8.ValidString(r.Form) {
			return bad("form", r.Config, r.Form)
		}
	}
	for _, r := range t.EqnVariables {
		if !utf8.ValidString(r.Variable) {
			return bad("variable", r.Config, r.Variable)
		}
	}
	for _, r := range t.CallbackMods {
		if !utf8.ValidString(r.Module) {
			return bad("module", r.Config, r.Module)
		}
	}
	return nil
}
