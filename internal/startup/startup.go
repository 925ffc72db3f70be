// Package startup discovers configurations, their pages and simulation modules
// from the application's startup script.
package startup

import (
	"fmt"

	"github.com/robert-at-pretension-io/export-config/internal/script"
)

// Page is one UI screen of a configuration.
type Page struct {
	Title          string   `json:"sidebar"`
	CommonForms    []string `json:"common_uiforms"`
	ExclusiveForms []string `json:"exclusive_uiforms"`
	ExclusiveVar   string   `json:"exclusive_var,omitempty"`
	Hidden         bool     `json:"hidden,omitempty"`
	Line           int      `json:"line"`
}

// Forms returns common forms followed by exclusive forms.
func (p Page) Forms() []string {
	out := make([]string, 0, len(p.CommonForms)+len(p.ExclusiveForms))
	out = append(out, p.CommonForms...)
	return append(out, p.ExclusiveForms...)
}

// Configuration is a named technology/financing variant of the application.
type Configuration struct {
	Name       string
	Technology string
	Financing  string
	Pages      []Page
	Modules    []string
}

// InputPages returns the pages shown in UI navigation.
func (c Configuration) InputPages() []Page {
	out := make([]Page, 0, len(c.Pages))
	for _, p := range c.Pages {
		if !p.Hidden {
			out = append(out, p)
		}
	}
	return out
}

// ParseError is a startup statement that could not be understood. Parse
// errors are collected; the rest of the script is still processed.
type ParseError struct {
	Line      int
	Statement string
	Message   string
}

func (e ParseError) Error() string {
	if e.Statement == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Message, e.Statement)
}

// Extractor holds the result of loading a startup script.
type Extractor struct {
	configs []*Configuration
	byName  map[string]*Configuration
	current *Configuration
	errors  []ParseError
}

// New creates an empty Extractor.
func New() *Extractor {
	return &Extractor{byName: make(map[string]*Configuration)}
}

// LoadStartupScript parses the script and returns the configurations found
// along with every parse error. Loading again replaces earlier results.
func (e *Extractor) LoadStartupScript(text string) ([]Configuration, []ParseError) {
	e.configs = nil
	e.byName = make(map[string]*Configuration)
	e.current = nil
	e.errors = nil

	toks, lexErrs := script.Tokenize(text)
	for _, le := range lexErrs {
		e.errors = append(e.errors, ParseError{Line: le.Line, Message: le.Message})
	}

	for _, st := range script.Statements(toks) {
		e.handle(st)
	}
	return e.Configurations(), e.errors
}

// Errors returns the parse errors of the last load.
func (e *Extractor) Errors() []ParseError {
	return append([]ParseError(nil), e.errors...)
}

// Configurations returns copies of all configurations in declaration order.
func (e *Extractor) Configurations() []Configuration {
	out := make([]Configuration, 0, len(e.configs))
	for _, c := range e.configs {
		out = append(out, copyConfiguration(*c))
	}
	return out
}

// Names returns configuration names in declaration order.
func (e *Extractor) Names() []string {
	out := make([]string, 0, len(e.configs))
	for _, c := range e.configs {
		out = append(out, c.Name)
	}
	return out
}

// ConfigToInputPages maps each configuration to its ordered input pages.
// Use Names for a stable iteration order.
func (e *Extractor) ConfigToInputPages() map[string][]Page {
	out := make(map[string][]Page, len(e.configs))
	for _, c := range e.configs {
		out[c.Name] = copyConfiguration(*c).InputPages()
	}
	return out
}

// ConfigToModules maps each configuration to its ordered simulation modules.
func (e *Extractor) ConfigToModules() map[string][]string {
	out := make(map[string][]string, len(e.configs))
	for _, c := range e.configs {
		out[c.Name] = append([]string{}, c.Modules...)
	}
	return out
}

func (e *Extractor) errorf(st script.Statement, format string, args ...any) {
	e.errors = append(e.errors, ParseError{
		Line:      st.Line(),
		Statement: st.Text(),
		Message:   fmt.Sprintf(format, args...),
	})
}

func (e *Extractor) declare(tech, fin string) *Configuration {
	name := ConfigName(tech, fin)
	if c, ok := e.byName[name]; ok {
		return c
	}
	c := &Configuration{Name: name, Technology: tech, Financing: fin}
	e.configs = append(e.configs, c)
	e.byName[name] = c
	return c
}

// ConfigName joins technology and financing names the way configurations are keyed.
func ConfigName(tech, fin string) string {
	if fin == "" {
		return tech
	}
	return tech + "-" + fin
}

func copyConfiguration(c Configuration) Configuration {
	out := c
	out.Modules = append([]string{}, c.Modules...)
	out.Pages = make([]Page, 0, len(c.Pages))
	for _, p := range c.Pages {
		cp := p
		cp.CommonForms = append([]string{}, p.CommonForms...)
		cp.ExclusiveForms = append([]string{}, p.ExclusiveForms...)
		out.Pages = append(out.Pages, cp)
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		if !contains(dst, item) {
			dst = append(dst, item)
		}
	}
	return dst
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
