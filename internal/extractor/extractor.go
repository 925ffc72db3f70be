// Package extractor reads UI form files and pulls out the facts the export
// needs: the variables a form's equations compute and the computation modules
// its callbacks run.
package extractor

import (
	"fmt"
)

// Version identifies the analysis rules. Bump it whenever extraction output
// can change for the same input so cached results are invalidated.
const Version = "form-scripts-v1"

// FormScripts contains everything extracted from a single form file.
type FormScripts struct {
	Form            string   `json:"form"`
	EqnOutputs      []string `json:"eqn_outputs"`
	CallbackModules []string `json:"callback_modules"`
	Diagnostics     []string `json:"diagnostics,omitempty"`
}

// Extractor runs the splitter and both script analyzers over a form file.
type Extractor struct{}

// New creates a new Extractor
func New() *Extractor {
	return &Extractor{}
}

// Extract reads the form file at path and analyzes its scripts. A missing
// file yields an error wrapping fs.ErrNotExist.
func (e *Extractor) Extract(form, path string) (FormScripts, error) {
	var split FormSplitter
	if err := split.Extract(path); err != nil {
		return FormScripts{Form: form}, fmt.Errorf("form %s: %w", form, err)
	}
	return e.Analyze(form, split.EquationScript(), split.CallbackScript()), nil
}

// ExtractContent analyzes form text already in memory.
func (e *Extractor) ExtractContent(form, content string) FormScripts {
	var split FormSplitter
	split.Split(content)
	return e.Analyze(form, split.EquationScript(), split.CallbackScript())
}

// Analyze runs both analyzers over already split scripts.
func (e *Extractor) Analyze(form, equations, callbacks string) FormScripts {
	eqn := NewEquationExtractor(form)
	eqn.ParseScript(equations)

	cb := NewCallbackExtractor(form)
	cb.ParseScript(callbacks)

	return FormScripts{
		Form:            form,
		EqnOutputs:      eqn.OutputVariables(),
		CallbackModules: cb.ComputeModules(),
		Diagnostics:     append(eqn.Diagnostics(), cb.Diagnostics()...),
	}
}
