package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/rego"

	"github.com/robert-at-pretension-io/export-config/internal/facts"
	"github.com/robert-at-pretension-io/export-config/internal/validator"
)

//go:embed lint.rego
var lintModule string

// Engine evaluates consistency policies against exported configuration facts
type Engine struct {
	queries map[string]rego.PreparedEvalQuery
	input   *validator.Validator
}

// Violation represents a policy violation
type Violation struct {
	Rule          string `json:"rule"`
	Severity      string `json:"severity"`
	Configuration string `json:"configuration"`
	Form          string `json:"form,omitempty"`
	Message       string `json:"message"`
}

// Result contains the evaluation results
type Result struct {
	Violations []Violation
	Summary    Summary
}

// HasErrors reports whether any violation has error severity.
func (r *Result) HasErrors() bool {
	return r != nil && r.Summary.Errors > 0
}

// Summary provides aggregate counts
type Summary struct {
	TotalViolations int `json:"total_violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
}

// Input is the data structure passed to OPA
type Input struct {
	Configurations []Configuration `json:"configurations"`
	LintConfig     LintRuleConfig  `json:"lint_config"`
}

// LintRuleConfig carries severity overrides keyed by rule name
type LintRuleConfig struct {
	Rules map[string]string `json:"rules"`
}

// Configuration is one configuration as seen by the policies
type Configuration struct {
	Name    string   `json:"name"`
	Modules []string `json:"modules"`
	Pages   []Page   `json:"pages"`
	Forms   []Form   `json:"forms"`
}

type Page struct {
	Index   int      `json:"index"`
	Sidebar string   `json:"sidebar"`
	Forms   []string `json:"forms"`
}

type Form struct {
	Name            string   `json:"name"`
	EqnOutputs      []string `json:"eqn_outputs"`
	CallbackModules []string `json:"callback_modules"`
}

// BuildInput converts fact tables into policy input.
func BuildInput(tables facts.Tables, rules map[string]string) Input {
	g := facts.Group(tables)
	input := Input{
		Configurations: make([]Configuration, 0, len(g.Configs)),
		LintConfig:     LintRuleConfig{Rules: map[string]string{}},
	}
	for k, v := range rules {
		input.LintConfig.Rules[k] = v
	}

	for _, name := range g.Configs {
		cfg := Configuration{
			Name:    name,
			Modules: g.Modules[name],
			Pages:   []Page{},
			Forms:   []Form{},
		}
		for _, row := range g.InputPages[name] {
			forms := append(append([]string{}, row.CommonUIForms...), row.ExclusiveUIForms...)
			cfg.Pages = append(cfg.Pages, Page{Index: row.Index, Sidebar: row.Sidebar, Forms: forms})
		}
		for _, form := range g.Forms[name] {
			cfg.Forms = append(cfg.Forms, Form{
				Name:            form,
				EqnOutputs:      g.EqnVariables[name][form],
				CallbackModules: g.CallbackMods[name][form],
			})
		}
		input.Configurations = append(input.Configurations, cfg)
	}
	return input
}

// New creates a new policy engine from the embedded rules plus any .rego
// files in policyDir. Extra modules must use package exportconfig.lint.
func New(policyDir string) (*Engine, error) {
	engine := &Engine{
		queries: make(map[string]rego.PreparedEvalQuery),
	}

	modules := []func(*rego.Rego){rego.Module("lint.rego", lintModule)}
	if policyDir != "" {
		files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
		if err != nil {
			return nil, fmt.Errorf("finding policy files: %w", err)
		}
		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f, err)
			}
			modules = append(modules, rego.Module(f, string(content)))
		}
	}

	for name, q := range map[string]string{
		"violations": "data.exportconfig.lint.violations",
		"summary":    "data.exportconfig.lint.summary",
	} {
		opts := append(append([]func(*rego.Rego){}, modules...), rego.Query(q))
		query, err := rego.New(opts...).PrepareForEval(context.Background())
		if err != nil {
			return nil, fmt.Errorf("preparing %s query: %w", name, err)
		}
		engine.queries[name] = query
	}

	v, err := validator.New()
	if err != nil {
		return nil, fmt.Errorf("init input validator: %w", err)
	}
	engine.input = v

	return engine, nil
}

// Evaluate runs the policies against the input data
func (e *Engine) Evaluate(ctx context.Context, input Input) (*Result, error) {
	if errs := e.input.ValidationErrors(input); len(errs) > 0 {
		return nil, fmt.Errorf("policy input: %s", strings.Join(errs, "; "))
	}

	inputMap, err := structToMap(input)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	result := &Result{}

	rs, err := e.queries["violations"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating violations: %w", err)
	}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		if violations, ok := rs[0].Expressions[0].Value.([]interface{}); ok {
			for _, v := range violations {
				vmap, ok := v.(map[string]interface{})
				if !ok {
					continue
				}
				result.Violations = append(result.Violations, Violation{
					Rule:          getString(vmap, "rule"),
					Severity:      getString(vmap, "severity"),
					Configuration: getString(vmap, "configuration"),
					Form:          getString(vmap, "form"),
					Message:       getString(vmap, "message"),
				})
			}
		}
	}
	sort.SliceStable(result.Violations, func(i, j int) bool {
		a, b := result.Violations[i], result.Violations[j]
		if a.Configuration != b.Configuration {
			return a.Configuration < b.Configuration
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.Form != b.Form {
			return a.Form < b.Form
		}
		return a.Message < b.Message
	})

	rs, err = e.queries["summary"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating summary: %w", err)
	}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		if smap, ok := rs[0].Expressions[0].Value.(map[string]interface{}); ok {
			result.Summary = Summary{
				TotalViolations: getInt(smap, "total_violations"),
				Errors:          getInt(smap, "errors"),
				Warnings:        getInt(smap, "warnings"),
				Info:            getInt(smap, "info"),
			}
		}
	}

	return result, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
	}
	return 0
}
