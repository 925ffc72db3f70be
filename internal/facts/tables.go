package facts

import (
	"github.com/robert-at-pretension-io/export-config/internal/aggregator"
	"github.com/robert-at-pretension-io/export-config/internal/startup"
)

// Tables is the relational form of the exported configuration data.
// Each slice is a relation (table) with flat rows, in emission order.
type Tables struct {
	Configurations []ConfigurationRow `json:"configurations"`
	InputPages     []InputPageRow     `json:"input_pages"`
	Modules        []ModuleRow        `json:"modules"`
	Forms          []FormRow          `json:"forms"`
	EqnVariables   []EqnVariableRow   `json:"eqn_variables"`
	CallbackMods   []CallbackModRow   `json:"cb_cmods"`
}

type ConfigurationRow struct {
	Name string `json:"name"`
}

type InputPageRow struct {
	Config           string   `json:"config"`
	Index            int      `json:"index"`
	Sidebar          string   `json:"sidebar"`
	CommonUIForms    []string `json:"common_uiforms"`
	ExclusiveUIForms []string `json:"exclusive_uiforms"`
	ExclusiveVar     string   `json:"exclusive_var"`
}

type ModuleRow struct {
	Config string `json:"config"`
	Module string `json:"module"`
}

type FormRow struct {
	Config string `json:"config"`
	Form   string `json:"form"`
}

type EqnVariableRow struct {
	Config   string `json:"config"`
	Form     string `json:"form"`
	Variable string `json:"variable"`
}

type CallbackModRow struct {
	Config string `json:"config"`
	Form   string `json:"form"`
	Module string `json:"module"`
}

// BuildTables flattens configurations and their aggregated records. Records
// are matched to configurations by name; a configuration without a record
// still contributes its pages and modules.
func BuildTables(configs []startup.Configuration, records []aggregator.Record) Tables {
	tables := emptyTables()

	byName := make(map[string]aggregator.Record, len(records))
	for _, rec := range records {
		byName[rec.Configuration] = rec
	}

	for _, cfg := range configs {
		tables.Configurations = append(tables.Configurations, ConfigurationRow{Name: cfg.Name})

		for i, page := range cfg.InputPages() {
			tables.InputPages = append(tables.InputPages, InputPageRow{
				Config:           cfg.Name,
				Index:            i,
				Sidebar:          page.Title,
				CommonUIForms:    nonNil(page.CommonForms),
				ExclusiveUIForms: nonNil(page.ExclusiveForms),
				ExclusiveVar:     page.ExclusiveVar,
			})
		}

		for _, mod := range cfg.Modules {
			tables.Modules = append(tables.Modules, ModuleRow{Config: cfg.Name, Module: mod})
		}

		rec, ok := byName[cfg.Name]
		if !ok {
			continue
		}
		for _, form := range rec.Forms {
			tables.Forms = append(tables.Forms, FormRow{Config: cfg.Name, Form: form})
			for _, v := range rec.EqnOutputs[form] {
				tables.EqnVariables = append(tables.EqnVariables, EqnVariableRow{
					Config:   cfg.Name,
					Form:     form,
					Variable: v,
				})
			}
			for _, m := range rec.CallbackModules[form] {
				tables.CallbackMods = append(tables.CallbackMods, CallbackModRow{
					Config: cfg.Name,
					Form:   form,
					Module: m,
				})
			}
		}
	}

	return tables
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}
