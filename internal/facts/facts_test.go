package facts

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-at-pretension-io/export-config/internal/aggregator"
	"github.com/robert-at-pretension-io/export-config/internal/startup"
)

func sampleInputs() ([]startup.Configuration, []aggregator.Record) {
	configs := []startup.Configuration{
		{
			Name:    "PVWatts",
			Modules: []string{"pvwattsv8", "grid"},
			Pages: []startup.Page{
				{Title: "Location and Resource", CommonForms: []string{"Irradiance"}},
				{Title: "Losses", CommonForms: []string{"Losses"}, Hidden: true},
			},
		},
		{Name: "Generic"},
	}
	records := []aggregator.Record{
		{
			Configuration:   "PVWatts",
			Forms:           []string{"Irradiance", "Losses"},
			EqnOutputs:      map[string][]string{"Irradiance": {"Pout"}, "Losses": {}},
			CallbackModules: map[string][]string{"Irradiance": {}, "Losses": {"pvwattsv8"}},
		},
	}
	return configs, records
}

func TestBuildTablesPopulatesRelations(t *testing.T) {
	tables := BuildTables(sampleInputs())

	if len(tables.Configurations) != 2 || tables.Configurations[1].Name != "Generic" {
		t.Fatalf("unexpected configuration rows %+v", tables.Configurations)
	}
	if len(tables.InputPages) != 1 {
		t.Fatalf("hidden pages must not be input pages, got %+v", tables.InputPages)
	}
	page := tables.InputPages[0]
	if page.Sidebar != "Location and Resource" || page.Index != 0 || page.ExclusiveUIForms == nil {
		t.Fatalf("unexpected input page row %+v", page)
	}
	if len(tables.Modules) != 2 {
		t.Fatalf("expected 2 module rows, got %d", len(tables.Modules))
	}
	if len(tables.Forms) != 2 {
		t.Fatalf("every analyzed form gets a row, got %+v", tables.Forms)
	}
	want := []EqnVariableRow{{Config: "PVWatts", Form: "Irradiance", Variable: "Pout"}}
	if diff := cmp.Diff(want, tables.EqnVariables); diff != "" {
		t.Fatalf("eqn variables mismatch (-want +got):\n%s", diff)
	}
	if len(tables.CallbackMods) != 1 || tables.CallbackMods[0].Form != "Losses" {
		t.Fatalf("unexpected callback rows %+v", tables.CallbackMods)
	}
}

func TestGroupKeepsEmptyEntries(t *testing.T) {
	g := Group(BuildTables(sampleInputs()))

	if diff := cmp.Diff([]string{"PVWatts", "Generic"}, g.Configs); diff != "" {
		t.Fatalf("config order mismatch:\n%s", diff)
	}
	wantEqn := map[string]map[string][]string{
		"PVWatts": {"Irradiance": {"Pout"}, "Losses": {}},
		"Generic": {},
	}
	if diff := cmp.Diff(wantEqn, g.EqnVariables); diff != "" {
		t.Fatalf("eqn grouping mismatch (-want +got):\n%s", diff)
	}
	wantCb := map[string]map[string][]string{
		"PVWatts": {"Irradiance": {}, "Losses": {"pvwattsv8"}},
		"Generic": {},
	}
	if diff := cmp.Diff(wantCb, g.CallbackMods); diff != "" {
		t.Fatalf("callback grouping mismatch (-want +got):\n%s", diff)
	}
	if len(g.Modules["Generic"]) != 0 || g.Modules["Generic"] == nil {
		t.Fatalf("expected empty module list for Generic, got %#v", g.Modules["Generic"])
	}
	if diff := cmp.Diff([]string{"Irradiance", "Losses"}, g.Forms["PVWatts"]); diff != "" {
		t.Fatalf("form order mismatch:\n%s", diff)
	}
}

func TestFilterTablesByConfigs(t *testing.T) {
	tables := BuildTables(sampleInputs())

	filtered := FilterTablesByConfigs(tables, map[string]bool{"Generic": true})
	if len(filtered.Configurations) != 1 || filtered.Configurations[0].Name != "Generic" {
		t.Fatalf("expected only Generic, got %+v", filtered.Configurations)
	}
	if len(filtered.Modules) != 0 || len(filtered.EqnVariables) != 0 || len(filtered.Forms) != 0 {
		t.Fatalf("expected PVWatts rows to be dropped, got %+v", filtered)
	}

	empty := FilterTablesByConfigs(tables, nil)
	if empty.Len() != 0 || empty.Configurations == nil {
		t.Fatalf("expected empty non-nil tables, got %+v", empty)
	}
}

func TestComputeDeltaAddsAndRemoves(t *testing.T) {
	prev := BuildTables(sampleInputs())

	configs, records := sampleInputs()
	configs[0].Modules = []string{"pvwattsv8", "utilityrate5"}
	records[0].EqnOutputs["Irradiance"] = []string{"Pout", "Pdc"}
	next := BuildTables(configs, records)

	delta := ComputeDelta(prev, next)
	if delta.Empty() {
		t.Fatalf("expected a non-empty delta")
	}
	if len(delta.Added.Modules) != 1 || delta.Added.Modules[0].Module != "utilityrate5" {
		t.Fatalf("expected utilityrate5 added, got %+v", delta.Added.Modules)
	}
	if len(delta.Removed.Modules) != 1 || delta.Removed.Modules[0].Module != "grid" {
		t.Fatalf("expected grid removed, got %+v", delta.Removed.Modules)
	}
	if len(delta.Added.EqnVariables) != 1 || delta.Added.EqnVariables[0].Variable != "Pdc" {
		t.Fatalf("expected Pdc added, got %+v", delta.Added.EqnVariables)
	}
	if len(delta.Removed.EqnVariables) != 0 {
		t.Fatalf("expected no removed variables, got %+v", delta.Removed.EqnVariables)
	}

	if !ComputeDelta(next, next).Empty() {
		t.Fatalf("identical snapshots should produce an empty delta")
	}

	scoped := FilterDeltaByConfigs(delta, map[string]bool{"Generic": true})
	if !scoped.Empty() {
		t.Fatalf("Generic did not change, got %+v", scoped)
	}
}
