package startup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const samStartup = `
// configurations
addconfig('PVWatts', ['Residential', 'Commercial']);
addconfig('Generic');

configopt('PVWatts', { 'long_name' = 'PVWatts Wind', 'short_name' = 'PVW' });

function helper(x) {
	y = x + 1;
	return y;
}

setconfig('PVWatts', 'Residential');
setmodules(['pvwattsv8', 'grid', 'utilityrate5']);
addpage([['Irradiance', 'Location'], ['Irradiance']], {
	'sidebar' = 'Location and Resource',
	'help' => 'location'
});
addpage(['PV Module'], {
	'sidebar' = 'Module',
	'exclusive_var' = 'module_model',
	'exclusive_uiforms' = ['Module Simple', 'Module CEC', 'Module Simple'],
});
addpage(['Hidden Losses'], { 'hidden' = true });
setmodules(['grid', 'cashloan']);

setconfig('Generic');
addpage('Generic Plant');
`

func TestLoadStartupScriptDiscoversConfigurations(t *testing.T) {
	e := New()
	configs, errs := e.LoadStartupScript(samStartup)
	require.Empty(t, errs)

	require.Equal(t, []string{"PVWatts-Residential", "PVWatts-Commercial", "Generic"}, e.Names())
	require.Len(t, configs, 3)

	res := configs[0]
	require.Equal(t, "PVWatts", res.Technology)
	require.Equal(t, "Residential", res.Financing)
	require.Equal(t, []string{"pvwattsv8", "grid", "utilityrate5", "cashloan"}, res.Modules)

	want := []Page{
		{
			Title:          "Location and Resource",
			CommonForms:    []string{"Irradiance", "Location"},
			ExclusiveForms: []string{},
			Line:           15,
		},
		{
			Title:          "Module",
			CommonForms:    []string{"PV Module"},
			ExclusiveForms: []string{"Module Simple", "Module CEC"},
			ExclusiveVar:   "module_model",
			Line:           19,
		},
		{
			Title:          "Hidden Losses",
			CommonForms:    []string{"Hidden Losses"},
			ExclusiveForms: []string{},
			Hidden:         true,
			Line:           24,
		},
	}
	if diff := cmp.Diff(want, res.Pages); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}

	require.Empty(t, configs[1].Pages)
	require.Equal(t, []string{"Generic Plant"}, configs[2].Pages[0].CommonForms)
	require.Equal(t, "Generic Plant", configs[2].Pages[0].Title)
}

func TestAccessorsExposeInputPagesAndModules(t *testing.T) {
	e := New()
	_, errs := e.LoadStartupScript(samStartup)
	require.Empty(t, errs)

	inputs := e.ConfigToInputPages()
	require.Len(t, inputs["PVWatts-Residential"], 2, "hidden pages are not input pages")
	require.Equal(t, "Module", inputs["PVWatts-Residential"][1].Title)
	require.Empty(t, inputs["PVWatts-Commercial"])

	modules := e.ConfigToModules()
	require.Equal(t, []string{"pvwattsv8", "grid", "utilityrate5", "cashloan"}, modules["PVWatts-Residential"])
	require.Empty(t, modules["Generic"])

	// accessors hand out copies
	modules["PVWatts-Residential"][0] = "mutated"
	require.Equal(t, "pvwattsv8", e.ConfigToModules()["PVWatts-Residential"][0])
}

func TestLoadStartupScriptCollectsParseErrors(t *testing.T) {
	src := `
addpage(['Orphan']);
addconfig('PV');
setconfig('PV');
x = 3;
unknowncall(1);
setmodules(['a' 'b']);
setconfig('Wind', 'PPA');
addpage(['Turbine']);
s = 'unterminated
`
	e := New()
	configs, errs := e.LoadStartupScript(src)

	var msgs []string
	for _, pe := range errs {
		msgs = append(msgs, pe.Error())
	}
	joined := strings.Join(msgs, "\n")

	require.Contains(t, joined, "line 2: addpage outside of a configuration")
	require.Contains(t, joined, "line 5: unrecognized statement")
	require.Contains(t, joined, "line 6: unrecognized call unknowncall")
	require.Contains(t, joined, "line 7: malformed setmodules")
	require.Contains(t, joined, `line 8: setconfig selects undeclared configuration "Wind-PPA"`)
	require.Contains(t, joined, "unterminated string")

	// best-effort partial parse
	require.Equal(t, []string{"PV", "Wind-PPA"}, e.Names())
	require.Equal(t, []string{"Turbine"}, configs[1].Pages[0].CommonForms)
	require.Len(t, e.Errors(), len(errs))
}

func TestConfigurationNamesAreUnique(t *testing.T) {
	e := New()
	_, errs := e.LoadStartupScript(`
addconfig('PV', ['Residential']);
addconfig('PV', ['Residential', 'Commercial']);
setconfig('PV', 'Residential');
setconfig('PV', 'Residential');
`)
	require.Empty(t, errs)
	require.Equal(t, []string{"PV-Residential", "PV-Commercial"}, e.Names())
}

func TestToleratesFormattingVariation(t *testing.T) {
	e := New()
	configs, errs := e.LoadStartupScript("addconfig(\"PVWatts\"); setconfig( 'PVWatts' ) ;\n\n   addpage(\n[ [ 'Irradiance' ] ] ,\n{ sidebar : 'Resource' } ) ; /* trailing */")
	require.Empty(t, errs)
	require.Len(t, configs, 1)
	require.Equal(t, "Resource", configs[0].Pages[0].Title)
	require.Equal(t, []string{"Irradiance"}, configs[0].Pages[0].CommonForms)
}

func TestReloadReplacesState(t *testing.T) {
	e := New()
	e.LoadStartupScript("addconfig('A');")
	configs, errs := e.LoadStartupScript("addconfig('B');")
	require.Empty(t, errs)
	require.Len(t, configs, 1)
	require.Equal(t, "B", configs[0].Name)
}
