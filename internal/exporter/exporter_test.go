package exporter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/export-config/internal/aggregator"
	"github.com/robert-at-pretension-io/export-config/internal/config"
	"github.com/robert-at-pretension-io/export-config/internal/ssc"
)

const startupScript = `
addconfig('PVWatts');
addconfig('Generic');

setconfig('PVWatts');
setmodules(['pvwattsv8']);
addpage([['Irradiance']], { 'sidebar' = 'Location and Resource' });

setconfig('Generic');
setmodules(['generic_system']);
addpage(['Plant']);
`

func writeProject(t *testing.T, forms map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	uiDir := filepath.Join(dir, "ui")
	require.NoError(t, os.MkdirAll(uiDir, 0o755))
	startup := filepath.Join(dir, "startup.lk")
	require.NoError(t, os.WriteFile(startup, []byte(startupScript), 0o644))
	for name, content := range forms {
		require.NoError(t, os.WriteFile(filepath.Join(uiDir, name+".txt"), []byte(content), 0o644))
	}
	return startup
}

func baseOptions(startup string) Options {
	return Options{
		StartupPath: startup,
		Config:      config.DefaultConfig(),
		Version:     ssc.Static("290"),
		Now:         func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) },
	}
}

var completeForms = map[string]string{
	"Irradiance": "Form Irradiance\n@@ equations\nPout = Gpoa * eff;\n@@ callbacks\n",
	"Plant":      "Form Plant\n@@ callbacks\nrun generic_system;\n",
}

func TestExportPVWattsScenario(t *testing.T) {
	startup := writeProject(t, completeForms)

	var out bytes.Buffer
	require.NoError(t, Export(context.Background(), &out, baseOptions(startup)))

	s := out.String()
	require.Contains(t, s, "SSC Version: 290")
	require.Contains(t, s, "Date: Sun Oct 18 00:00:00 2026")
	require.Contains(t, s, `    "PVWatts": {"Irradiance": ["Pout"]},`)
	require.Contains(t, s, `    "PVWatts": {"Irradiance": []},`)
	require.Contains(t, s, `    "Generic": {"Plant": ["generic_system"]},`)
}

func TestMissingFormPrintsNothing(t *testing.T) {
	startup := writeProject(t, map[string]string{"Irradiance": completeForms["Irradiance"]})

	var out bytes.Buffer
	err := Export(context.Background(), &out, baseOptions(startup))
	require.ErrorIs(t, err, aggregator.ErrFormNotFound)
	require.Zero(t, out.Len())
}

func TestMissingStartupScript(t *testing.T) {
	var out bytes.Buffer
	err := Export(context.Background(), &out, baseOptions(filepath.Join(t.TempDir(), "nope.lk")))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading startup script")
	require.Zero(t, out.Len())
}

func TestErrorSeverityBlocksEmission(t *testing.T) {
	startup := writeProject(t, map[string]string{
		"Irradiance": "@@ callbacks\nrun battery;\n",
		"Plant":      completeForms["Plant"],
	})
	opts := baseOptions(startup)
	opts.Config.Lint.Rules["callback-module-not-in-pipeline"] = "error"

	var out bytes.Buffer
	err := Export(context.Background(), &out, opts)
	require.ErrorIs(t, err, ErrPolicy)
	require.Zero(t, out.Len())

	opts.Config.Lint.Rules["callback-module-not-in-pipeline"] = "warning"
	require.NoError(t, Export(context.Background(), &out, opts))
	require.NotZero(t, out.Len())
}

func TestOnlyRestrictsAnalysisAndOutput(t *testing.T) {
	// Plant.txt is missing, but Generic is not selected.
	startup := writeProject(t, map[string]string{"Irradiance": completeForms["Irradiance"]})
	opts := baseOptions(startup)
	opts.Only = []string{"PVWatts"}

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, result.Tables.Configurations, 1)
	require.Equal(t, "PVWatts", result.Tables.Configurations[0].Name)
	require.Len(t, result.Records, 1)

	opts.Only = []string{"Wind"}
	_, err = Run(context.Background(), opts)
	require.ErrorContains(t, err, `unknown configuration "Wind"`)
}

func TestConfigFilterAndOnlyOverride(t *testing.T) {
	startup := writeProject(t, map[string]string{"Plant": completeForms["Plant"]})
	opts := baseOptions(startup)
	opts.Config.Configurations = []string{"Generic"}

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, result.Configurations, 1)
	require.Equal(t, "Generic", result.Configurations[0].Name)

	// Irradiance.txt is missing, so selecting PVWatts must now fail.
	opts.Only = []string{"PVWatts"}
	_, err = Run(context.Background(), opts)
	require.ErrorIs(t, err, aggregator.ErrFormNotFound)
	require.Equal(t, []string{"Generic"}, opts.Config.Configurations)
}

func TestParseErrorsAreNotFatal(t *testing.T) {
	startup := writeProject(t, completeForms)
	script := startupScript + "\nbogus(1);\n"
	require.NoError(t, os.WriteFile(startup, []byte(script), 0o644))

	result, err := Run(context.Background(), baseOptions(startup))
	require.NoError(t, err)
	require.Len(t, result.ParseErrors, 1)
	require.Equal(t, 13, result.ParseErrors[0].Line)
}

func TestYAMLFormat(t *testing.T) {
	startup := writeProject(t, completeForms)
	opts := baseOptions(startup)
	opts.Config.Output.Format = "yaml"

	var out bytes.Buffer
	require.NoError(t, Export(context.Background(), &out, opts))
	require.Contains(t, out.String(), "config_to_cb_cmods:")
}
