package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/deviceclean/internal/core"
)

const devicesCSV = `Manufacturer,Model,Serial,Entry Date,Category,Country,Notes
Dell,Latitude 5420,SN1,2024-03-01,LAPTOP,FR,ok
HP,EliteBook 840,SN2,03/15/2024,laptop,France,fix me
Lenovo,ThinkPad,SN3,2024-01-10,Phone,unknown,manual
`

const cleanPlan = `resolutions:
- action: replace_bulk
  column: deviceCategory
  values:
    Phone: SMARTPHONE
- action: ignore_remaining
`

// run executes args in a scratch working directory.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	chdir(t, t.TempDir())

	var out, errOut bytes.Buffer
	app := New("test", WithOutput(&out, &errOut))
	err = app.Execute(context.Background(), args)
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestInspect(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)
	planOut := filepath.Join(t.TempDir(), "plan.yaml")

	out, _, err := run(t, "inspect", input, "--plan-out", planOut)
	require.NoError(t, err)

	assert.Contains(t, out, "3 rows, 7 columns from 1 files")
	assert.Contains(t, out, "deviceManufacturer")
	assert.Contains(t, out, "Notes")

	f, err := os.Open(planOut)
	require.NoError(t, err)
	defer f.Close()
	plan, err := core.ReadPlan(f)
	require.NoError(t, err)
	assert.Equal(t, core.ColManufacturer, plan.Mapping.Rename["Manufacturer"])
	assert.Equal(t, core.ColEntryDate, plan.Mapping.Rename["Entry Date"])
	assert.True(t, plan.ApplySuggestions)
	assert.True(t, plan.NormalizeCategories)
}

func TestInspect_NeedsFiles(t *testing.T) {
	_, _, err := run(t, "inspect")
	require.Error(t, err)
}

func TestCheck_Table(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)

	out, _, err := run(t, "check", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows needing manual attention: 1")
	assert.Contains(t, out, "SN3")
	assert.NotContains(t, out, "SN1")
}

func TestCheck_YAML(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)

	out, _, err := run(t, "check", input, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "manual:")
	assert.Contains(t, out, "row: 2")
	assert.Contains(t, out, "suggestion: FR")
}

func TestCheck_BadFormat(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)

	_, _, err := run(t, "check", input, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestCheck_Reports(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "report.html")
	problems := filepath.Join(dir, "problems.csv")

	_, _, err := run(t, "check", input, "--html", htmlPath, "--problems", problems)
	require.NoError(t, err)

	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(page), "<!DOCTYPE html>"))
	assert.Contains(t, string(page), "SN3")

	lines := readLines(t, problems)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], ","+core.ProblemsColumn))
	assert.Contains(t, lines[1], "SN3")
}

func TestCheck_WithPlan(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)
	plan := writeFile(t, "plan.yaml", "suggest_mapping: true\n"+cleanPlan)

	out, _, err := run(t, "check", input, "--plan", plan)
	require.NoError(t, err)
	assert.Contains(t, out, "No rows need manual attention.")
}

func TestCheck_MissingColumns(t *testing.T) {
	input := writeFile(t, "devices.csv", "Model,Serial\nT14,SN1\n")

	_, _, err := run(t, "check", input)
	require.Error(t, err)

	var missing *core.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Columns, core.ColCountry)
}

func TestClean(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)
	plan := writeFile(t, "plan.yaml", cleanPlan)
	dir := t.TempDir()
	cleaned := filepath.Join(dir, "clean.csv")
	ignored := filepath.Join(dir, "ignored.csv")

	out, _, err := run(t, "clean", input, "--plan", plan, "--auto", "--out", cleaned, "--ignored", ignored)
	require.NoError(t, err)

	assert.Contains(t, out, "ignored 1 rows")
	assert.Contains(t, out, string(core.ActionReplaceBulk))
	assert.Contains(t, out, string(core.ActionIgnoreRows))
	assert.Contains(t, out, "All 2 live rows pass validation.")

	header := "deviceManufacturer,deviceModel,deviceSerialnumber,deviceEntryDate,deviceCategory,country,tag:Notes"
	assert.Equal(t, []string{
		header,
		"Dell,Latitude 5420,SN1,2024-03-01,LAPTOP,FR,ok",
		"HP,EliteBook 840,SN2,2024-03-15,LAPTOP,FR,fix me",
	}, readLines(t, cleaned))
	assert.Equal(t, []string{
		header,
		"Lenovo,ThinkPad,SN3,2024-01-10,SMARTPHONE,unknown,manual",
	}, readLines(t, ignored))
}

func TestClean_RowIDAndConfigFile(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)
	cfgFile := writeFile(t, "deviceclean.yaml", "export_delimiter: \";\"\n")
	cleaned := filepath.Join(t.TempDir(), "clean.csv")

	_, _, err := run(t, "clean", input, "--auto", "--config", cfgFile, "--with-row-id", "row_id", "--out", cleaned)
	require.NoError(t, err)

	lines := readLines(t, cleaned)
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "row_id;deviceManufacturer;"))
	assert.True(t, strings.HasPrefix(lines[3], "2;Lenovo;"))
}

func TestClean_RemainingManualRows(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)
	cleaned := filepath.Join(t.TempDir(), "clean.csv")

	out, _, err := run(t, "clean", input, "--auto", "--out", cleaned)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows still needing manual attention: 1")
	assert.Len(t, readLines(t, cleaned), 4)
}

func TestClean_Arguments(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)

	_, _, err := run(t, "clean", input, "--out", filepath.Join(t.TempDir(), "x.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--plan or --auto")

	_, _, err = run(t, "clean", input, "--auto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out")

	bad := writeFile(t, "plan.yaml", "resolutions:\n- action: explode\n")
	_, _, err = run(t, "clean", input, "--plan", bad, "--out", filepath.Join(t.TempDir(), "x.csv"))
	require.Error(t, err)
	assert.Equal(t, "PLAN001", core.MapError(err).Code)
}

func TestSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")

	out, _, err := run(t, "sample", "--rows", "25", "--seed", "4", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "25 rows")
	assert.Len(t, readLines(t, path), 26)

	again := filepath.Join(t.TempDir(), "again.csv")
	_, _, err = run(t, "sample", "--rows", "25", "--seed", "4", "--out", again)
	require.NoError(t, err)
	assert.Equal(t, readLines(t, path), readLines(t, again))

	check, _, err := run(t, "check", path, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, check, "total_rows: 25")
}

func TestSample_Stdout(t *testing.T) {
	out, _, err := run(t, "sample", "--rows", "3", "--defect-rate", "0")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], core.ColManufacturer+","))
}

func TestSample_TSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "devices.tsv")
	_, _, err := run(t, "sample", "--rows", "2", "--defect-rate", "0", "--out", out)
	require.NoError(t, err)

	lines := readLines(t, out)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], core.ColManufacturer+"\t"+core.ColModel+"\t"))
}

func TestExportDelimiter(t *testing.T) {
	assert.Equal(t, '\t', exportDelimiter("cleaned.tsv"))
	assert.Equal(t, '\t', exportDelimiter("CLEANED.TSV"))
	assert.Equal(t, ',', exportDelimiter("cleaned.csv"))
	assert.Equal(t, ',', exportDelimiter("-"))
}

func TestSample_InvalidRate(t *testing.T) {
	_, _, err := run(t, "sample", "--defect-rate", "1.5")
	require.Error(t, err)
}

func TestLoggingFlags(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)

	_, stderr, err := run(t, "--log-level", "debug", "--log-format", "json", "inspect", input)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"configuration loaded"`)
	assert.Contains(t, stderr, `"run_id":`)
	assert.Contains(t, stderr, `"msg":"sources ingested"`)
}

func TestConfigErrors(t *testing.T) {
	input := writeFile(t, "devices.csv", devicesCSV)

	_, _, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "inspect", input)
	require.Error(t, err)

	t.Setenv("INGEST_DELIMITER", "pipe")
	_, _, err = run(t, "inspect", input)
	require.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, _, err := run(t, "check", filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)

	var buf bytes.Buffer
	PrintError(&buf, err)
	assert.Contains(t, buf.String(), "FILE004")
	assert.Contains(t, buf.String(), "detail:")
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, nil)
	assert.Empty(t, buf.String())

	err := errors.Join(
		&core.UnknownRowError{Row: 4, Op: "edit"},
		fmt.Errorf("step: %w", &core.UnknownRowError{Row: 9}),
	)
	PrintError(&buf, err)
	assert.Contains(t, buf.String(), "RES001")
	assert.Contains(t, buf.String(), "rows: [4 9]")
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("chdir: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("chdir: restoring %s: %v", old, err)
		}
	})
}
