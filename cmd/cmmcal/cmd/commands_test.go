package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dbsmedya/cmmcal/internal/offset"
	"github.com/dbsmedya/cmmcal/internal/types"
)

const sampleReport = "CMM REPORT\r\n" +
	"DIM P1 UNIDADES=MM\r\n" +
	"X 10.1 10.0 0.5 -0.5 0.1 0.0\r\n" +
	"Y 5.0 5.0 0.5 -0.5 0.0 0.0\r\n" +
	"DIM P2= ORIGEN UNIDADES=MM\r\n" +
	"Z 1.0 abc 0.5 -0.5 0.0 0.0\r\n" +
	"Z -2.0 -2.1 0.5 -0.5 0.1 0.0\r\n"

// resetCommandFlags restores every command flag variable after a test.
func resetCommandFlags(t *testing.T) {
	t.Helper()
	saved := struct {
		cfgFile, logLevel                                 string
		convertOutput, convertSheet                       string
		convertNoPreview, convertAllowEmpty               bool
		compareSummaryOut, compareXMLOut                  string
		compareStation, compareModel, compareDuplicateJSN string
		compareNoPreview                                  bool
		gaugeXMLOut, gaugeStation, gaugeModel             string
	}{
		cfgFile, logLevel,
		convertOutput, convertSheet,
		convertNoPreview, convertAllowEmpty,
		compareSummaryOut, compareXMLOut,
		compareStation, compareModel, compareDuplicateJSN,
		compareNoPreview,
		gaugeXMLOut, gaugeStation, gaugeModel,
	}
	t.Cleanup(func() {
		cfgFile, logLevel = saved.cfgFile, saved.logLevel
		convertOutput, convertSheet = saved.convertOutput, saved.convertSheet
		convertNoPreview, convertAllowEmpty = saved.convertNoPreview, saved.convertAllowEmpty
		compareSummaryOut, compareXMLOut = saved.compareSummaryOut, saved.compareXMLOut
		compareStation, compareModel, compareDuplicateJSN = saved.compareStation, saved.compareModel, saved.compareDuplicateJSN
		compareNoPreview = saved.compareNoPreview
		gaugeXMLOut, gaugeStation, gaugeModel = saved.gaugeXMLOut, saved.gaugeStation, saved.gaugeModel
	})
	cfgFile = ""
	logLevel = "error"
}

func newTestCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	c := &cobra.Command{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	c.SetOut(out)
	c.SetErr(errOut)
	return c, out, errOut
}

func writeComparisonWorkbook(t *testing.T, path string, sheets map[string][][]interface{}, order []string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func comparisonFixture() (map[string][][]interface{}, []string) {
	sheets := map[string][][]interface{}{
		"Perceptron": {
			{"JSN", "P1[X]", "P1[Y]", "REF"},
			{1001, 10.0, 5.0, 1.0},
			{1002, 12.0, 5.1, 2.0},
			{1003, 11.0, 5.2, 3.0},
		},
		"CMM": {
			{"JSN", "P1_X", "P1_Y", "REF"},
			{"1001", 10.1, 5.05, 1.5},
			{"1002", 12.2, 5.2, 2.5},
			{"1003", 11.3, 5.3, 3.5},
		},
		"JSN-Mapping": {
			{"PerceptronJSN", "CMMJSN"},
			{1001, 1001},
			{1002, 1002},
			{1003, 1003},
		},
		"Axis-Mapping": {
			{"PerceptronAxis", "CMMAxis"},
			{"P1[X]", "P1_X"},
			{"P1[Y]", "P1_Y"},
			{"REF", "REF"},
		},
	}
	return sheets, []string{"Perceptron", "CMM", "JSN-Mapping", "Axis-Mapping"}
}

func TestRunConvert(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(input, []byte(sampleReport), 0o644))
	convertOutput = filepath.Join(dir, "out.xlsx")

	c, out, _ := newTestCommand()
	require.NoError(t, runConvert(c, []string{input}))

	assert.Contains(t, out.String(), "Records:      3")
	assert.Contains(t, out.String(), "Skipped:      1")
	assert.Contains(t, out.String(), "Desviación")
	assert.Contains(t, out.String(), "Wrote 3 records")

	f, err := excelize.OpenFile(convertOutput)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("CMM TXT")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Punto", rows[0][0])
	assert.Equal(t, []string{"P1", "X"}, rows[1][:2])
	assert.Equal(t, []string{"P2", "Z"}, rows[3][:2])
}

func TestRunConvertEmptyReport(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(input, []byte("nothing here\n"), 0o644))
	convertOutput = filepath.Join(dir, "out.xlsx")

	t.Run("nothing written", func(t *testing.T) {
		c, out, _ := newTestCommand()
		require.NoError(t, runConvert(c, []string{input}))
		assert.Contains(t, out.String(), "No measurements found")
		assert.NoFileExists(t, convertOutput)
	})

	t.Run("allow empty", func(t *testing.T) {
		convertAllowEmpty = true
		convertSheet = "Empty"
		c, _, _ := newTestCommand()
		require.NoError(t, runConvert(c, []string{input}))

		f, err := excelize.OpenFile(convertOutput)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Empty")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestRunConvertMissingFile(t *testing.T) {
	resetCommandFlags(t)
	convertOutput = filepath.Join(t.TempDir(), "out.xlsx")

	c, _, _ := newTestCommand()
	err := runConvert(c, []string{filepath.Join(t.TempDir(), "missing.txt")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open report")
	assert.NoFileExists(t, convertOutput)
}

func TestRunCompare(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "compare.xlsx")
	sheets, order := comparisonFixture()
	writeComparisonWorkbook(t, input, sheets, order)

	compareSummaryOut = filepath.Join(dir, "summary.xlsx")
	compareXMLOut = filepath.Join(dir, "gauge.xml")
	compareModel = "K_SEDAN"

	c, out, _ := newTestCommand()
	require.NoError(t, runCompare(c, []string{input}))

	assert.Contains(t, out.String(), "Offsets:         3")
	assert.Contains(t, out.String(), `Excluded "REF" from XML`)

	xmlData, err := os.ReadFile(compareXMLOut)
	require.NoError(t, err)
	doc := string(xmlData)
	assert.NotContains(t, doc, "\n")
	assert.Contains(t, doc, "<MODEL><NAME>K_SEDAN</NAME>")
	assert.Contains(t, doc, "<AXIS><NAME>X</NAME><OFFSET>0.2</OFFSET></AXIS>")
	assert.NotContains(t, doc, "REF")

	f, err := excelize.OpenFile(compareSummaryOut)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Offset Summary")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Calculated Offset", rows[0][6])
	assert.Equal(t, "REF", rows[3][0])
}

func TestRunCompareXMLToStdout(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "compare.xlsx")
	sheets, order := comparisonFixture()
	writeComparisonWorkbook(t, input, sheets, order)

	compareSummaryOut = filepath.Join(dir, "summary.xlsx")
	compareXMLOut = "-"

	c, out, errOut := newTestCommand()
	require.NoError(t, runCompare(c, []string{input}))

	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("<GAUGE>")))
	assert.True(t, bytes.HasSuffix(out.Bytes(), []byte("</GAUGE>\n")))
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("\n")), "stdout holds only the gauge document")
	assert.Contains(t, errOut.String(), "Calculation Summary")
	assert.FileExists(t, compareSummaryOut)
}

func TestRunGaugeRejectsLogsOnStdout(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()
	cfgFile = filepath.Join(dir, "cmmcal.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("logging:\n  output: stdout\n"), 0o644))
	gaugeXMLOut = "-"

	c, out, _ := newTestCommand()
	err := runGauge(c, []string{filepath.Join(dir, "summary.xlsx")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.output")
	assert.Empty(t, out.String())
}

func TestRunCompareLeavesNoPartialOutput(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "compare.xlsx")
	sheets, order := comparisonFixture()
	writeComparisonWorkbook(t, input, sheets, order)

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))
	compareSummaryOut = filepath.Join(outDir, "summary.xlsx")
	compareXMLOut = filepath.Join(dir, "missing", "gauge.xml")

	c, _, _ := newTestCommand()
	err := runCompare(c, []string{input})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gauge.xml")

	assert.NoFileExists(t, compareSummaryOut)
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no staged files are left behind")
}

func TestRunCompareSchemaError(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "compare.xlsx")
	sheets, order := comparisonFixture()
	sheets["Axis-Mapping"] = append(sheets["Axis-Mapping"], []interface{}{"P9[Z]", "P9_Z"})
	writeComparisonWorkbook(t, input, sheets, order)

	compareSummaryOut = filepath.Join(dir, "summary.xlsx")
	compareXMLOut = filepath.Join(dir, "gauge.xml")

	c, _, _ := newTestCommand()
	err := runCompare(c, []string{input})
	require.Error(t, err)

	var se *types.SchemaError
	assert.True(t, errors.As(err, &se))
	assert.NoFileExists(t, compareSummaryOut)
	assert.NoFileExists(t, compareXMLOut)
}

func TestRunCompareDuplicatePolicy(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "compare.xlsx")
	sheets, order := comparisonFixture()
	sheets["CMM"] = append(sheets["CMM"], []interface{}{"1001", 99.0, 99.0, 99.0})
	writeComparisonWorkbook(t, input, sheets, order)

	compareSummaryOut = filepath.Join(dir, "summary.xlsx")
	compareXMLOut = filepath.Join(dir, "gauge.xml")

	t.Run("first", func(t *testing.T) {
		c, out, _ := newTestCommand()
		require.NoError(t, runCompare(c, []string{input}))
		assert.Contains(t, out.String(), "Duplicate JSN:   1 (policy: first)")
	})

	t.Run("error", func(t *testing.T) {
		require.NoError(t, os.Remove(compareSummaryOut))
		compareDuplicateJSN = "error"
		c, _, _ := newTestCommand()
		err := runCompare(c, []string{input})
		assert.ErrorIs(t, err, offset.ErrDuplicateJSN)
		assert.NoFileExists(t, compareSummaryOut)
	})
}

func TestRunGauge(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "compare.xlsx")
	sheets, order := comparisonFixture()
	writeComparisonWorkbook(t, input, sheets, order)

	compareSummaryOut = filepath.Join(dir, "summary.xlsx")
	compareXMLOut = filepath.Join(dir, "gauge.xml")
	c, _, _ := newTestCommand()
	require.NoError(t, runCompare(c, []string{input}))

	original, err := os.ReadFile(compareXMLOut)
	require.NoError(t, err)

	t.Run("same document", func(t *testing.T) {
		gaugeXMLOut = "-"
		c, out, _ := newTestCommand()
		require.NoError(t, runGauge(c, []string{compareSummaryOut}))
		assert.Equal(t, string(original)+"\n", out.String())
	})

	t.Run("other station", func(t *testing.T) {
		gaugeXMLOut = filepath.Join(dir, "other.xml")
		gaugeStation = "T2XX"
		c, out, _ := newTestCommand()
		require.NoError(t, runGauge(c, []string{compareSummaryOut}))
		assert.Contains(t, out.String(), "Wrote 1 checkpoints (1 excluded records)")

		data, err := os.ReadFile(gaugeXMLOut)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<STATION><NAME>T2XX</NAME>")
	})
}

func TestRunGaugeWrongWorkbook(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "compare.xlsx")
	sheets, order := comparisonFixture()
	writeComparisonWorkbook(t, input, sheets, order)
	gaugeXMLOut = filepath.Join(dir, "gauge.xml")

	c, _, _ := newTestCommand()
	err := runGauge(c, []string{input})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Offset Summary")
	assert.NoFileExists(t, gaugeXMLOut)
}

func TestRunValidate(t *testing.T) {
	resetCommandFlags(t)
	dir := t.TempDir()

	t.Run("valid workbook", func(t *testing.T) {
		input := filepath.Join(dir, "ok.xlsx")
		sheets, order := comparisonFixture()
		writeComparisonWorkbook(t, input, sheets, order)

		c, out, _ := newTestCommand()
		require.NoError(t, runValidate(c, []string{input}))
		assert.Contains(t, out.String(), "Config file: (defaults)")
		assert.Contains(t, out.String(), "Axis mappings: 3")
		assert.Contains(t, out.String(), "Validation Complete")
	})

	t.Run("missing sheets", func(t *testing.T) {
		input := filepath.Join(dir, "partial.xlsx")
		sheets, _ := comparisonFixture()
		writeComparisonWorkbook(t, input, sheets, []string{"Perceptron", "CMM"})

		c, out, _ := newTestCommand()
		err := runValidate(c, []string{input})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
		assert.Contains(t, out.String(), `sheet "JSN-Mapping" not found`)
		assert.Contains(t, out.String(), `sheet "Axis-Mapping" not found`)
	})

	t.Run("missing columns", func(t *testing.T) {
		input := filepath.Join(dir, "columns.xlsx")
		sheets, order := comparisonFixture()
		sheets["CMM"][0][0] = "Serial"
		writeComparisonWorkbook(t, input, sheets, order)

		c, _, _ := newTestCommand()
		err := runValidate(c, []string{input})
		require.Error(t, err)
		var se *types.SchemaError
		require.True(t, errors.As(err, &se))
	})
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"Eje", "Medición"}, [][]string{
		{"X", "1.0"},
		{"Y", "10.25"},
		{"Z", "3.0"},
	}, 2)

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 5)
	assert.Equal(t, "  Eje  Medición", string(lines[0]))
	assert.Equal(t, "  ---  --------", string(lines[1]))
	assert.Equal(t, "  X    1.0", string(lines[2]))
	assert.Equal(t, "  ... 1 more rows", string(lines[4]))
}

func TestWriteArtifactsStdout(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "a.xml")

	err := writeArtifacts(&buf,
		artifact{path: stdoutPath, data: renderXML(stdoutPath, "<GAUGE></GAUGE>")},
		artifact{path: path, data: renderXML(path, "<GAUGE></GAUGE>")},
	)
	require.NoError(t, err)
	assert.Equal(t, "<GAUGE></GAUGE>\n", buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<GAUGE></GAUGE>", string(data))
}

func TestWriteArtifactsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	summary := filepath.Join(dir, "summary.xlsx")
	require.NoError(t, os.WriteFile(summary, []byte("previous run"), 0o644))

	var buf bytes.Buffer
	err := writeArtifacts(&buf,
		artifact{path: summary, data: []byte("new summary")},
		artifact{path: stdoutPath, data: []byte("<GAUGE></GAUGE>\n")},
		artifact{path: filepath.Join(dir, "missing", "gauge.xml"), data: []byte("<GAUGE></GAUGE>")},
	)
	require.Error(t, err)

	data, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Equal(t, "previous run", string(data), "existing output is untouched")
	assert.Empty(t, buf.String())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "summary.xlsx", entries[0].Name())
}

func TestWriteArtifactsReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resultado.xml")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, writeArtifacts(&bytes.Buffer{}, artifact{path: path, data: []byte("new")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
