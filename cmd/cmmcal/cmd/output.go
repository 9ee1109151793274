package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dbsmedya/cmmcal/internal/config"
	"github.com/dbsmedya/cmmcal/internal/offset"
	"github.com/dbsmedya/cmmcal/internal/report"
	"github.com/dbsmedya/cmmcal/internal/types"
	"github.com/dbsmedya/cmmcal/internal/workbook"
	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

// previewRows caps the rows printed by the table previews.
const previewRows = 20

const stdoutPath = config.StdoutPath

// printHeader prints a formatted header
func printHeader(w io.Writer, format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := runewidth.StringWidth(title) + 4
	fmt.Fprintln(w, strings.Repeat("=", width))
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "[%s]\n", title)
	fmt.Fprintln(w, strings.Repeat("-", runewidth.StringWidth(title)+2))
}

func printOK(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, color.Green.Sprintf("✅ "+format, args...))
}

func printWarn(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, color.Yellow.Sprintf("⚠️  "+format, args...))
}

func printFail(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, color.Red.Sprintf("❌ "+format, args...))
}

// printTable prints rows under headers with columns padded to their display
// width. Only the first limit rows are printed when limit is positive.
func printTable(w io.Writer, headers []string, rows [][]string, limit int) {
	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range shown {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if cw := runewidth.StringWidth(row[i]); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow := func(cells []string) {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintf(w, "  %s\n", strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	writeRow(headers)
	sep := make([]string, len(widths))
	for i, cw := range widths {
		sep[i] = strings.Repeat("-", cw)
	}
	writeRow(sep)
	for _, row := range shown {
		writeRow(row)
	}
	if len(shown) < len(rows) {
		fmt.Fprintf(w, "  ... %d more rows\n", len(rows)-len(shown))
	}
}

func measurementRows(ms []report.Measurement) [][]string {
	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []string{
			m.Checkpoint,
			m.Axis,
			types.FormatFloat(m.Nominal),
			types.FormatFloat(m.TolPlus),
			types.FormatFloat(m.TolMinus),
			types.FormatFloat(m.Measured),
			types.FormatFloat(m.Deviation),
			types.FormatFloat(m.OutOfTolerance),
		})
	}
	return rows
}

func summaryRows(records []offset.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.PercAxis,
			r.CMMAxis,
			types.FormatFloat(r.PercMean),
			types.FormatFloat(r.CMMMean),
			types.FormatFloat(r.Correlation),
			types.FormatFloat(r.SixSigma),
			types.FormatFloat(r.Offset),
		})
	}
	return rows
}

func printMeasurements(w io.Writer, ms []report.Measurement) {
	printTable(w, workbook.MeasurementHeaders, measurementRows(ms), previewRows)
}

func printSummary(w io.Writer, records []offset.Record) {
	printTable(w, workbook.SummaryHeaders, summaryRows(records), previewRows)
}

// artifact is an output that has been rendered in memory and not yet written.
type artifact struct {
	path string
	data []byte
}

// writeArtifacts writes every rendered output. Files are first staged next to
// their targets and only renamed into place once all of them were staged, so
// a failed run leaves neither partial nor stray files. Standard output is
// written last.
func writeArtifacts(stdout io.Writer, items ...artifact) error {
	var staged []string
	discard := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	var files, streams []artifact
	for _, a := range items {
		if a.path == stdoutPath {
			streams = append(streams, a)
			continue
		}
		tmp, err := stageFile(a)
		if err != nil {
			discard()
			return err
		}
		staged = append(staged, tmp)
		files = append(files, a)
	}

	for i, a := range files {
		if err := os.Rename(staged[i], a.path); err != nil {
			staged = staged[i:]
			discard()
			return fmt.Errorf("failed to write %s: %w", a.path, err)
		}
	}

	for _, a := range streams {
		if _, err := stdout.Write(a.data); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
	}
	return nil
}

// stageFile writes a to a temporary file in the target directory and returns
// its name.
func stageFile(a artifact) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(a.path), "."+filepath.Base(a.path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", a.path, err)
	}
	if _, err := f.Write(a.data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", a.path, err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", a.path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", a.path, err)
	}
	return f.Name(), nil
}

// renderXML returns the gauge document followed by a newline when it is
// printed to the terminal.
func renderXML(path, doc string) []byte {
	var buf bytes.Buffer
	buf.WriteString(doc)
	if path == stdoutPath {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
